package services

import (
	"context"

	"github.com/google/uuid"

	"property-service/internal/models"
	"property-service/internal/policy"
	"property-service/internal/repository"
)

const (
	dashboardLeadLimit = 200
	recentLeadLimit    = 10
)

type CustomerDashboard struct {
	TotalLeads        int64         `json:"total_leads"`
	CompletedBookings int64         `json:"completed_bookings"`
	Leads             []models.Lead `json:"leads"`
}

type AgentDashboard struct {
	TotalLeads        int64         `json:"total_leads"`
	CompletedBookings int64         `json:"completed_bookings"`
	PropertiesCount   int64         `json:"properties_count"`
	Leads             []models.Lead `json:"leads"`
}

type FranchiseDashboard struct {
	TotalProperties     int64         `json:"total_properties"`
	AvailableProperties int64         `json:"available_properties"`
	BookedProperties    int64         `json:"booked_properties"`
	SoldProperties      int64         `json:"sold_properties"`
	TotalBookingAmount  float64       `json:"total_booking_amount"`
	RecentLeads         []models.Lead `json:"recent_leads"`
}

type AdminDashboard struct {
	CompanyID   *uuid.UUID          `json:"company_id"`
	TeamMembers []models.UserPublic `json:"team_members"`
}

type SuperAdminDashboard struct {
	TotalUsers   int64               `json:"total_users"`
	PendingUsers []models.UserPublic `json:"pending_users"`
}

type UserDashboard struct {
	User models.UserPublic `json:"user"`
}

// DashboardService aggregates per-role summaries. Each figure is an
// independent read, so counts and lists may disagree under concurrent writes.
type DashboardService struct {
	users      UserStore
	properties PropertyStore
	leads      LeadStore
}

func NewDashboardService(users UserStore, properties PropertyStore, leads LeadStore) *DashboardService {
	return &DashboardService{users: users, properties: properties, leads: leads}
}

func (s *DashboardService) Customer(ctx context.Context, actor *models.User) (*CustomerDashboard, error) {
	if err := authorize(actor, policy.ActionViewCustomerDashboard, policy.Resource{}); err != nil {
		return nil, err
	}

	scope := repository.LeadScope{CustomerID: &actor.ID}
	total, completed, leads, err := s.leadSummary(ctx, scope)
	if err != nil {
		return nil, err
	}

	return &CustomerDashboard{TotalLeads: total, CompletedBookings: completed, Leads: leads}, nil
}

func (s *DashboardService) Agent(ctx context.Context, actor *models.User) (*AgentDashboard, error) {
	if err := authorize(actor, policy.ActionViewAgentDashboard, policy.Resource{}); err != nil {
		return nil, err
	}

	scope := repository.LeadScope{AgentID: &actor.ID}
	total, completed, leads, err := s.leadSummary(ctx, scope)
	if err != nil {
		return nil, err
	}

	properties, err := s.properties.CountByAgent(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	return &AgentDashboard{
		TotalLeads:        total,
		CompletedBookings: completed,
		PropertiesCount:   properties,
		Leads:             leads,
	}, nil
}

func (s *DashboardService) Franchise(ctx context.Context, actor *models.User) (*FranchiseDashboard, error) {
	if err := authorize(actor, policy.ActionViewFranchiseDash, policy.Resource{}); err != nil {
		return nil, err
	}
	franchiseID := *actor.FranchiseID

	counts, err := s.properties.StatusCounts(ctx, franchiseID)
	if err != nil {
		return nil, err
	}

	scope := repository.LeadScope{FranchiseID: &franchiseID}
	amount, err := s.leads.SumCompletedBookingAmount(ctx, scope)
	if err != nil {
		return nil, err
	}

	recent, err := s.leads.List(ctx, scope, recentLeadLimit)
	if err != nil {
		return nil, err
	}

	dash := &FranchiseDashboard{
		AvailableProperties: counts[models.PropertyAvailable],
		BookedProperties:    counts[models.PropertyBooked],
		SoldProperties:      counts[models.PropertySold],
		TotalBookingAmount:  amount,
		RecentLeads:         nonNilLeads(recent),
	}
	for _, n := range counts {
		dash.TotalProperties += n
	}
	return dash, nil
}

func (s *DashboardService) Admin(ctx context.Context, actor *models.User) (*AdminDashboard, error) {
	if err := authorize(actor, policy.ActionViewAdminDashboard, policy.Resource{}); err != nil {
		return nil, err
	}

	dash := &AdminDashboard{CompanyID: actor.FranchiseID, TeamMembers: []models.UserPublic{}}
	if actor.FranchiseID == nil {
		return dash, nil
	}

	members, err := s.users.ListByFranchise(ctx, *actor.FranchiseID)
	if err != nil {
		return nil, err
	}
	dash.TeamMembers = models.PublicUsers(members)
	return dash, nil
}

func (s *DashboardService) SuperAdmin(ctx context.Context, actor *models.User) (*SuperAdminDashboard, error) {
	if err := authorize(actor, policy.ActionViewSuperAdminDash, policy.Resource{}); err != nil {
		return nil, err
	}

	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}

	pending, err := s.users.ListUnverified(ctx)
	if err != nil {
		return nil, err
	}

	return &SuperAdminDashboard{TotalUsers: total, PendingUsers: models.PublicUsers(pending)}, nil
}

func (s *DashboardService) User(_ context.Context, actor *models.User) (*UserDashboard, error) {
	if err := authorize(actor, policy.ActionViewUserDashboard, policy.Resource{}); err != nil {
		return nil, err
	}
	return &UserDashboard{User: actor.Public()}, nil
}

func (s *DashboardService) leadSummary(ctx context.Context, scope repository.LeadScope) (int64, int64, []models.Lead, error) {
	total, err := s.leads.Count(ctx, scope)
	if err != nil {
		return 0, 0, nil, err
	}

	completed, err := s.leads.CountCompletedBookings(ctx, scope)
	if err != nil {
		return 0, 0, nil, err
	}

	leads, err := s.leads.List(ctx, scope, dashboardLeadLimit)
	if err != nil {
		return 0, 0, nil, err
	}

	return total, completed, nonNilLeads(leads), nil
}

func nonNilLeads(leads []models.Lead) []models.Lead {
	if leads == nil {
		return []models.Lead{}
	}
	return leads
}
