package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"property-service/internal/events"
	"property-service/internal/models"
	"property-service/internal/repository"
	"property-service/internal/testutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e *events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType)
	}
	return out
}

type fixture struct {
	users      *repository.UserRepository
	franchises *repository.FranchiseRepository
	properties *repository.PropertyRepository
	leads      *repository.LeadRepository

	gateway   *testutil.FakeGateway
	publisher *recordingPublisher
	passwords *PasswordService
	tokens    *JWTService

	auth       *AuthService
	franchise  *FranchiseService
	property   *PropertyService
	lead       *LeadService
	dashboards *DashboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	f := &fixture{
		users:      repository.NewUserRepository(db),
		franchises: repository.NewFranchiseRepository(db),
		properties: repository.NewPropertyRepository(db),
		leads:      repository.NewLeadRepository(db),
		gateway:    &testutil.FakeGateway{},
		publisher:  &recordingPublisher{},
		passwords:  NewPasswordService(bcrypt.MinCost),
		tokens:     NewJWTService("test-secret", "property-service", 24),
	}

	f.auth = NewAuthService(f.users, f.franchises, f.passwords, f.tokens, f.publisher, logger)
	f.franchise = NewFranchiseService(f.franchises, f.users, f.publisher, logger)
	f.property = NewPropertyService(f.properties, f.publisher, logger)
	f.lead = NewLeadService(f.leads, f.properties, f.gateway, "INR", f.publisher, logger)
	f.dashboards = NewDashboardService(f.users, f.properties, f.leads)
	return f
}

func (f *fixture) user(t *testing.T, role models.Role, franchiseID *uuid.UUID) *models.User {
	t.Helper()

	hash, err := f.passwords.HashPassword("password123")
	require.NoError(t, err)

	u := &models.User{
		Email:        uuid.NewString() + "@test.com",
		FullName:     string(role) + " user",
		Role:         role,
		FranchiseID:  franchiseID,
		PasswordHash: hash,
		IsVerified:   true,
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) newFranchise(t *testing.T) uuid.UUID {
	t.Helper()
	fr := &models.Franchise{Name: "North", City: "Pune"}
	require.NoError(t, f.franchises.Create(context.Background(), fr))
	return fr.ID
}

func (f *fixture) newProperty(t *testing.T, franchiseID uuid.UUID, agentID *uuid.UUID) *models.Property {
	t.Helper()
	p := &models.Property{
		Title:           "2BHK",
		City:            "Pune",
		Price:           5000000,
		PropertyType:    "apartment",
		FranchiseID:     franchiseID,
		AssignedAgentID: agentID,
	}
	require.NoError(t, f.properties.Create(context.Background(), p))
	return p
}

func ptr[T any](v T) *T { return &v }

func leadScopeForCustomer(u *models.User) repository.LeadScope {
	return repository.LeadScope{CustomerID: &u.ID}
}
