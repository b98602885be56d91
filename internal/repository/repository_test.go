package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-service/internal/models"
	"property-service/internal/repository"
	"property-service/internal/testutil"
)

func ptr[T any](v T) *T { return &v }

func TestUserRepository_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(testutil.NewDB(t))

	user := &models.User{Email: "  Alice@Test.com ", FullName: "Alice", Role: models.RoleUser, PasswordHash: "x"}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEqual(t, uuid.Nil, user.ID)

	byEmail, err := repo.GetByEmail(ctx, "ALICE@test.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.False(t, byEmail.IsVerified)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	dup := &models.User{Email: "alice@test.com", FullName: "Other", Role: models.RoleUser, PasswordHash: "x"}
	assert.Error(t, repo.Create(ctx, dup))
}

func TestUserRepository_VerifyAndList(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(testutil.NewDB(t))
	franchise := uuid.New()

	a := &models.User{Email: "a@test.com", FullName: "A", Role: models.RoleUser, PasswordHash: "x"}
	b := &models.User{Email: "b@test.com", FullName: "B", Role: models.RoleAgent, PasswordHash: "x", FranchiseID: &franchise}
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	pending, err := repo.ListUnverified(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	require.NoError(t, repo.MarkVerified(ctx, a.ID))
	assert.ErrorIs(t, repo.MarkVerified(ctx, uuid.New()), repository.ErrNotFound)

	pending, err = repo.ListUnverified(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, b.ID, pending[0].ID)

	members, err := repo.ListByFranchise(ctx, franchise)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, b.ID, members[0].ID)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestPropertyRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewPropertyRepository(testutil.NewDB(t))
	franchise := uuid.New()

	seed := []models.Property{
		{Title: "Sea view flat", City: "Mumbai", Price: 9000000, PropertyType: "apartment", FranchiseID: franchise},
		{Title: "Navi plot", City: "Navi Mumbai", Price: 2500000, PropertyType: "plot", FranchiseID: franchise},
		{Title: "Koramangala villa", City: "Bengaluru", Price: 15000000, PropertyType: "villa", FranchiseID: franchise},
	}
	for i := range seed {
		require.NoError(t, repo.Create(ctx, &seed[i]))
		assert.Equal(t, models.PropertyAvailable, seed[i].Status)
	}

	all, err := repo.List(ctx, models.PropertyFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mumbai, err := repo.List(ctx, models.PropertyFilter{City: "mumBAI"})
	require.NoError(t, err)
	assert.Len(t, mumbai, 2)

	plots, err := repo.List(ctx, models.PropertyFilter{City: "mumbai", PropertyType: "plot"})
	require.NoError(t, err)
	require.Len(t, plots, 1)
	assert.Equal(t, "Navi plot", plots[0].Title)

	cheap, err := repo.List(ctx, models.PropertyFilter{MaxPrice: ptr(9000000.0)})
	require.NoError(t, err)
	assert.Len(t, cheap, 2)

	limited, err := repo.List(ctx, models.PropertyFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestPropertyRepository_UpdateDeleteAndCounts(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewPropertyRepository(testutil.NewDB(t))
	franchise := uuid.New()
	agent := uuid.New()

	p1 := &models.Property{Title: "One", City: "Pune", Price: 1, PropertyType: "flat", FranchiseID: franchise, AssignedAgentID: &agent}
	p2 := &models.Property{Title: "Two", City: "Pune", Price: 2, PropertyType: "flat", FranchiseID: franchise}
	p3 := &models.Property{Title: "Three", City: "Pune", Price: 3, PropertyType: "flat", FranchiseID: uuid.New(), AssignedAgentID: &agent}
	for _, p := range []*models.Property{p1, p2, p3} {
		require.NoError(t, repo.Create(ctx, p))
	}

	updated, err := repo.Update(ctx, p2.ID, map[string]interface{}{"status": models.PropertySold, "price": 5.0})
	require.NoError(t, err)
	assert.Equal(t, models.PropertySold, updated.Status)
	assert.Equal(t, 5.0, updated.Price)
	assert.Equal(t, "Two", updated.Title)

	_, err = repo.Update(ctx, uuid.New(), map[string]interface{}{"price": 1.0})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	counts, err := repo.StatusCounts(ctx, franchise)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[models.PropertyAvailable])
	assert.Equal(t, int64(1), counts[models.PropertySold])
	assert.Equal(t, int64(0), counts[models.PropertyBooked])

	agentCount, err := repo.CountByAgent(ctx, agent)
	require.NoError(t, err)
	assert.Equal(t, int64(2), agentCount)

	require.NoError(t, repo.Delete(ctx, p1.ID))
	assert.ErrorIs(t, repo.Delete(ctx, p1.ID), repository.ErrNotFound)
	_, err = repo.GetByID(ctx, p1.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLeadRepository_CompleteBookingIsGuarded(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewLeadRepository(testutil.NewDB(t))

	lead := &models.Lead{PropertyID: uuid.New(), Type: models.LeadBooking, CustomerID: uuid.New(), FranchiseID: uuid.New(), Amount: ptr(500000.0)}
	require.NoError(t, repo.Create(ctx, lead))
	assert.Equal(t, models.LeadNew, lead.Status)

	from := models.SourcesOf(models.LeadCompleted)

	ok, err := repo.CompleteBooking(ctx, lead.ID, "order_1", "pay_1", from)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.CompleteBooking(ctx, lead.ID, "order_1", "pay_2", from)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeadCompleted, got.Status)
	require.NotNil(t, got.RazorpayPaymentID)
	assert.Equal(t, "pay_1", *got.RazorpayPaymentID)
}

func TestLeadRepository_Aggregates(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewLeadRepository(testutil.NewDB(t))
	franchise := uuid.New()
	customer := uuid.New()
	agent := uuid.New()

	base := time.Now().Add(-time.Hour)
	leads := []*models.Lead{
		{Type: models.LeadBooking, Status: models.LeadCompleted, Amount: ptr(500000.0)},
		{Type: models.LeadBooking, Status: models.LeadCompleted, Amount: ptr(750000.0)},
		{Type: models.LeadBooking, Status: models.LeadNew, Amount: ptr(300000.0)},
		{Type: models.LeadSiteVisit, Status: models.LeadNew},
	}
	for i, l := range leads {
		l.PropertyID = uuid.New()
		l.CustomerID = customer
		l.FranchiseID = franchise
		l.AssignedAgentID = &agent
		l.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(ctx, l))
	}
	other := &models.Lead{PropertyID: uuid.New(), Type: models.LeadBooking, Status: models.LeadCompleted, Amount: ptr(99.0), CustomerID: uuid.New(), FranchiseID: uuid.New()}
	require.NoError(t, repo.Create(ctx, other))

	scope := repository.LeadScope{FranchiseID: &franchise}

	total, err := repo.SumCompletedBookingAmount(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, 1250000.0, total)

	count, err := repo.Count(ctx, repository.LeadScope{CustomerID: &customer})
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	completed, err := repo.CountCompletedBookings(ctx, repository.LeadScope{AgentID: &agent})
	require.NoError(t, err)
	assert.Equal(t, int64(2), completed)

	recent, err := repo.List(ctx, scope, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, leads[3].ID, recent[0].ID)
	assert.Equal(t, leads[2].ID, recent[1].ID)

	empty, err := repo.SumCompletedBookingAmount(ctx, repository.LeadScope{FranchiseID: ptr(uuid.New())})
	require.NoError(t, err)
	assert.Zero(t, empty)
}

func TestLeadRepository_ListBreaksTimestampTiesByInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewLeadRepository(testutil.NewDB(t))
	franchise := uuid.New()

	same := time.Now().Add(-time.Minute).Truncate(time.Second)
	var inserted []uuid.UUID
	for i := 0; i < 5; i++ {
		l := &models.Lead{PropertyID: uuid.New(), Type: models.LeadSiteVisit, CustomerID: uuid.New(), FranchiseID: franchise, CreatedAt: same}
		require.NoError(t, repo.Create(ctx, l))
		assert.Equal(t, uuid.Version(7), l.ID.Version())
		inserted = append(inserted, l.ID)
	}

	got, err := repo.List(ctx, repository.LeadScope{FranchiseID: &franchise}, 10)
	require.NoError(t, err)
	require.Len(t, got, 5)
	for i, l := range got {
		assert.Equal(t, inserted[len(inserted)-1-i], l.ID, "position %d", i)
	}
}
