package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-service/internal/models"
)

func validProperty() CreatePropertyRequest {
	return CreatePropertyRequest{
		Title:        "Lake view",
		Description:  "3BHK near the lake",
		City:         "Hyderabad",
		Price:        7500000,
		PropertyType: "apartment",
	}
}

func TestPropertyService_CreateRoles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	franchiseID := f.newFranchise(t)

	for _, role := range models.AllRoles {
		actor := f.user(t, role, &franchiseID)
		p, err := f.property.Create(ctx, actor, validProperty())

		if role == models.RoleAgent || role == models.RoleFranchiseOwner {
			require.NoError(t, err, role)
			assert.Equal(t, franchiseID, p.FranchiseID)
			assert.Equal(t, models.PropertyAvailable, p.Status)
		} else {
			_, ok := IsForbiddenError(err)
			assert.True(t, ok, "role %s must not create properties", role)
		}
	}
}

func TestPropertyService_CreateWithoutFranchise(t *testing.T) {
	f := newFixture(t)
	agent := f.user(t, models.RoleAgent, nil)

	_, err := f.property.Create(context.Background(), agent, validProperty())
	forbidden, ok := IsForbiddenError(err)
	require.True(t, ok)
	assert.Equal(t, "user is not linked to a franchise", forbidden.Reason)
}

func TestPropertyService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	franchiseID := f.newFranchise(t)
	owner := f.user(t, models.RoleFranchiseOwner, &franchiseID)

	req := validProperty()
	req.Price = -1
	_, err := f.property.Create(context.Background(), owner, req)
	_, ok := IsValidationError(err)
	assert.True(t, ok)

	req = validProperty()
	req.City = "  "
	_, err = f.property.Create(context.Background(), owner, req)
	_, ok = IsValidationError(err)
	assert.True(t, ok)
}

func TestPropertyService_UpdateOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	franchiseID := f.newFranchise(t)
	otherFranchise := f.newFranchise(t)

	agent := f.user(t, models.RoleAgent, &franchiseID)
	otherAgent := f.user(t, models.RoleAgent, &franchiseID)
	owner := f.user(t, models.RoleFranchiseOwner, &franchiseID)
	foreignOwner := f.user(t, models.RoleFranchiseOwner, &otherFranchise)
	superAdmin := f.user(t, models.RoleSuperAdmin, nil)

	property := f.newProperty(t, franchiseID, &agent.ID)

	updated, err := f.property.Update(ctx, agent, property.ID, UpdatePropertyRequest{Price: ptr(6000000.0)})
	require.NoError(t, err)
	assert.Equal(t, 6000000.0, updated.Price)
	assert.Equal(t, property.Title, updated.Title)

	updated, err = f.property.Update(ctx, owner, property.ID, UpdatePropertyRequest{Status: ptr(models.PropertyBooked)})
	require.NoError(t, err)
	assert.Equal(t, models.PropertyBooked, updated.Status)

	for _, actor := range []*models.User{otherAgent, foreignOwner, superAdmin} {
		_, err := f.property.Update(ctx, actor, property.ID, UpdatePropertyRequest{Price: ptr(1.0)})
		_, ok := IsForbiddenError(err)
		assert.True(t, ok, "%s should be denied", actor.Role)
	}

	_, err = f.property.Update(ctx, owner, property.ID, UpdatePropertyRequest{Status: ptr(models.PropertyStatus("demolished"))})
	_, ok := IsValidationError(err)
	assert.True(t, ok)

	_, err = f.property.Update(ctx, owner, uuid.New(), UpdatePropertyRequest{Price: ptr(1.0)})
	_, ok = IsNotFoundError(err)
	assert.True(t, ok)
}

func TestPropertyService_UnassignAgent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	franchiseID := f.newFranchise(t)

	agent := f.user(t, models.RoleAgent, &franchiseID)
	otherAgent := f.user(t, models.RoleAgent, &franchiseID)
	owner := f.user(t, models.RoleFranchiseOwner, &franchiseID)
	property := f.newProperty(t, franchiseID, &agent.ID)

	_, err := f.property.Update(ctx, owner, property.ID, UpdatePropertyRequest{AssignedAgentID: &otherAgent.ID, UnassignAgent: true})
	validation, ok := IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "unassign_agent", validation.Field)

	updated, err := f.property.Update(ctx, owner, property.ID, UpdatePropertyRequest{UnassignAgent: true})
	require.NoError(t, err)
	assert.Nil(t, updated.AssignedAgentID)

	stored, err := f.property.Get(ctx, property.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.AssignedAgentID)
	assert.Equal(t, property.Title, stored.Title)

	// the former assignee loses edit rights once unassigned
	_, err = f.property.Update(ctx, agent, property.ID, UpdatePropertyRequest{Price: ptr(1.0)})
	_, ok = IsForbiddenError(err)
	assert.True(t, ok)

	updated, err = f.property.Update(ctx, owner, property.ID, UpdatePropertyRequest{AssignedAgentID: &otherAgent.ID})
	require.NoError(t, err)
	require.NotNil(t, updated.AssignedAgentID)
	assert.Equal(t, otherAgent.ID, *updated.AssignedAgentID)
}

func TestPropertyService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	franchiseID := f.newFranchise(t)
	otherFranchise := f.newFranchise(t)

	agent := f.user(t, models.RoleAgent, &franchiseID)
	owner := f.user(t, models.RoleFranchiseOwner, &franchiseID)
	foreignOwner := f.user(t, models.RoleFranchiseOwner, &otherFranchise)

	property := f.newProperty(t, franchiseID, &agent.ID)

	for _, actor := range []*models.User{agent, foreignOwner} {
		err := f.property.Delete(ctx, actor, property.ID)
		_, ok := IsForbiddenError(err)
		assert.True(t, ok)
	}

	require.NoError(t, f.property.Delete(ctx, owner, property.ID))

	_, err := f.property.Get(ctx, property.ID)
	_, ok := IsNotFoundError(err)
	assert.True(t, ok)
}

func TestPropertyService_ListEmpty(t *testing.T) {
	f := newFixture(t)

	list, err := f.property.List(context.Background(), models.PropertyFilter{City: "nowhere"})
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestFranchiseService_Create(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	superAdmin := f.user(t, models.RoleSuperAdmin, nil)
	owner := f.user(t, models.RoleFranchiseOwner, nil)

	fr, err := f.franchise.Create(ctx, superAdmin, CreateFranchiseRequest{Name: "West", City: "Mumbai", OwnerUserID: &owner.ID})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, fr.ID)

	_, err = f.franchise.Create(ctx, owner, CreateFranchiseRequest{Name: "East", City: "Kolkata"})
	_, ok := IsForbiddenError(err)
	assert.True(t, ok)

	missing := uuid.New()
	_, err = f.franchise.Create(ctx, superAdmin, CreateFranchiseRequest{Name: "South", City: "Chennai", OwnerUserID: &missing})
	_, ok = IsNotFoundError(err)
	assert.True(t, ok)
}
