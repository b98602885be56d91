package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"property-service/internal/events"
	"property-service/internal/models"
	"property-service/internal/policy"
)

type CreatePropertyRequest struct {
	Title           string     `json:"title" binding:"required"`
	Description     string     `json:"description"`
	City            string     `json:"city" binding:"required"`
	Price           float64    `json:"price"`
	PropertyType    string     `json:"property_type" binding:"required"`
	AssignedAgentID *uuid.UUID `json:"assigned_agent_id"`
}

// UpdatePropertyRequest is a partial update; nil fields stay unchanged.
type UpdatePropertyRequest struct {
	Title           *string                `json:"title"`
	Description     *string                `json:"description"`
	City            *string                `json:"city"`
	Price           *float64               `json:"price"`
	PropertyType    *string                `json:"property_type"`
	Status          *models.PropertyStatus `json:"status"`
	AssignedAgentID *uuid.UUID             `json:"assigned_agent_id"`
	// UnassignAgent clears the assigned agent; a JSON null cannot express it.
	UnassignAgent bool `json:"unassign_agent"`
}

type PropertyService struct {
	properties PropertyStore
	events     events.Publisher
	logger     *logrus.Entry
}

func NewPropertyService(properties PropertyStore, publisher events.Publisher, logger *logrus.Logger) *PropertyService {
	return &PropertyService{
		properties: properties,
		events:     publisher,
		logger:     logger.WithField("component", "properties"),
	}
}

// Create lists a property under the actor's franchise.
func (s *PropertyService) Create(ctx context.Context, actor *models.User, req CreatePropertyRequest) (*models.Property, error) {
	if err := authorize(actor, policy.ActionCreateProperty, policy.Resource{}); err != nil {
		return nil, err
	}

	if req.Price < 0 {
		return nil, NewValidationError("price", "must not be negative")
	}
	for field, val := range map[string]string{"title": req.Title, "city": req.City, "property_type": req.PropertyType} {
		if strings.TrimSpace(val) == "" {
			return nil, NewValidationError(field, "is required")
		}
	}

	property := &models.Property{
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		City:            strings.TrimSpace(req.City),
		Price:           req.Price,
		PropertyType:    strings.TrimSpace(req.PropertyType),
		Status:          models.PropertyAvailable,
		FranchiseID:     *actor.FranchiseID,
		AssignedAgentID: req.AssignedAgentID,
	}
	if err := s.properties.Create(ctx, property); err != nil {
		return nil, err
	}

	publish(ctx, s.events, s.logger, &events.Event{
		EventType: events.EventPropertyCreated,
		EntityID:  property.ID.String(),
		ActorID:   actor.ID.String(),
		Data:      map[string]interface{}{"franchise_id": property.FranchiseID.String(), "city": property.City},
	})
	return property, nil
}

func (s *PropertyService) List(ctx context.Context, filter models.PropertyFilter) ([]models.Property, error) {
	properties, err := s.properties.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if properties == nil {
		properties = []models.Property{}
	}
	return properties, nil
}

func (s *PropertyService) Get(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	property, err := s.properties.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "property", id)
	}
	return property, nil
}

// Update applies the set fields. Concurrent updates are last-write-wins.
func (s *PropertyService) Update(ctx context.Context, actor *models.User, id uuid.UUID, req UpdatePropertyRequest) (*models.Property, error) {
	property, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := authorize(actor, policy.ActionUpdateProperty, policy.PropertyResource(property)); err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, NewValidationError("title", "must not be empty")
		}
		fields["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.City != nil {
		if strings.TrimSpace(*req.City) == "" {
			return nil, NewValidationError("city", "must not be empty")
		}
		fields["city"] = strings.TrimSpace(*req.City)
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, NewValidationError("price", "must not be negative")
		}
		fields["price"] = *req.Price
	}
	if req.PropertyType != nil {
		fields["property_type"] = *req.PropertyType
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, NewValidationError("status", "must be one of available, booked, sold")
		}
		fields["status"] = *req.Status
	}
	if req.AssignedAgentID != nil {
		if req.UnassignAgent {
			return nil, NewValidationError("unassign_agent", "cannot be combined with assigned_agent_id")
		}
		fields["assigned_agent_id"] = *req.AssignedAgentID
	}
	if req.UnassignAgent {
		fields["assigned_agent_id"] = nil
	}

	if len(fields) == 0 {
		return property, nil
	}

	updated, err := s.properties.Update(ctx, id, fields)
	if err != nil {
		return nil, notFound(err, "property", id)
	}

	publish(ctx, s.events, s.logger, &events.Event{
		EventType: events.EventPropertyUpdated,
		EntityID:  id.String(),
		ActorID:   actor.ID.String(),
	})
	return updated, nil
}

func (s *PropertyService) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	property, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := authorize(actor, policy.ActionDeleteProperty, policy.PropertyResource(property)); err != nil {
		return err
	}

	if err := s.properties.Delete(ctx, id); err != nil {
		return notFound(err, "property", id)
	}

	s.logger.WithFields(logrus.Fields{"property_id": id, "deleted_by": actor.ID}).Info("Property deleted")
	publish(ctx, s.events, s.logger, &events.Event{
		EventType: events.EventPropertyDeleted,
		EntityID:  id.String(),
		ActorID:   actor.ID.String(),
	})
	return nil
}
