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

type CreateFranchiseRequest struct {
	Name        string     `json:"name" binding:"required"`
	City        string     `json:"city" binding:"required"`
	OwnerUserID *uuid.UUID `json:"owner_user_id"`
}

type FranchiseService struct {
	franchises FranchiseStore
	users      UserStore
	events     events.Publisher
	logger     *logrus.Entry
}

func NewFranchiseService(franchises FranchiseStore, users UserStore, publisher events.Publisher, logger *logrus.Logger) *FranchiseService {
	return &FranchiseService{
		franchises: franchises,
		users:      users,
		events:     publisher,
		logger:     logger.WithField("component", "franchises"),
	}
}

func (s *FranchiseService) Create(ctx context.Context, actor *models.User, req CreateFranchiseRequest) (*models.Franchise, error) {
	if err := authorize(actor, policy.ActionCreateFranchise, policy.Resource{}); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	city := strings.TrimSpace(req.City)
	if name == "" {
		return nil, NewValidationError("name", "is required")
	}
	if city == "" {
		return nil, NewValidationError("city", "is required")
	}

	if req.OwnerUserID != nil {
		if _, err := s.users.GetByID(ctx, *req.OwnerUserID); err != nil {
			return nil, notFound(err, "user", *req.OwnerUserID)
		}
	}

	franchise := &models.Franchise{Name: name, City: city, OwnerUserID: req.OwnerUserID}
	if err := s.franchises.Create(ctx, franchise); err != nil {
		return nil, err
	}

	s.logger.WithField("franchise_id", franchise.ID).Info("Franchise created")
	publish(ctx, s.events, s.logger, &events.Event{
		EventType: events.EventFranchiseCreated,
		EntityID:  franchise.ID.String(),
		ActorID:   actor.ID.String(),
		Data:      map[string]interface{}{"name": franchise.Name, "city": franchise.City},
	})

	return franchise, nil
}
