package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"property-service/internal/events"
	"property-service/internal/models"
	"property-service/internal/policy"
	"property-service/internal/repository"
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	MarkVerified(ctx context.Context, id uuid.UUID) error
	ListUnverified(ctx context.Context) ([]models.User, error)
	ListByFranchise(ctx context.Context, franchiseID uuid.UUID) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
}

type FranchiseStore interface {
	Create(ctx context.Context, franchise *models.Franchise) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Franchise, error)
}

type PropertyStore interface {
	Create(ctx context.Context, property *models.Property) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
	List(ctx context.Context, filter models.PropertyFilter) ([]models.Property, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*models.Property, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountByAgent(ctx context.Context, agentID uuid.UUID) (int64, error)
	StatusCounts(ctx context.Context, franchiseID uuid.UUID) (map[models.PropertyStatus]int64, error)
}

type LeadStore interface {
	Create(ctx context.Context, lead *models.Lead) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error)
	CompleteBooking(ctx context.Context, id uuid.UUID, orderID, paymentID string, from []models.LeadStatus) (bool, error)
	Count(ctx context.Context, scope repository.LeadScope) (int64, error)
	CountCompletedBookings(ctx context.Context, scope repository.LeadScope) (int64, error)
	SumCompletedBookingAmount(ctx context.Context, scope repository.LeadScope) (float64, error)
	List(ctx context.Context, scope repository.LeadScope, limit int) ([]models.Lead, error)
}

// authorize turns a policy denial into a ForbiddenError.
func authorize(actor *models.User, action policy.Action, res policy.Resource) error {
	if actor == nil {
		return NewForbiddenError("authentication required")
	}
	if d := policy.Authorize(policy.ActorFromUser(actor), action, res); !d.Allowed {
		return NewForbiddenError(d.Reason)
	}
	return nil
}

// ownedBy scopes a resource to the actor; a nil actor yields an empty resource.
func ownedBy(actor *models.User) policy.Resource {
	if actor == nil {
		return policy.Resource{}
	}
	return policy.Resource{OwnerID: &actor.ID}
}

// notFound maps the repository sentinel onto the service error.
func notFound(err error, resource string, id uuid.UUID) error {
	if errors.Is(err, repository.ErrNotFound) {
		return NewNotFoundError(resource, id.String())
	}
	return err
}

// publish is best effort: a broker outage never fails the request.
func publish(ctx context.Context, publisher events.Publisher, logger *logrus.Entry, event *events.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.WithError(err).WithField("event_type", event.EventType).Warn("Failed to publish event")
	}
}
