package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"property-service/internal/models"
)

type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead *models.Lead) error {
	if err := r.db.WithContext(ctx).Create(lead).Error; err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}
	return nil
}

func (r *LeadRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	var lead models.Lead
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&lead).Error; err != nil {
		return nil, translate(err)
	}
	return &lead, nil
}

// CompleteBooking moves a lead to completed only if it is still in one of from.
// It returns false when no row matched, i.e. the lead already left those states.
func (r *LeadRepository) CompleteBooking(ctx context.Context, id uuid.UUID, orderID, paymentID string, from []models.LeadStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Lead{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]interface{}{
			"status":              models.LeadCompleted,
			"razorpay_order_id":   orderID,
			"razorpay_payment_id": paymentID,
			"updated_at":          time.Now().UTC(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to complete booking: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// LeadScope selects the leads a dashboard aggregates over.
type LeadScope struct {
	CustomerID  *uuid.UUID
	AgentID     *uuid.UUID
	FranchiseID *uuid.UUID
}

func (s LeadScope) apply(q *gorm.DB) *gorm.DB {
	if s.CustomerID != nil {
		q = q.Where("customer_id = ?", *s.CustomerID)
	}
	if s.AgentID != nil {
		q = q.Where("assigned_agent_id = ?", *s.AgentID)
	}
	if s.FranchiseID != nil {
		q = q.Where("franchise_id = ?", *s.FranchiseID)
	}
	return q
}

func (r *LeadRepository) Count(ctx context.Context, scope LeadScope) (int64, error) {
	var count int64
	q := scope.apply(r.db.WithContext(ctx).Model(&models.Lead{}))
	if err := q.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count leads: %w", err)
	}
	return count, nil
}

func (r *LeadRepository) CountCompletedBookings(ctx context.Context, scope LeadScope) (int64, error) {
	var count int64
	q := scope.apply(r.db.WithContext(ctx).Model(&models.Lead{})).
		Where("type = ? AND status = ?", models.LeadBooking, models.LeadCompleted)
	if err := q.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count completed bookings: %w", err)
	}
	return count, nil
}

func (r *LeadRepository) SumCompletedBookingAmount(ctx context.Context, scope LeadScope) (float64, error) {
	var total float64
	q := scope.apply(r.db.WithContext(ctx).Model(&models.Lead{})).
		Select("COALESCE(SUM(amount), 0)").
		Where("type = ? AND status = ?", models.LeadBooking, models.LeadCompleted)
	if err := q.Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to sum booking amounts: %w", err)
	}
	return total, nil
}

// List returns the newest leads first. Lead ids are v7 UUIDs, so id breaks
// created_at ties in insertion order.
func (r *LeadRepository) List(ctx context.Context, scope LeadScope, limit int) ([]models.Lead, error) {
	var leads []models.Lead
	q := scope.apply(r.db.WithContext(ctx)).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit)
	if err := q.Find(&leads).Error; err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	return leads, nil
}
