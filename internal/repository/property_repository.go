package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"property-service/internal/models"
)

const defaultPropertyLimit = 200

type PropertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

func (r *PropertyRepository) Create(ctx context.Context, property *models.Property) error {
	if err := r.db.WithContext(ctx).Create(property).Error; err != nil {
		return fmt.Errorf("failed to create property: %w", err)
	}
	return nil
}

func (r *PropertyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	var property models.Property
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&property).Error; err != nil {
		return nil, translate(err)
	}
	return &property, nil
}

// List applies the filter; city matches case-insensitively as a substring.
func (r *PropertyRepository) List(ctx context.Context, filter models.PropertyFilter) ([]models.Property, error) {
	query := r.db.WithContext(ctx).Model(&models.Property{})

	if filter.City != "" {
		query = query.Where("LOWER(city) LIKE ?", "%"+strings.ToLower(filter.City)+"%")
	}
	if filter.PropertyType != "" {
		query = query.Where("property_type = ?", filter.PropertyType)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}

	limit := filter.Limit
	if limit <= 0 || limit > defaultPropertyLimit {
		limit = defaultPropertyLimit
	}

	var properties []models.Property
	if err := query.Order("created_at DESC").Limit(limit).Find(&properties).Error; err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return properties, nil
}

// Update writes only the given columns and returns the fresh row.
func (r *PropertyRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*models.Property, error) {
	fields["updated_at"] = time.Now().UTC()

	result := r.db.WithContext(ctx).Model(&models.Property{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update property: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *PropertyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Property{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete property: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PropertyRepository) CountByAgent(ctx context.Context, agentID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Property{}).
		Where("assigned_agent_id = ?", agentID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count agent properties: %w", err)
	}
	return count, nil
}

// StatusCounts returns the number of franchise properties per status.
func (r *PropertyRepository) StatusCounts(ctx context.Context, franchiseID uuid.UUID) (map[models.PropertyStatus]int64, error) {
	var rows []struct {
		Status models.PropertyStatus
		Total  int64
	}
	err := r.db.WithContext(ctx).Model(&models.Property{}).
		Select("status, COUNT(*) AS total").
		Where("franchise_id = ?", franchiseID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count franchise properties: %w", err)
	}

	counts := make(map[models.PropertyStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}
