package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"property-service/internal/models"
)

type FranchiseRepository struct {
	db *gorm.DB
}

func NewFranchiseRepository(db *gorm.DB) *FranchiseRepository {
	return &FranchiseRepository{db: db}
}

func (r *FranchiseRepository) Create(ctx context.Context, franchise *models.Franchise) error {
	if err := r.db.WithContext(ctx).Create(franchise).Error; err != nil {
		return fmt.Errorf("failed to create franchise: %w", err)
	}
	return nil
}

func (r *FranchiseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Franchise, error) {
	var franchise models.Franchise
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&franchise).Error; err != nil {
		return nil, translate(err)
	}
	return &franchise, nil
}
