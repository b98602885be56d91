package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PropertyStatus string

const (
	PropertyAvailable PropertyStatus = "available"
	PropertyBooked    PropertyStatus = "booked"
	PropertySold      PropertyStatus = "sold"
)

func (s PropertyStatus) Valid() bool {
	return s == PropertyAvailable || s == PropertyBooked || s == PropertySold
}

type Property struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title           string         `gorm:"type:varchar(255);not null" json:"title"`
	Description     string         `gorm:"type:text" json:"description"`
	City            string         `gorm:"type:varchar(128);not null;index" json:"city"`
	Price           float64        `gorm:"not null;index" json:"price"`
	PropertyType    string         `gorm:"type:varchar(64);not null;index" json:"property_type"`
	Status          PropertyStatus `gorm:"type:varchar(16);not null;default:available;index" json:"status"`
	FranchiseID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"franchise_id"`
	AssignedAgentID *uuid.UUID     `gorm:"type:uuid;index" json:"assigned_agent_id"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = PropertyAvailable
	}
	return nil
}

// PropertyFilter narrows a property listing. Zero values are ignored.
type PropertyFilter struct {
	City         string
	PropertyType string
	MaxPrice     *float64
	Limit        int
}
