package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LeadType string

const (
	LeadSiteVisit LeadType = "site_visit"
	LeadLoan      LeadType = "loan"
	LeadBooking   LeadType = "booking"
)

func (t LeadType) Valid() bool {
	return t == LeadSiteVisit || t == LeadLoan || t == LeadBooking
}

type LeadStatus string

const (
	LeadNew        LeadStatus = "new"
	LeadInProgress LeadStatus = "in_progress"
	LeadCompleted  LeadStatus = "completed"
	LeadCancelled  LeadStatus = "cancelled"
)

// leadTransitions enumerates every allowed status change.
var leadTransitions = map[LeadStatus][]LeadStatus{
	LeadNew:        {LeadInProgress, LeadCompleted, LeadCancelled},
	LeadInProgress: {LeadCompleted, LeadCancelled},
	LeadCompleted:  nil,
	LeadCancelled:  nil,
}

func (s LeadStatus) Valid() bool {
	_, ok := leadTransitions[s]
	return ok
}

// IsTerminal reports whether no transition leaves s.
func (s LeadStatus) IsTerminal() bool {
	return s.Valid() && len(leadTransitions[s]) == 0
}

// CanTransitionTo is the guard for the lead state machine.
func (s LeadStatus) CanTransitionTo(next LeadStatus) bool {
	for _, allowed := range leadTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SourcesOf returns the statuses that may move to target.
func SourcesOf(target LeadStatus) []LeadStatus {
	var from []LeadStatus
	for _, s := range []LeadStatus{LeadNew, LeadInProgress, LeadCompleted, LeadCancelled} {
		if s.CanTransitionTo(target) {
			from = append(from, s)
		}
	}
	return from
}

type Lead struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PropertyID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"property_id"`
	Type              LeadType   `gorm:"type:varchar(16);not null;index" json:"type"`
	Message           *string    `gorm:"type:text" json:"message"`
	CustomerID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"customer_id"`
	AssignedAgentID   *uuid.UUID `gorm:"type:uuid;index" json:"assigned_agent_id"`
	FranchiseID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"franchise_id"`
	Status            LeadStatus `gorm:"type:varchar(16);not null;default:new;index" json:"status"`
	Amount            *float64   `json:"amount"`
	RazorpayOrderID   *string    `gorm:"type:varchar(64);index" json:"razorpay_order_id"`
	RazorpayPaymentID *string    `gorm:"type:varchar(64)" json:"razorpay_payment_id"`
	CreatedAt         time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// BeforeCreate assigns a time-ordered v7 id so id order follows insertion order.
func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		l.ID = id
	}
	if l.Status == "" {
		l.Status = LeadNew
	}
	return nil
}
