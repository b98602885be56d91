package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"property-service/internal/events"
	"property-service/internal/metrics"
	"property-service/internal/models"
	"property-service/internal/payment"
	"property-service/internal/policy"
)

type CreateLeadRequest struct {
	PropertyID uuid.UUID       `json:"property_id" binding:"required"`
	Type       models.LeadType `json:"type" binding:"required"`
	Message    *string         `json:"message"`
	Amount     *float64        `json:"amount"`
}

type BookingOrderRequest struct {
	PropertyID uuid.UUID `json:"property_id" binding:"required"`
	Amount     float64   `json:"amount" binding:"required"`
}

type BookingOrderResponse struct {
	OrderID     string    `json:"order_id"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	RazorpayKey string    `json:"razorpay_key"`
	LeadID      uuid.UUID `json:"lead_id"`
}

type VerifyPaymentRequest struct {
	LeadID            uuid.UUID `json:"lead_id" binding:"required"`
	RazorpayOrderID   string    `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string    `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string    `json:"razorpay_signature" binding:"required"`
}

// LeadService owns the lead lifecycle: creation, booking orders and payment verification.
type LeadService struct {
	leads      LeadStore
	properties PropertyStore
	gateway    payment.Gateway
	currency   string
	events     events.Publisher
	logger     *logrus.Entry
	now        func() time.Time
}

func NewLeadService(leads LeadStore, properties PropertyStore, gateway payment.Gateway, currency string, publisher events.Publisher, logger *logrus.Logger) *LeadService {
	if currency == "" {
		currency = "INR"
	}
	return &LeadService{
		leads:      leads,
		properties: properties,
		gateway:    gateway,
		currency:   currency,
		events:     publisher,
		logger:     logger.WithField("component", "leads"),
		now:        time.Now,
	}
}

// CreateLead records a customer inquiry, snapshotting the property's franchise and agent.
func (s *LeadService) CreateLead(ctx context.Context, actor *models.User, req CreateLeadRequest) (*models.Lead, error) {
	if err := authorize(actor, policy.ActionCreateLead, policy.Resource{}); err != nil {
		return nil, err
	}

	if !req.Type.Valid() {
		return nil, NewValidationError("type", "must be one of site_visit, loan, booking")
	}
	if req.Amount != nil && !(*req.Amount >= 0 && *req.Amount <= payment.MaxAmount) {
		return nil, NewValidationError("amount", fmt.Sprintf("must be between 0 and %.0f", payment.MaxAmount))
	}

	property, err := s.properties.GetByID(ctx, req.PropertyID)
	if err != nil {
		return nil, notFound(err, "property", req.PropertyID)
	}

	var message *string
	if req.Message != nil && strings.TrimSpace(*req.Message) != "" {
		message = req.Message
	}

	lead := s.snapshot(actor, property)
	lead.Type = req.Type
	lead.Message = message
	lead.Amount = req.Amount

	if err := s.leads.Create(ctx, lead); err != nil {
		return nil, err
	}

	metrics.RecordLeadCreated(string(lead.Type))
	publish(ctx, s.events, s.logger, &events.Event{
		EventType: events.EventLeadCreated,
		EntityID:  lead.ID.String(),
		ActorID:   actor.ID.String(),
		Data: map[string]interface{}{
			"type":         lead.Type,
			"property_id":  lead.PropertyID.String(),
			"franchise_id": lead.FranchiseID.String(),
		},
	})
	return lead, nil
}

// CreateBookingOrder opens a gateway order and records the pending booking lead.
// The order is created before the lead is stored; if the insert fails the order
// is orphaned at the gateway and logged.
func (s *LeadService) CreateBookingOrder(ctx context.Context, actor *models.User, req BookingOrderRequest) (*BookingOrderResponse, error) {
	if err := authorize(actor, policy.ActionCreateBookingOrder, policy.Resource{}); err != nil {
		return nil, err
	}

	if req.Amount <= 0 {
		return nil, NewValidationError("amount", "must be greater than zero")
	}
	if !(req.Amount <= payment.MaxAmount) {
		return nil, NewValidationError("amount", fmt.Sprintf("must not exceed %.0f", payment.MaxAmount))
	}

	property, err := s.properties.GetByID(ctx, req.PropertyID)
	if err != nil {
		return nil, notFound(err, "property", req.PropertyID)
	}

	order, err := s.gateway.CreateOrder(ctx, payment.OrderRequest{
		AmountMinor: payment.ToMinorUnits(req.Amount),
		Currency:    s.currency,
		Receipt:     fmt.Sprintf("lead-booking-%s-%d", actor.ID, s.now().UTC().Unix()),
		Notes: map[string]string{
			"property_id": property.ID.String(),
			"customer_id": actor.ID.String(),
		},
	})
	if err != nil {
		metrics.RecordGatewayError("create_order")
		return nil, NewGatewayError("create order", err)
	}

	amount := req.Amount
	orderID := order.ID
	lead := s.snapshot(actor, property)
	lead.Type = models.LeadBooking
	lead.Amount = &amount
	lead.RazorpayOrderID = &orderID

	if err := s.leads.Create(ctx, lead); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"order_id":    order.ID,
			"customer_id": actor.ID,
		}).Error("Gateway order created but booking lead was not stored")
		return nil, err
	}

	metrics.RecordLeadCreated(string(lead.Type))
	metrics.RecordBooking(metrics.BookingOrderCreated)
	publish(ctx, s.events, s.logger, &events.Event{
		EventType: events.EventBookingOrderCreated,
		EntityID:  lead.ID.String(),
		ActorID:   actor.ID.String(),
		Data:      map[string]interface{}{"order_id": order.ID, "amount": amount},
	})

	currency := order.Currency
	if currency == "" {
		currency = s.currency
	}
	return &BookingOrderResponse{
		OrderID:     order.ID,
		Amount:      amount,
		Currency:    currency,
		RazorpayKey: s.gateway.KeyID(),
		LeadID:      lead.ID,
	}, nil
}

// VerifyBookingPayment completes a booking lead after checking the gateway signature.
// A rejected signature or a lead that already left new/in_progress changes nothing.
func (s *LeadService) VerifyBookingPayment(ctx context.Context, actor *models.User, req VerifyPaymentRequest) error {
	if err := authorize(actor, policy.ActionVerifyBookingPayment, ownedBy(actor)); err != nil {
		return err
	}

	lead, err := s.leads.GetByID(ctx, req.LeadID)
	if err != nil {
		return notFound(err, "lead", req.LeadID)
	}

	if err := authorize(actor, policy.ActionVerifyBookingPayment, policy.LeadResource(lead)); err != nil {
		return err
	}

	if lead.Type != models.LeadBooking {
		return NewValidationError("lead_id", "lead is not a booking")
	}
	if lead.RazorpayOrderID == nil {
		return NewValidationError("lead_id", "booking has no payment order")
	}
	if *lead.RazorpayOrderID != req.RazorpayOrderID {
		return NewValidationError("razorpay_order_id", "does not match the booking order")
	}
	if !lead.Status.CanTransitionTo(models.LeadCompleted) {
		metrics.RecordBooking(metrics.BookingAlreadyClosed)
		if lead.Status.IsTerminal() {
			return NewConflictError("lead", fmt.Sprintf("lead is already %s", lead.Status))
		}
		return NewConflictError("lead", fmt.Sprintf("cannot complete a %s lead", lead.Status))
	}

	if !s.gateway.VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		metrics.RecordBooking(metrics.BookingBadSignature)
		s.logger.WithFields(logrus.Fields{"lead_id": lead.ID, "order_id": req.RazorpayOrderID}).Warn("Payment signature rejected")
		return NewValidationError("razorpay_signature", "payment signature verification failed")
	}

	completed, err := s.leads.CompleteBooking(ctx, lead.ID, req.RazorpayOrderID, req.RazorpayPaymentID, models.SourcesOf(models.LeadCompleted))
	if err != nil {
		return err
	}
	if !completed {
		metrics.RecordBooking(metrics.BookingAlreadyClosed)
		return NewConflictError("lead", "booking was already completed")
	}

	metrics.RecordBooking(metrics.BookingCompleted)
	s.logger.WithFields(logrus.Fields{"lead_id": lead.ID, "payment_id": req.RazorpayPaymentID}).Info("Booking completed")
	publish(ctx, s.events, s.logger, &events.Event{
		EventType: events.EventBookingCompleted,
		EntityID:  lead.ID.String(),
		ActorID:   actor.ID.String(),
		Data: map[string]interface{}{
			"order_id":     req.RazorpayOrderID,
			"payment_id":   req.RazorpayPaymentID,
			"franchise_id": lead.FranchiseID.String(),
		},
	})
	return nil
}

func (s *LeadService) snapshot(actor *models.User, property *models.Property) *models.Lead {
	var agent *uuid.UUID
	if property.AssignedAgentID != nil {
		id := *property.AssignedAgentID
		agent = &id
	}
	return &models.Lead{
		PropertyID:      property.ID,
		CustomerID:      actor.ID,
		AssignedAgentID: agent,
		FranchiseID:     property.FranchiseID,
		Status:          models.LeadNew,
	}
}
