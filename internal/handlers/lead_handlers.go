package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"property-service/internal/services"
)

type LeadHandlers struct {
	leads  *services.LeadService
	logger *logrus.Entry
}

func NewLeadHandlers(leads *services.LeadService, logger *logrus.Logger) *LeadHandlers {
	return &LeadHandlers{
		leads:  leads,
		logger: logger.WithField("component", "lead_handlers"),
	}
}

func (h *LeadHandlers) CreateLead(c *gin.Context) {
	actor, ok := currentActor(c, h.logger)
	if !ok {
		return
	}
	var req services.CreateLeadRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	lead, err := h.leads.CreateLead(c.Request.Context(), actor, req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, lead)
}

// CreateBookingOrder opens a gateway order and records a pending booking lead.
func (h *LeadHandlers) CreateBookingOrder(c *gin.Context) {
	actor, ok := currentActor(c, h.logger)
	if !ok {
		return
	}
	var req services.BookingOrderRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	order, err := h.leads.CreateBookingOrder(c.Request.Context(), actor, req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *LeadHandlers) VerifyBookingPayment(c *gin.Context) {
	actor, ok := currentActor(c, h.logger)
	if !ok {
		return
	}
	var req services.VerifyPaymentRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	if err := h.leads.VerifyBookingPayment(c.Request.Context(), actor, req); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
