package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"property-service/internal/services"
)

// AdminHandlers serves the super admin account approval endpoints.
type AdminHandlers struct {
	authService *services.AuthService
	logger      *logrus.Entry
}

func NewAdminHandlers(authService *services.AuthService, logger *logrus.Logger) *AdminHandlers {
	return &AdminHandlers{
		authService: authService,
		logger:      logger.WithField("component", "admin_handlers"),
	}
}

func (h *AdminHandlers) PendingUsers(c *gin.Context) {
	actor, ok := currentActor(c, h.logger)
	if !ok {
		return
	}

	users, err := h.authService.ListPendingUsers(c.Request.Context(), actor)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *AdminHandlers) VerifyUser(c *gin.Context) {
	actor, ok := currentActor(c, h.logger)
	if !ok {
		return
	}
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}

	user, err := h.authService.VerifyUser(c.Request.Context(), actor, id)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AdminHandlers) CreateUser(c *gin.Context) {
	actor, ok := currentActor(c, h.logger)
	if !ok {
		return
	}
	var req services.CreateUserRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	user, err := h.authService.CreateUser(c.Request.Context(), actor, req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}
