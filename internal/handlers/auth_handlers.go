package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"property-service/internal/middleware"
	"property-service/internal/services"
)

type AuthHandlers struct {
	authService *services.AuthService
	lockout     *middleware.LoginLockout
	logger      *logrus.Entry
}

// NewAuthHandlers wires the auth endpoints; lockout may be nil.
func NewAuthHandlers(authService *services.AuthService, lockout *middleware.LoginLockout, logger *logrus.Logger) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		lockout:     lockout,
		logger:      logger.WithField("component", "auth_handlers"),
	}
}

// Register creates a pending account; an admin must verify it before login.
func (h *AuthHandlers) Register(c *gin.Context) {
	var req services.RegisterRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *AuthHandlers) Login(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) && h.lockout != nil {
			_, lockedUntil := h.lockout.RecordFailedLogin(c.Request.Context(), c.ClientIP(), req.Email)
			if lockedUntil.After(time.Now()) {
				c.Header("X-Account-Locked-Until", lockedUntil.UTC().Format(http.TimeFormat))
			}
		}
		handleServiceError(c, h.logger, err)
		return
	}

	if h.lockout != nil {
		h.lockout.RecordSuccessfulLogin(c.Request.Context(), c.ClientIP(), req.Email)
	}
	c.JSON(http.StatusOK, resp)
}

// Me returns the caller's public profile.
func (h *AuthHandlers) Me(c *gin.Context) {
	actor, ok := currentActor(c, h.logger)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, actor.Public())
}
