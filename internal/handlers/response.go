package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"property-service/internal/middleware"
	"property-service/internal/models"
	"property-service/internal/services"
)

// ErrorResponse sends the standard error envelope.
// Internal errors are logged but not exposed to clients.
func ErrorResponse(c *gin.Context, logger *logrus.Entry, statusCode int, code, message string, err error) {
	requestID := getRequestID(c)

	if err != nil && statusCode >= http.StatusInternalServerError {
		logger.WithError(err).WithField("request_id", requestID).Error(message)
	}

	response := gin.H{
		"success":    false,
		"message":    message,
		"code":       code,
		"request_id": requestID,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}
	if err != nil && (statusCode < http.StatusInternalServerError || gin.Mode() == gin.DebugMode) {
		response["error"] = err.Error()
	}

	c.JSON(statusCode, response)
}

// handleServiceError maps typed service errors onto HTTP statuses.
func handleServiceError(c *gin.Context, logger *logrus.Entry, err error) {
	if ve, ok := services.IsValidationError(err); ok {
		ErrorResponse(c, logger, http.StatusBadRequest, "VALIDATION_ERROR", ve.Message, err)
		return
	}
	if fe, ok := services.IsForbiddenError(err); ok {
		ErrorResponse(c, logger, http.StatusForbidden, "FORBIDDEN", fe.Reason, err)
		return
	}
	if nf, ok := services.IsNotFoundError(err); ok {
		ErrorResponse(c, logger, http.StatusNotFound, "NOT_FOUND", nf.Error(), err)
		return
	}
	if ce, ok := services.IsConflictError(err); ok {
		ErrorResponse(c, logger, http.StatusConflict, "CONFLICT", ce.Message, err)
		return
	}
	if _, ok := services.IsGatewayError(err); ok {
		ErrorResponse(c, logger, http.StatusBadGateway, "PAYMENT_GATEWAY_ERROR", "Payment gateway unavailable", err)
		return
	}
	if errors.Is(err, services.ErrInvalidCredentials) {
		ErrorResponse(c, logger, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Incorrect email or password", err)
		return
	}
	ErrorResponse(c, logger, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", err)
}

func bindJSON(c *gin.Context, logger *logrus.Entry, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		ErrorResponse(c, logger, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request payload", err)
		return false
	}
	return true
}

func currentActor(c *gin.Context, logger *logrus.Entry) (*models.User, bool) {
	actor := middleware.GetActor(c)
	if actor == nil {
		ErrorResponse(c, logger, http.StatusUnauthorized, "MISSING_TOKEN", "Authorization token required", nil)
		return nil, false
	}
	return actor, true
}

func parseID(c *gin.Context, logger *logrus.Entry, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		ErrorResponse(c, logger, http.StatusBadRequest, "INVALID_ID", "Invalid "+param+" format", err)
		return uuid.Nil, false
	}
	return id, true
}

func getRequestID(c *gin.Context) string {
	if requestID, exists := c.Get("request_id"); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return c.GetHeader("X-Request-ID")
}
