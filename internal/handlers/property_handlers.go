package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"property-service/internal/models"
	"property-service/internal/services"
)

// CatalogHandlers serves franchises and properties.
type CatalogHandlers struct {
	franchises *services.FranchiseService
	properties *services.PropertyService
	logger     *logrus.Entry
}

func NewCatalogHandlers(franchises *services.FranchiseService, properties *services.PropertyService, logger *logrus.Logger) *CatalogHandlers {
	return &CatalogHandlers{
		franchises: franchises,
		properties: properties,
		logger:     logger.WithField("component", "catalog_handlers"),
	}
}

func (h *CatalogHandlers) CreateFranchise(c *gin.Context) {
	actor, ok := currentActor(c, h.logger)
	if !ok {
		return
	}
	var req services.CreateFranchiseRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	franchise, err := h.franchises.Create(c.Request.Context(), actor, req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, franchise)
}

func (h *CatalogHandlers) CreateProperty(c *gin.Context) {
	actor, ok := currentActor(c, h.logger)
	if !ok {
		return
	}
	var req services.CreatePropertyRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	property, err := h.properties.Create(c.Request.Context(), actor, req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, property)
}

// ListProperties is public. Supports city, type and max_price query filters.
func (h *CatalogHandlers) ListProperties(c *gin.Context) {
	filter := models.PropertyFilter{
		City:         c.Query("city"),
		PropertyType: c.Query("type"),
	}
	if raw := c.Query("max_price"); raw != "" {
		maxPrice, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			ErrorResponse(c, h.logger, http.StatusBadRequest, "INVALID_QUERY", "max_price must be a number", err)
			return
		}
		filter.MaxPrice = &maxPrice
	}

	properties, err := h.properties.List(c.Request.Context(), filter)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, properties)
}

func (h *CatalogHandlers) GetProperty(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}

	property, err := h.properties.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, property)
}

func (h *CatalogHandlers) UpdateProperty(c *gin.Context) {
	actor, ok := currentActor(c, h.logger)
	if !ok {
		return
	}
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}
	var req services.UpdatePropertyRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	property, err := h.properties.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, property)
}

func (h *CatalogHandlers) DeleteProperty(c *gin.Context) {
	actor, ok := currentActor(c, h.logger)
	if !ok {
		return
	}
	id, ok := parseID(c, h.logger, "id")
	if !ok {
		return
	}

	if err := h.properties.Delete(c.Request.Context(), actor, id); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
