package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"property-service/internal/models"
	"property-service/internal/services"
)

type DashboardHandlers struct {
	dashboards *services.DashboardService
	logger     *logrus.Entry
}

func NewDashboardHandlers(dashboards *services.DashboardService, logger *logrus.Logger) *DashboardHandlers {
	return &DashboardHandlers{
		dashboards: dashboards,
		logger:     logger.WithField("component", "dashboard_handlers"),
	}
}

func (h *DashboardHandlers) Customer(c *gin.Context) {
	serveDashboard(c, h.logger, h.dashboards.Customer)
}

func (h *DashboardHandlers) Agent(c *gin.Context) {
	serveDashboard(c, h.logger, h.dashboards.Agent)
}

func (h *DashboardHandlers) Franchise(c *gin.Context) {
	serveDashboard(c, h.logger, h.dashboards.Franchise)
}

func (h *DashboardHandlers) Admin(c *gin.Context) {
	serveDashboard(c, h.logger, h.dashboards.Admin)
}

func (h *DashboardHandlers) SuperAdmin(c *gin.Context) {
	serveDashboard(c, h.logger, h.dashboards.SuperAdmin)
}

func (h *DashboardHandlers) User(c *gin.Context) {
	serveDashboard(c, h.logger, h.dashboards.User)
}

func serveDashboard[T any](c *gin.Context, logger *logrus.Entry, load func(context.Context, *models.User) (*T, error)) {
	actor, ok := currentActor(c, logger)
	if !ok {
		return
	}

	dashboard, err := load(c.Request.Context(), actor)
	if err != nil {
		handleServiceError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}
