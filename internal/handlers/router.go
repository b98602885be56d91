package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"property-service/internal/health"
	"property-service/internal/metrics"
	"property-service/internal/middleware"
	"property-service/internal/services"
)

// RouterDeps carries everything the HTTP surface needs. Lockout, AuthRateLimit and Health may be nil.
type RouterDeps struct {
	Auth          *services.AuthService
	Franchises    *services.FranchiseService
	Properties    *services.PropertyService
	Leads         *services.LeadService
	Dashboards    *services.DashboardService
	Lockout       *middleware.LoginLockout
	AuthRateLimit *middleware.IPRateLimiter
	Health        *health.HealthChecker
	CORSOrigins   []string
	Logger        *logrus.Logger
}

func SetupRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger(deps.Logger))
	router.Use(middleware.CORS(deps.CORSOrigins))
	router.Use(metrics.Middleware())

	if deps.Health != nil {
		router.GET("/health", deps.Health.HealthHandler)
		router.GET("/ready", deps.Health.ReadyHandler)
	}
	router.GET("/metrics", metrics.Handler())

	authHandlers := NewAuthHandlers(deps.Auth, deps.Lockout, deps.Logger)
	catalogHandlers := NewCatalogHandlers(deps.Franchises, deps.Properties, deps.Logger)
	leadHandlers := NewLeadHandlers(deps.Leads, deps.Logger)
	dashboardHandlers := NewDashboardHandlers(deps.Dashboards, deps.Logger)
	adminHandlers := NewAdminHandlers(deps.Auth, deps.Logger)
	authMiddleware := middleware.NewAuthMiddleware(deps.Auth)

	api := router.Group("/api")
	{
		api.GET("/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "Property Marketplace API"})
		})

		auth := api.Group("/auth")
		{
			var register, login []gin.HandlerFunc
			if deps.AuthRateLimit != nil {
				register = append(register, deps.AuthRateLimit.Middleware())
				login = append(login, deps.AuthRateLimit.Middleware())
			}
			if deps.Lockout != nil {
				login = append(login, deps.Lockout.Middleware())
			}

			auth.POST("/register", append(register, authHandlers.Register)...)
			auth.POST("/login", append(login, authHandlers.Login)...)
			auth.GET("/me", authMiddleware.AuthRequired(), authHandlers.Me)
		}

		api.GET("/properties", catalogHandlers.ListProperties)
		api.GET("/properties/:id", catalogHandlers.GetProperty)

		protected := api.Group("")
		protected.Use(authMiddleware.AuthRequired())
		{
			protected.POST("/franchises", catalogHandlers.CreateFranchise)

			protected.POST("/properties", catalogHandlers.CreateProperty)
			protected.PUT("/properties/:id", catalogHandlers.UpdateProperty)
			protected.DELETE("/properties/:id", catalogHandlers.DeleteProperty)

			protected.POST("/leads", leadHandlers.CreateLead)
			protected.POST("/leads/booking/create-order", leadHandlers.CreateBookingOrder)
			protected.POST("/leads/booking/verify", leadHandlers.VerifyBookingPayment)

			dashboard := protected.Group("/dashboard")
			{
				dashboard.GET("/customer", dashboardHandlers.Customer)
				dashboard.GET("/agent", dashboardHandlers.Agent)
				dashboard.GET("/franchise", dashboardHandlers.Franchise)
				dashboard.GET("/admin", dashboardHandlers.Admin)
				dashboard.GET("/super-admin", dashboardHandlers.SuperAdmin)
				dashboard.GET("/user", dashboardHandlers.User)
			}

			superAdmin := protected.Group("/super-admin")
			{
				superAdmin.GET("/pending-users", adminHandlers.PendingUsers)
				superAdmin.POST("/users", adminHandlers.CreateUser)
				superAdmin.POST("/users/:id/verify", adminHandlers.VerifyUser)
			}
		}
	}

	return router
}
