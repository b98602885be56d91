package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"property-service/internal/metrics"
)

const pingTimeout = 2 * time.Second

// HealthChecker reports liveness and readiness of the service dependencies.
type HealthChecker struct {
	db        *gorm.DB
	redis     *redis.Client
	ready     atomic.Bool
	startTime time.Time
	version   string
}

// NewHealthChecker creates a health checker; redisClient may be nil.
func NewHealthChecker(db *gorm.DB, redisClient *redis.Client, version string) *HealthChecker {
	return &HealthChecker{
		db:        db,
		redis:     redisClient,
		startTime: time.Now(),
		version:   version,
	}
}

// SetReady marks the service as ready to receive traffic
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// CheckDatabase verifies database connectivity
func (h *HealthChecker) CheckDatabase(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		metrics.SetDBConnected(false)
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		metrics.SetDBConnected(false)
		return err
	}

	metrics.SetDBConnected(true)
	return nil
}

// CheckRedis pings Redis when it is configured.
func (h *HealthChecker) CheckRedis(ctx context.Context) error {
	if h.redis == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return h.redis.Ping(ctx).Err()
}

// HealthHandler always answers 200 while the process runs and reports dependency state.
func (h *HealthChecker) HealthHandler(c *gin.Context) {
	dbStatus := "connected"
	if err := h.CheckDatabase(c.Request.Context()); err != nil {
		dbStatus = "disconnected"
	}

	redisStatus := "disabled"
	if h.redis != nil {
		redisStatus = "connected"
		if err := h.CheckRedis(c.Request.Context()); err != nil {
			redisStatus = "disconnected"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "property-service",
		"version": h.version,
		"uptime":  time.Since(h.startTime).String(),
		"database": gin.H{
			"status": dbStatus,
		},
		"redis": gin.H{
			"status": redisStatus,
		},
	})
}

// ReadyHandler returns 200 only once the service is initialized and the database answers.
// Redis is optional: lockout falls back to process memory when it is down.
func (h *HealthChecker) ReadyHandler(c *gin.Context) {
	if !h.IsReady() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"reason": "service not initialized",
		})
		return
	}

	if err := h.CheckDatabase(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"reason": "database unavailable",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}
