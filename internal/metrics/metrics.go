package metrics

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "property_service_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "property_service_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	leadsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "property_service_leads_created_total",
			Help: "Total number of leads created",
		},
		[]string{"type"},
	)

	bookings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "property_service_bookings_total",
			Help: "Booking order and verification outcomes",
		},
		[]string{"outcome"},
	)

	gatewayErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "property_service_gateway_errors_total",
			Help: "Payment gateway failures",
		},
		[]string{"operation"},
	)

	loginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "property_service_login_attempts_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"},
	)

	dbConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "property_service_db_connection_status",
		Help: "Database connection status (1 = connected, 0 = disconnected)",
	})
)

// Booking outcomes
const (
	BookingOrderCreated  = "order_created"
	BookingCompleted     = "completed"
	BookingBadSignature  = "invalid_signature"
	BookingAlreadyClosed = "already_closed"
)

// Login outcomes
const (
	LoginSuccess            = "success"
	LoginInvalidCredentials = "invalid_credentials"
	LoginPendingApproval    = "pending_approval"
	LoginLocked             = "locked"
)

func RecordLeadCreated(leadType string) {
	leadsCreated.WithLabelValues(leadType).Inc()
}

func RecordBooking(outcome string) {
	bookings.WithLabelValues(outcome).Inc()
}

func RecordGatewayError(operation string) {
	gatewayErrors.WithLabelValues(operation).Inc()
}

func RecordLogin(outcome string) {
	loginAttempts.WithLabelValues(outcome).Inc()
}

func SetDBConnected(connected bool) {
	if connected {
		dbConnectionStatus.Set(1)
		return
	}
	dbConnectionStatus.Set(0)
}

// Handler exposes the Prometheus registry.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// Middleware records HTTP request metrics
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		if path == "/metrics" || path == "/health" || path == "/ready" {
			return
		}

		statusStr := http.StatusText(c.Writer.Status())
		if statusStr == "" {
			statusStr = "unknown"
		}

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, statusStr).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
