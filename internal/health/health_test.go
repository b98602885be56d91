package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-service/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(h *HealthChecker) *gin.Engine {
	r := gin.New()
	r.GET("/health", h.HealthHandler)
	r.GET("/ready", h.ReadyHandler)
	return r
}

func get(t *testing.T, r *gin.Engine, path string) (int, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestReadyHandler(t *testing.T) {
	h := NewHealthChecker(testutil.NewDB(t), nil, "test")
	r := newRouter(h)

	code, body := get(t, r, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not_ready", body["status"])

	h.SetReady(true)
	code, body = get(t, r, "/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body["status"])
}

func TestReadyHandler_DatabaseClosed(t *testing.T) {
	db := testutil.NewDB(t)
	h := NewHealthChecker(db, nil, "test")
	h.SetReady(true)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	code, body := get(t, newRouter(h), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "database unavailable", body["reason"])
}

func TestHealthHandler_ReportsRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	h := NewHealthChecker(testutil.NewDB(t), client, "1.2.3")
	r := newRouter(h)

	code, body := get(t, r, "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "1.2.3", body["version"])
	assert.Equal(t, "connected", body["database"].(map[string]interface{})["status"])
	assert.Equal(t, "connected", body["redis"].(map[string]interface{})["status"])

	mr.Close()
	_, body = get(t, r, "/health")
	assert.Equal(t, "disconnected", body["redis"].(map[string]interface{})["status"])
}

func TestHealthHandler_RedisDisabled(t *testing.T) {
	_, body := get(t, newRouter(NewHealthChecker(testutil.NewDB(t), nil, "test")), "/health")
	assert.Equal(t, "disabled", body["redis"].(map[string]interface{})["status"])
}
