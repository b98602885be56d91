package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-service/internal/config"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newRedisLockout(t *testing.T, cfg LockoutConfig) (*LoginLockout, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewLoginLockout(client, cfg, quietLogger()), mr
}

func TestLockoutConfigFrom(t *testing.T) {
	cfg := LockoutConfigFrom(config.SecurityConfig{
		MaxLoginAttempts:         5,
		LockoutSeconds:           30,
		MaxLockoutMinutes:        60,
		LockoutResetAfterMinutes: 15,
	})
	assert.Equal(t, 5, cfg.MaxLoginAttempts)
	assert.Equal(t, 30*time.Second, cfg.LockoutDuration)
	assert.Equal(t, time.Hour, cfg.MaxLockoutDuration)
	assert.Equal(t, 15*time.Minute, cfg.LockoutResetAfter)
}

func TestLoginLockout_LocksAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	l, mr := newRedisLockout(t, LockoutConfig{
		MaxLoginAttempts:   3,
		LockoutDuration:    time.Minute,
		MaxLockoutDuration: time.Hour,
		LockoutResetAfter:  15 * time.Minute,
		RedisKeyPrefix:     "test:",
	})

	remaining, _ := l.RecordFailedLogin(ctx, "10.0.0.1", "a@test.com")
	assert.Equal(t, 2, remaining)
	l.RecordFailedLogin(ctx, "10.0.0.1", "a@test.com")

	locked, _ := l.IsLocked(ctx, "10.0.0.1", "a@test.com")
	assert.False(t, locked)

	_, until := l.RecordFailedLogin(ctx, "10.0.0.1", "A@test.com ")
	assert.True(t, until.After(time.Now()))

	locked, retry := l.IsLocked(ctx, "10.0.0.1", "a@test.com")
	assert.True(t, locked)
	assert.LessOrEqual(t, retry, time.Minute)

	locked, _ = l.IsLocked(ctx, "10.0.0.2", "a@test.com")
	assert.False(t, locked, "lockout is scoped to the client address")

	assert.Len(t, mr.Keys(), 1)
}

func TestLoginLockout_SuccessClearsState(t *testing.T) {
	ctx := context.Background()
	l, mr := newRedisLockout(t, LockoutConfig{MaxLoginAttempts: 2, LockoutDuration: time.Minute, RedisKeyPrefix: "test:"})

	l.RecordFailedLogin(ctx, "ip", "b@test.com")
	require.Len(t, mr.Keys(), 1)

	l.RecordSuccessfulLogin(ctx, "ip", "b@test.com")
	assert.Empty(t, mr.Keys())

	remaining, _ := l.RecordFailedLogin(ctx, "ip", "b@test.com")
	assert.Equal(t, 1, remaining)
}

func TestLoginLockout_LocalFallbackWhenRedisDown(t *testing.T) {
	ctx := context.Background()
	l, mr := newRedisLockout(t, LockoutConfig{MaxLoginAttempts: 1, LockoutDuration: time.Minute, RedisKeyPrefix: "test:"})
	mr.Close()

	l.RecordFailedLogin(ctx, "ip", "c@test.com")
	locked, _ := l.IsLocked(ctx, "ip", "c@test.com")
	assert.True(t, locked)
}

func TestLoginLockout_DurationBackoff(t *testing.T) {
	l := NewLoginLockout(nil, LockoutConfig{
		MaxLoginAttempts:   1,
		LockoutDuration:    10 * time.Second,
		MaxLockoutDuration: 30 * time.Second,
	}, quietLogger())

	assert.Equal(t, 10*time.Second, l.lockoutDuration(1))
	assert.Equal(t, 20*time.Second, l.lockoutDuration(2))
	assert.Equal(t, 30*time.Second, l.lockoutDuration(3))
	assert.Equal(t, 30*time.Second, l.lockoutDuration(10))
}

func TestLoginLockout_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := NewLoginLockout(nil, LockoutConfig{MaxLoginAttempts: 1, LockoutDuration: time.Minute}, quietLogger())

	var seenBody string
	r := gin.New()
	r.POST("/login", l.Middleware(), func(c *gin.Context) {
		var req struct {
			Email string `json:"email"`
		}
		_ = c.ShouldBindJSON(&req)
		seenBody = req.Email
		c.Status(http.StatusOK)
	})

	send := func() int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(`{"email":"d@test.com","password":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, "d@test.com", seenBody, "body is restored for the handler")

	l.RecordFailedLogin(context.Background(), "192.0.2.1", "d@test.com")
	assert.Equal(t, http.StatusTooManyRequests, send())
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "jo**@test.com", maskEmail("john@test.com"))
	assert.Equal(t, "**@test.com", maskEmail("jo@test.com"))
	assert.Equal(t, "***", maskEmail("invalid"))
}

func recordConcurrently(l *LoginLockout, n int, ip, email string) {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.RecordFailedLogin(context.Background(), ip, email)
		}()
	}
	wg.Wait()
}

func TestLoginLockout_ConcurrentFailuresAreCounted(t *testing.T) {
	cfg := LockoutConfig{MaxLoginAttempts: 100, LockoutDuration: time.Minute, RedisKeyPrefix: "test:"}

	t.Run("redis", func(t *testing.T) {
		l, _ := newRedisLockout(t, cfg)
		recordConcurrently(l, 20, "ip", "e@test.com")

		state := l.load(context.Background(), l.key("ip", "e@test.com"))
		assert.Equal(t, 20, state.FailedAttempts)
	})

	t.Run("local", func(t *testing.T) {
		l := NewLoginLockout(nil, cfg, quietLogger())
		recordConcurrently(l, 20, "ip", "e@test.com")

		state := l.load(context.Background(), l.key("ip", "e@test.com"))
		assert.Equal(t, 20, state.FailedAttempts)
	})
}

func TestLoginLockout_ConcurrentFailuresTriggerLock(t *testing.T) {
	l, _ := newRedisLockout(t, LockoutConfig{MaxLoginAttempts: 5, LockoutDuration: time.Minute, RedisKeyPrefix: "test:"})
	recordConcurrently(l, 5, "ip", "f@test.com")

	locked, _ := l.IsLocked(context.Background(), "ip", "f@test.com")
	assert.True(t, locked)
}
