package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"property-service/internal/config"
	"property-service/internal/metrics"
)

type LockoutConfig struct {
	MaxLoginAttempts   int
	LockoutDuration    time.Duration
	MaxLockoutDuration time.Duration
	LockoutResetAfter  time.Duration
	RedisKeyPrefix     string
}

func LockoutConfigFrom(cfg config.SecurityConfig) LockoutConfig {
	return LockoutConfig{
		MaxLoginAttempts:   cfg.MaxLoginAttempts,
		LockoutDuration:    time.Duration(cfg.LockoutSeconds) * time.Second,
		MaxLockoutDuration: time.Duration(cfg.MaxLockoutMinutes) * time.Minute,
		LockoutResetAfter:  time.Duration(cfg.LockoutResetAfterMinutes) * time.Minute,
		RedisKeyPrefix:     "property:lockout:",
	}
}

const maxLockoutTxRetries = 100

// LoginLockout throttles repeated failed logins per IP and email.
// State lives in Redis when available, with an in-process fallback.
type LoginLockout struct {
	config LockoutConfig
	redis  *redis.Client
	logger *logrus.Entry

	localMu       sync.RWMutex
	localLockouts map[string]*lockoutState
}

type lockoutState struct {
	FailedAttempts int       `json:"failed_attempts"`
	LastFailedAt   time.Time `json:"last_failed_at"`
	LockedUntil    time.Time `json:"locked_until"`
	LockoutCount   int       `json:"lockout_count"`
}

func NewLoginLockout(redisClient *redis.Client, cfg LockoutConfig, logger *logrus.Logger) *LoginLockout {
	if cfg.MaxLoginAttempts <= 0 {
		cfg.MaxLoginAttempts = 5
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 30 * time.Second
	}
	if cfg.MaxLockoutDuration < cfg.LockoutDuration {
		cfg.MaxLockoutDuration = cfg.LockoutDuration
	}
	if cfg.LockoutResetAfter <= 0 {
		cfg.LockoutResetAfter = 15 * time.Minute
	}
	return &LoginLockout{
		config:        cfg,
		redis:         redisClient,
		logger:        logger.WithField("component", "lockout"),
		localLockouts: make(map[string]*lockoutState),
	}
}

func (l *LoginLockout) key(ip, email string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s", ip, strings.ToLower(strings.TrimSpace(email)))))
	return l.config.RedisKeyPrefix + hex.EncodeToString(sum[:16])
}

func (l *LoginLockout) load(ctx context.Context, key string) *lockoutState {
	if l.redis != nil {
		data, err := l.redis.Get(ctx, key).Result()
		if err == nil {
			var state lockoutState
			if json.Unmarshal([]byte(data), &state) == nil {
				return &state
			}
		} else if err != redis.Nil {
			l.logger.WithError(err).Warn("Failed to read lockout state from Redis, using local fallback")
		} else {
			return &lockoutState{}
		}
	}

	l.localMu.RLock()
	defer l.localMu.RUnlock()
	if state, ok := l.localLockouts[key]; ok {
		copied := *state
		return &copied
	}
	return &lockoutState{}
}

func (l *LoginLockout) ttl(state *lockoutState) time.Duration {
	ttl := l.config.LockoutResetAfter
	if remaining := time.Until(state.LockedUntil); remaining > ttl {
		ttl = remaining + time.Minute
	}
	return ttl
}

// updateRedis applies mutate inside a WATCH/MULTI transaction, retrying when
// a concurrent writer touched the key. mutate may run more than once.
func (l *LoginLockout) updateRedis(ctx context.Context, key string, mutate func(*lockoutState)) (*lockoutState, error) {
	var result *lockoutState
	txf := func(tx *redis.Tx) error {
		state := &lockoutState{}
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil && err != redis.Nil {
			return err
		}
		if err == nil {
			if err := json.Unmarshal(data, state); err != nil {
				state = &lockoutState{}
			}
		}

		mutate(state)
		encoded, err := json.Marshal(state)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, l.ttl(state))
			return nil
		})
		if err == nil {
			result = state
		}
		return err
	}

	for attempt := 0; attempt < maxLockoutTxRetries; attempt++ {
		err := l.redis.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if err != redis.TxFailedErr {
			return nil, err
		}
	}
	return nil, redis.TxFailedErr
}

// updateLocal applies mutate to the in-process copy under the write lock.
func (l *LoginLockout) updateLocal(key string, mutate func(*lockoutState)) *lockoutState {
	l.localMu.Lock()
	defer l.localMu.Unlock()

	state, ok := l.localLockouts[key]
	if !ok {
		state = &lockoutState{}
		l.localLockouts[key] = state
	}
	mutate(state)
	copied := *state
	return &copied
}

func (l *LoginLockout) setLocal(key string, state *lockoutState) {
	copied := *state
	l.localMu.Lock()
	l.localLockouts[key] = &copied
	l.localMu.Unlock()
}

func (l *LoginLockout) clear(ctx context.Context, key string) {
	l.localMu.Lock()
	delete(l.localLockouts, key)
	l.localMu.Unlock()

	if l.redis != nil {
		if err := l.redis.Del(ctx, key).Err(); err != nil {
			l.logger.WithError(err).Warn("Failed to clear lockout state in Redis")
		}
	}
}

// lockoutDuration doubles with every consecutive lockout up to the maximum.
func (l *LoginLockout) lockoutDuration(count int) time.Duration {
	if count <= 1 {
		return l.config.LockoutDuration
	}
	d := l.config.LockoutDuration
	for i := 1; i < count && d < l.config.MaxLockoutDuration; i++ {
		d *= 2
	}
	if d > l.config.MaxLockoutDuration {
		d = l.config.MaxLockoutDuration
	}
	return d
}

// RecordFailedLogin counts a failure and returns the remaining attempts and lock expiry.
// The read-modify-write is atomic, so concurrent failures are all counted.
func (l *LoginLockout) RecordFailedLogin(ctx context.Context, ip, email string) (int, time.Time) {
	key := l.key(ip, email)
	mutate := func(state *lockoutState) {
		now := time.Now()
		if state.FailedAttempts > 0 && now.Sub(state.LastFailedAt) > l.config.LockoutResetAfter {
			*state = lockoutState{LockoutCount: state.LockoutCount, LockedUntil: state.LockedUntil}
		}

		state.FailedAttempts++
		state.LastFailedAt = now
		if state.FailedAttempts >= l.config.MaxLoginAttempts {
			state.LockoutCount++
			state.LockedUntil = now.Add(l.lockoutDuration(state.LockoutCount))
			state.FailedAttempts = 0
		}
	}

	var state *lockoutState
	if l.redis != nil {
		var err error
		state, err = l.updateRedis(ctx, key, mutate)
		if err != nil {
			l.logger.WithError(err).Warn("Failed to update lockout state in Redis, using local fallback")
		} else {
			l.setLocal(key, state)
		}
	}
	if state == nil {
		state = l.updateLocal(key, mutate)
	}

	fields := logrus.Fields{"ip_address": ip, "email_masked": maskEmail(email), "failed_attempts": state.FailedAttempts}
	if state.FailedAttempts == 0 && state.LockedUntil.After(time.Now()) {
		l.logger.WithFields(fields).WithField("locked_until", state.LockedUntil).Warn("Account locked")
	} else {
		l.logger.WithFields(fields).Info("Failed login attempt")
	}

	return l.config.MaxLoginAttempts - state.FailedAttempts, state.LockedUntil
}

func (l *LoginLockout) RecordSuccessfulLogin(ctx context.Context, ip, email string) {
	l.clear(ctx, l.key(ip, email))
}

// IsLocked reports whether the IP and email pair is locked and for how long.
func (l *LoginLockout) IsLocked(ctx context.Context, ip, email string) (bool, time.Duration) {
	state := l.load(ctx, l.key(ip, email))
	if state.LockedUntil.After(time.Now()) {
		return true, time.Until(state.LockedUntil)
	}
	return false, 0
}

// Middleware rejects login requests for a locked IP and email pair with 429.
func (l *LoginLockout) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		email := peekEmail(c)
		if email == "" {
			c.Next()
			return
		}

		if locked, remaining := l.IsLocked(c.Request.Context(), c.ClientIP(), email); locked {
			metrics.RecordLogin(metrics.LoginLocked)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success":     false,
				"message":     "Account temporarily locked due to too many failed login attempts",
				"code":        "ACCOUNT_LOCKED",
				"retry_after": int(remaining.Seconds()) + 1,
			})
			return
		}

		c.Next()
	}
}

// peekEmail reads the email from a JSON body and restores the body.
func peekEmail(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	var req struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(body, &req) != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(req.Email))
}

func maskEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***"
	}
	if len(parts[0]) <= 2 {
		return "**@" + parts[1]
	}
	return parts[0][:2] + strings.Repeat("*", len(parts[0])-2) + "@" + parts[1]
}
