package ratelimit

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-auth/internal/config"
)

// LoginLimiter throttles repeated failed logins per email and client
// address. Counters live in Redis so they survive restarts and are shared
// across instances. When Redis is unreachable the limiter fails open.
type LoginLimiter struct {
	client *redis.Client
	cfg    config.ThrottleConfig
	logger *zap.Logger
}

// NewLoginLimiter constructs a limiter.
func NewLoginLimiter(client *redis.Client, cfg config.ThrottleConfig, logger *zap.Logger) *LoginLimiter {
	return &LoginLimiter{client: client, cfg: cfg, logger: logger}
}

// Allow reports whether another login attempt is permitted.
func (l *LoginLimiter) Allow(ctx context.Context, email, addr string) bool {
	if !l.enabled() {
		return true
	}

	count, err := l.client.Get(ctx, l.key(email, addr)).Int()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			l.logger.Warn("login throttle lookup failed", zap.Error(err))
		}
		return true
	}
	return count < l.cfg.MaxAttempts
}

// RecordFailure counts a failed attempt, starting the window on the first.
func (l *LoginLimiter) RecordFailure(ctx context.Context, email, addr string) {
	if !l.enabled() {
		return
	}

	key := l.key(email, addr)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		l.logger.Warn("login throttle increment failed", zap.Error(err))
		return
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.cfg.Window()).Err(); err != nil {
			l.logger.Warn("login throttle expire failed", zap.Error(err))
		}
	}
}

// Reset clears the counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, email, addr string) {
	if !l.enabled() {
		return
	}
	if err := l.client.Del(ctx, l.key(email, addr)).Err(); err != nil {
		l.logger.Warn("login throttle reset failed", zap.Error(err))
	}
}

func (l *LoginLimiter) enabled() bool {
	return l != nil && l.cfg.Enabled && l.client != nil
}

func (l *LoginLimiter) key(email, addr string) string {
	return fmt.Sprintf("login_attempts:%s:%s", email, addr)
}
