package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-auth/internal/config"
	"github.com/spec-kit/restaurant-auth/internal/repository"
)

// TokenReclaimer periodically removes expired refresh-token records.
// The renewal protocol reclaims records lazily on presentation, but tokens
// that are simply abandoned would otherwise accumulate without bound.
type TokenReclaimer struct {
	tokens   repository.RefreshTokenRepository
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewTokenReclaimer builds the worker.
func NewTokenReclaimer(tokens repository.RefreshTokenRepository, cfg config.ReclaimerConfig, logger *zap.Logger) *TokenReclaimer {
	interval := cfg.Interval()
	if interval <= 0 {
		interval = time.Hour
	}
	return &TokenReclaimer{
		tokens:   tokens,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Start runs the sweep loop until ctx is cancelled.
func (w *TokenReclaimer) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep deletes every record already past its expiry.
func (w *TokenReclaimer) Sweep(ctx context.Context) {
	removed, err := w.tokens.DeleteExpired(ctx, w.now())
	if err != nil {
		w.logger.Warn("refresh token sweep failed", zap.Error(err))
		return
	}
	if removed > 0 {
		w.logger.Info("reclaimed expired refresh tokens", zap.Int64("count", removed))
	}
}
