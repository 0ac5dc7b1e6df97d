package repository

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"brightnest/internal/domain"
)

// FailoverSessionRepository serves sessions from Redis and falls back to
// memory when Redis errors. Recovery is probed on reads after a cooldown.
type FailoverSessionRepository struct {
	primary   domain.SessionRepository
	fallback  domain.SessionRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

const recoveryCooldown = time.Minute

func NewFailoverSessionRepository(primary, fallback domain.SessionRepository, logger *zerolog.Logger) *FailoverSessionRepository {
	return &FailoverSessionRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverSessionRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("primary session repository failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().UnixNano())
}

func (r *FailoverSessionRepository) CreateSession(ctx context.Context, token string, ttl time.Duration) error {
	if !r.isDown.Load() {
		err := r.primary.CreateSession(ctx, token, ttl)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.CreateSession(ctx, token, ttl)
}

func (r *FailoverSessionRepository) SessionExists(ctx context.Context, token string) (bool, error) {
	if !r.isDown.Load() {
		exists, err := r.primary.SessionExists(ctx, token)
		if err == nil {
			return exists, nil
		}
		r.markDown(err)
	} else if time.Since(time.Unix(0, r.lastCheck.Load())) > recoveryCooldown {
		// Probe the primary for recovery.
		exists, err := r.primary.SessionExists(ctx, token)
		if err == nil {
			r.isDown.Store(false)
			return exists, nil
		}
		r.lastCheck.Store(time.Now().UnixNano())
	}

	return r.fallback.SessionExists(ctx, token)
}

func (r *FailoverSessionRepository) DeleteSession(ctx context.Context, token string) error {
	if !r.isDown.Load() {
		if err := r.primary.DeleteSession(ctx, token); err != nil {
			r.markDown(err)
		}
	}
	// The session may also have been written to the fallback during an
	// outage, so clear both.
	return r.fallback.DeleteSession(ctx, token)
}
