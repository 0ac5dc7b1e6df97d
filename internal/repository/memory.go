package repository

import (
	"context"
	"sync"
	"time"
)

// MemorySessionRepository is the in-process fallback when Redis is down or
// not configured. Sessions are lost on restart, which only costs admins a
// re-login.
type MemorySessionRepository struct {
	sessions sync.Map
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{}
}

func (r *MemorySessionRepository) CreateSession(ctx context.Context, token string, ttl time.Duration) error {
	r.sessions.Store(token, time.Now().Add(ttl))
	return nil
}

func (r *MemorySessionRepository) SessionExists(ctx context.Context, token string) (bool, error) {
	val, ok := r.sessions.Load(token)
	if !ok {
		return false, nil
	}
	if time.Now().After(val.(time.Time)) {
		r.sessions.Delete(token)
		return false, nil
	}
	return true, nil
}

func (r *MemorySessionRepository) DeleteSession(ctx context.Context, token string) error {
	r.sessions.Delete(token)
	return nil
}
