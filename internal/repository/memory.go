package repository

import (
	"context"
	"sync"
	"time"

	"naalli/internal/models"
)

const rateLimitSweepInterval = time.Minute

// MemorySessionStore keeps sessions in process. Used when Redis is not configured
// and as the failover target.
type MemorySessionStore struct {
	sessions   sync.Map
	mu         sync.Mutex
	rateLimits map[string]*rateLimitEntry
	lastSweep  time.Time
	now        func() time.Time
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		rateLimits: make(map[string]*rateLimitEntry),
		now:        time.Now,
	}
}

func (r *MemorySessionStore) SaveSession(_ context.Context, session *models.Session) error {
	stored := *session
	r.sessions.Store(session.Token, &stored)
	return nil
}

func (r *MemorySessionStore) GetSession(_ context.Context, token string) (*models.Session, error) {
	val, ok := r.sessions.Load(token)
	if !ok {
		return nil, nil
	}
	session := val.(*models.Session)
	if !r.now().Before(session.ExpiresAt) {
		r.sessions.Delete(token)
		return nil, nil
	}
	out := *session
	return &out, nil
}

func (r *MemorySessionStore) DeleteSession(_ context.Context, token string) error {
	r.sessions.Delete(token)
	return nil
}

func (r *MemorySessionStore) CheckRateLimit(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweepRateLimits(now)

	entry, ok := r.rateLimits[key]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateLimitEntry{expiresAt: now.Add(window)}
		r.rateLimits[key] = entry
	}
	entry.count++
	return entry.count <= limit, nil
}

// sweepRateLimits drops expired counters at most once per sweep interval.
// Callers hold r.mu.
func (r *MemorySessionStore) sweepRateLimits(now time.Time) {
	if now.Sub(r.lastSweep) < rateLimitSweepInterval {
		return
	}
	r.lastSweep = now
	for key, entry := range r.rateLimits {
		if now.After(entry.expiresAt) {
			delete(r.rateLimits, key)
		}
	}
}

func (r *MemorySessionStore) ResetRateLimit(_ context.Context, key string) error {
	r.mu.Lock()
	delete(r.rateLimits, key)
	r.mu.Unlock()
	return nil
}
