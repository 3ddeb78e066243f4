package repository

import (
	"context"
	"sync/atomic"
	"time"

	"naalli/internal/domain"
	"naalli/internal/models"

	"github.com/rs/zerolog"
)

const recheckInterval = time.Minute

// FailoverSessionStore uses primary until it errors, then serves from fallback and
// retries primary once per recheckInterval.
type FailoverSessionStore struct {
	primary   domain.SessionStore
	fallback  domain.SessionStore
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
	now       func() time.Time
}

func NewFailoverSessionStore(primary, fallback domain.SessionStore, logger *zerolog.Logger) *FailoverSessionStore {
	return &FailoverSessionStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

// usePrimary reports whether the next call should go to primary.
func (r *FailoverSessionStore) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	return r.now().UnixNano()-r.lastCheck.Load() > int64(recheckInterval)
}

func (r *FailoverSessionStore) markDown(err error) {
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Msg("primary session store failed, falling back to memory")
	}
	r.lastCheck.Store(r.now().UnixNano())
}

func (r *FailoverSessionStore) markUp() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("primary session store recovered")
	}
}

func (r *FailoverSessionStore) SaveSession(ctx context.Context, session *models.Session) error {
	if r.usePrimary() {
		if err := r.primary.SaveSession(ctx, session); err != nil {
			r.markDown(err)
		} else {
			r.markUp()
			return nil
		}
	}
	return r.fallback.SaveSession(ctx, session)
}

func (r *FailoverSessionStore) GetSession(ctx context.Context, token string) (*models.Session, error) {
	if r.usePrimary() {
		session, err := r.primary.GetSession(ctx, token)
		if err != nil {
			r.markDown(err)
		} else {
			r.markUp()
			if session != nil {
				return session, nil
			}
		}
	}
	// sessions created while primary was down only exist in fallback
	return r.fallback.GetSession(ctx, token)
}

func (r *FailoverSessionStore) DeleteSession(ctx context.Context, token string) error {
	if r.usePrimary() {
		if err := r.primary.DeleteSession(ctx, token); err != nil {
			r.markDown(err)
		} else {
			r.markUp()
		}
	}
	return r.fallback.DeleteSession(ctx, token)
}

func (r *FailoverSessionStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			r.markUp()
			return allowed, nil
		}
		r.markDown(err)
	}
	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}

func (r *FailoverSessionStore) ResetRateLimit(ctx context.Context, key string) error {
	if r.usePrimary() {
		if err := r.primary.ResetRateLimit(ctx, key); err != nil {
			r.markDown(err)
		} else {
			r.markUp()
		}
	}
	return r.fallback.ResetRateLimit(ctx, key)
}
