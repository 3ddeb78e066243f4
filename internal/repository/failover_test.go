package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"naalli/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) SaveSession(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockStore) GetSession(ctx context.Context, token string) (*models.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *mockStore) DeleteSession(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *mockStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) ResetRateLimit(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func TestFailoverSessionStore(t *testing.T) {
	primary := new(mockStore)
	fallback := new(mockStore)
	logger := zerolog.New(io.Discard)
	store := NewFailoverSessionStore(primary, fallback, &logger)
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		session := &models.Session{Token: "1"}
		primary.On("GetSession", ctx, "1").Return(session, nil).Once()

		got, err := store.GetSession(ctx, "1")
		assert.NoError(t, err)
		assert.Equal(t, session, got)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryMissFallsThrough", func(t *testing.T) {
		session := &models.Session{Token: "1b"}
		primary.On("GetSession", ctx, "1b").Return(nil, nil).Once()
		fallback.On("GetSession", ctx, "1b").Return(session, nil).Once()

		got, err := store.GetSession(ctx, "1b")
		assert.NoError(t, err)
		assert.Equal(t, session, got)
		assert.False(t, store.isDown.Load())
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		session := &models.Session{Token: "2"}
		primary.On("GetSession", ctx, "2").Return(nil, errors.New("fail")).Once()
		fallback.On("GetSession", ctx, "2").Return(session, nil).Once()

		got, err := store.GetSession(ctx, "2")
		assert.NoError(t, err)
		assert.Equal(t, session, got)
		assert.True(t, store.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("AlreadyDownSkipsPrimary", func(t *testing.T) {
		session := &models.Session{Token: "3"}
		fallback.On("SaveSession", ctx, session).Return(nil).Once()

		assert.NoError(t, store.SaveSession(ctx, session))
		primary.AssertNotCalled(t, "SaveSession", ctx, session)
		fallback.AssertExpectations(t)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		store.isDown.Store(true)
		store.lastCheck.Store(time.Now().Add(-2 * time.Minute).UnixNano())

		primary.On("CheckRateLimit", ctx, "k", 5, time.Minute).Return(true, nil).Once()

		allowed, err := store.CheckRateLimit(ctx, "k", 5, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		assert.False(t, store.isDown.Load())
	})

	t.Run("RecoveryAttemptFail", func(t *testing.T) {
		store.isDown.Store(true)
		store.lastCheck.Store(time.Now().Add(-2 * time.Minute).UnixNano())

		primary.On("ResetRateLimit", ctx, "k").Return(errors.New("still down")).Once()
		fallback.On("ResetRateLimit", ctx, "k").Return(nil).Once()

		assert.NoError(t, store.ResetRateLimit(ctx, "k"))
		assert.True(t, store.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("DeleteClearsBoth", func(t *testing.T) {
		store.isDown.Store(false)
		primary.On("DeleteSession", ctx, "4").Return(nil).Once()
		fallback.On("DeleteSession", ctx, "4").Return(nil).Once()

		assert.NoError(t, store.DeleteSession(ctx, "4"))
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("CheckRateLimitFailover", func(t *testing.T) {
		store.isDown.Store(false)
		primary.On("CheckRateLimit", ctx, "k6", 10, time.Minute).Return(false, errors.New("fail")).Once()
		fallback.On("CheckRateLimit", ctx, "k6", 10, time.Minute).Return(true, nil).Once()

		allowed, err := store.CheckRateLimit(ctx, "k6", 10, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		assert.True(t, store.isDown.Load())
	})
}
