package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/socialgraph/internal/model"
)

func TestSweepOnce(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.CreateChallenge(ctx, &model.OTPChallenge{Email: "a@x.io", Code: "111111", ExpiresAt: now.Add(-48 * time.Hour)}))
	require.NoError(t, store.CreateChallenge(ctx, &model.OTPChallenge{Email: "b@x.io", Code: "222222", ExpiresAt: now.Add(-time.Hour)}))
	require.NoError(t, store.CreateRefreshToken(ctx, &model.RefreshToken{Token: "old", ExpiresAt: now.Add(-30 * 24 * time.Hour)}))
	require.NoError(t, store.CreateRefreshToken(ctx, &model.RefreshToken{Token: "live", ExpiresAt: now.Add(time.Hour)}))

	s := NewSweeper(store, store, time.Hour, 24*time.Hour, testLogger())
	challenges, tokens := s.SweepOnce(ctx)

	assert.Equal(t, int64(1), challenges)
	assert.Equal(t, int64(1), tokens)
	_, err := store.FindUnverifiedChallenge(ctx, "b@x.io", "222222")
	assert.NoError(t, err, "expired but inside retention is kept")
}

func TestSweeper_StartStop(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()
	require.NoError(t, store.CreateChallenge(ctx, &model.OTPChallenge{Email: "a@x.io", Code: "111111", ExpiresAt: time.Now().Add(-time.Hour)}))

	s := NewSweeper(store, store, 10*time.Millisecond, time.Minute, testLogger())
	s.Start()
	s.Start() // second call is a no-op

	assert.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.challenges) == 0
	}, 2*time.Second, 10*time.Millisecond)

	s.Stop()
	s.Stop() // idempotent
}

func TestNewSweeper_Defaults(t *testing.T) {
	s := NewSweeper(newFakeStore(), newFakeStore(), 0, 0, testLogger())
	assert.Equal(t, DefaultSweepInterval, s.interval)
	assert.Equal(t, DefaultSweepRetention, s.retention)
}
