package sqlite

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/socialgraph/internal/apperror"
	"github.com/sakif/socialgraph/internal/model"
)

func TestGetProfile(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")

	p, err := db.GetProfile(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, "alice", p.DisplayName)
	assert.Empty(t, p.AvatarURL)
	assert.Empty(t, p.Bio)
}

func ptr(s string) *string { return &s }

func TestUpdateProfile(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")

	before, err := db.GetProfile(ctx, alice.ID)
	require.NoError(t, err)

	p, err := db.UpdateProfile(ctx, alice.ID, model.ProfileUpdate{
		DisplayName: ptr("Alice A."),
		AvatarURL:   ptr("https://example.com/a.png"),
		Bio:         ptr("hello"),
	})
	require.NoError(t, err)
	assert.False(t, p.UpdatedAt.Before(before.UpdatedAt))
	assert.Equal(t, "Alice A.", p.DisplayName)

	got, err := db.GetProfile(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice A.", got.DisplayName)
	assert.Equal(t, "https://example.com/a.png", got.AvatarURL)
	assert.Equal(t, "hello", got.Bio)
	assert.Equal(t, "alice", got.Username, "username is not writable through the profile")
}

func TestUpdateProfile_PartialKeepsOtherFields(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")

	_, err := db.UpdateProfile(ctx, alice.ID, model.ProfileUpdate{Bio: ptr("hello")})
	require.NoError(t, err)

	p, err := db.UpdateProfile(ctx, alice.ID, model.ProfileUpdate{AvatarURL: ptr("")})
	require.NoError(t, err)
	assert.Equal(t, "alice", p.DisplayName)
	assert.Equal(t, "hello", p.Bio)
	assert.Empty(t, p.AvatarURL)
}

func TestUpdateProfile_ConcurrentFieldsBothLand(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i := range 10 {
		user := createTestUser(t, db, fmt.Sprintf("user%d", i))

		var wg sync.WaitGroup
		errs := make([]error, 2)
		patches := []model.ProfileUpdate{
			{DisplayName: ptr("Alice L.")},
			{Bio: ptr("hello")},
		}
		for j, patch := range patches {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[j] = db.UpdateProfile(ctx, user.ID, patch)
			}()
		}
		wg.Wait()
		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		got, err := db.GetProfile(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice L.", got.DisplayName, "round %d", i)
		assert.Equal(t, "hello", got.Bio, "round %d", i)
	}
}

func TestUpdateProfile_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.UpdateProfile(context.Background(), "missing", model.ProfileUpdate{DisplayName: ptr("x")})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
