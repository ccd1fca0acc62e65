package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/socialgraph/internal/apperror"
	"github.com/sakif/socialgraph/internal/model"
)

func ptr(s string) *string { return &s }

func TestUpdateProfile(t *testing.T) {
	store := newFakeStore()
	alice := store.addUser("alice", "alice@example.com", "h")
	svc := NewProfileService(store, testLogger())

	p, err := svc.UpdateProfile(context.Background(), alice.ID, model.ProfileUpdate{
		DisplayName: ptr("  Alice Liddell  "),
		AvatarURL:   ptr("https://example.com/alice.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", p.DisplayName)
	assert.Equal(t, "https://example.com/alice.png", p.AvatarURL)
	assert.Empty(t, p.Bio, "untouched fields keep their value")
	assert.Equal(t, "alice", p.Username)

	// Clearing the avatar is allowed.
	p, err = svc.UpdateProfile(context.Background(), alice.ID, model.ProfileUpdate{AvatarURL: ptr("")})
	require.NoError(t, err)
	assert.Empty(t, p.AvatarURL)
	assert.Equal(t, "Alice Liddell", p.DisplayName)
}

func TestUpdateProfile_Validation(t *testing.T) {
	store := newFakeStore()
	alice := store.addUser("alice", "alice@example.com", "h")
	svc := NewProfileService(store, testLogger())

	tests := []struct {
		name      string
		patch     model.ProfileUpdate
		wantField string
	}{
		{"blank display name", model.ProfileUpdate{DisplayName: ptr("   ")}, "display_name"},
		{"long display name", model.ProfileUpdate{DisplayName: ptr(strings.Repeat("x", MaxDisplayNameLength+1))}, "display_name"},
		{"non-http avatar", model.ProfileUpdate{AvatarURL: ptr("javascript:alert(1)")}, "avatar_url"},
		{"relative avatar", model.ProfileUpdate{AvatarURL: ptr("/a.png")}, "avatar_url"},
		{"long bio", model.ProfileUpdate{Bio: ptr(strings.Repeat("é", MaxBioLength+1))}, "bio"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateProfile(context.Background(), alice.ID, tt.patch)
			requireField(t, err, tt.wantField)
		})
	}

	p, err := svc.GetProfile(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", p.DisplayName, "failed patches write nothing")
}

func TestUpdateProfile_BioAtLimit(t *testing.T) {
	store := newFakeStore()
	alice := store.addUser("alice", "alice@example.com", "h")
	svc := NewProfileService(store, testLogger())

	_, err := svc.UpdateProfile(context.Background(), alice.ID, model.ProfileUpdate{Bio: ptr(strings.Repeat("é", MaxBioLength))})
	assert.NoError(t, err)
}

func TestUpdateProfile_EmptyPatch(t *testing.T) {
	store := newFakeStore()
	alice := store.addUser("alice", "alice@example.com", "h")
	svc := NewProfileService(store, testLogger())

	p, err := svc.UpdateProfile(context.Background(), alice.ID, model.ProfileUpdate{})
	require.NoError(t, err)
	assert.Equal(t, "alice", p.DisplayName)
}

func TestGetProfile_NotFound(t *testing.T) {
	svc := NewProfileService(newFakeStore(), testLogger())
	_, err := svc.GetProfile(context.Background(), "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
