// Package repository declares the storage contracts the services depend on.
// The sqlite subpackage is the only implementation; service tests use
// hand-written fakes.
package repository

import (
	"context"
	"time"

	"github.com/sakif/socialgraph/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// FriendshipFilter narrows ListFriendships. Zero values mean "any".
type FriendshipFilter struct {
	Status    model.FriendshipStatus
	Direction model.FriendshipDirection
}

type UserRepository interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	ListUsers(ctx context.Context, opts ListOptions) ([]model.UserSummary, error)
}

type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, userID string, patch model.ProfileUpdate) (*model.Profile, error)
}

type OTPRepository interface {
	CreateChallenge(ctx context.Context, challenge *model.OTPChallenge) error
	// FindUnverifiedChallenge returns the newest unverified challenge for
	// exactly (email, code), expired or not.
	FindUnverifiedChallenge(ctx context.Context, email, code string) (*model.OTPChallenge, error)
	// CompleteRegistration marks the challenge verified and inserts the user
	// and profile in one transaction. A challenge that is already verified
	// yields apperror.ErrInvalidOTP and nothing is written.
	CompleteRegistration(ctx context.Context, challengeID string, user *model.User, profile *model.Profile) error
	// DeleteChallengesExpiredBefore removes challenges whose expiry is older
	// than cutoff and returns how many were removed.
	DeleteChallengesExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// FriendshipRepository stores directed edges. The Accept/Reject/Delete
// methods are guarded writes: when the guard matches no row they return
// apperror.ErrNotFound.
type FriendshipRepository interface {
	CreateFriendship(ctx context.Context, f *model.Friendship) error
	GetFriendship(ctx context.Context, id string) (*model.Friendship, error)
	ListFriendships(ctx context.Context, userID string, filter FriendshipFilter) ([]model.Friendship, error)
	AcceptFriendship(ctx context.Context, id, addresseeID string) (*model.Friendship, error)
	RejectFriendship(ctx context.Context, id, addresseeID string) error
	DeleteAcceptedFriendship(ctx context.Context, id, userID string) error
}

type RefreshTokenRepository interface {
	CreateRefreshToken(ctx context.Context, token *model.RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error)
	// RotateRefreshToken deletes old and stores replacement atomically.
	// If old was already consumed it returns apperror.ErrNotFound.
	RotateRefreshToken(ctx context.Context, old string, replacement *model.RefreshToken) error
	DeleteRefreshTokensExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
