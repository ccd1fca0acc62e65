package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/sakif/socialgraph/internal/apperror"
	"github.com/sakif/socialgraph/internal/model"
	"github.com/sakif/socialgraph/internal/repository"
)

var _ repository.ProfileRepository = (*DB)(nil)

type profileRow struct {
	UserID      string `db:"user_id"`
	Username    string `db:"username"`
	Email       string `db:"email"`
	DisplayName string `db:"display_name"`
	AvatarURL   string `db:"avatar_url"`
	Bio         string `db:"bio"`
	UpdatedAt   int64  `db:"updated_at"`
}

func (r profileRow) toModel() *model.Profile {
	return &model.Profile{
		UserID:      r.UserID,
		Username:    r.Username,
		Email:       r.Email,
		DisplayName: r.DisplayName,
		AvatarURL:   r.AvatarURL,
		Bio:         r.Bio,
		UpdatedAt:   fromMillis(r.UpdatedAt),
	}
}

// GetProfile returns the profile joined with its owner's username and email.
func (db *DB) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	return getProfile(ctx, db.conn, userID)
}

func getProfile(ctx context.Context, q sqlx.QueryerContext, userID string) (*model.Profile, error) {
	var row profileRow
	err := sqlx.GetContext(ctx, q, &row,
		`SELECT p.user_id, u.username, u.email, p.display_name, p.avatar_url, p.bio, p.updated_at
		 FROM profiles p
		 JOIN users u ON u.id = p.user_id
		 WHERE p.user_id = ?`,
		userID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("profile", userID)
		}
		return nil, storeError("getting profile", err)
	}
	return row.toModel(), nil
}

// UpdateProfile writes the non-nil fields of patch in a single statement and
// returns the stored result. A nil field binds NULL and COALESCE keeps the
// column as it is, so concurrent patches to different fields both land.
func (db *DB) UpdateProfile(ctx context.Context, userID string, patch model.ProfileUpdate) (*model.Profile, error) {
	var updated *model.Profile
	err := db.withTx(ctx, "updating profile", func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE profiles SET
			   display_name = COALESCE(?, display_name),
			   avatar_url   = COALESCE(?, avatar_url),
			   bio          = COALESCE(?, bio),
			   updated_at   = ?
			 WHERE user_id = ?`,
			optional(patch.DisplayName),
			optional(patch.AvatarURL),
			optional(patch.Bio),
			toMillis(now()),
			userID,
		)
		if err != nil {
			return storeError("updating profile", err)
		}
		if err := requireRow(result, "profile", userID); err != nil {
			return err
		}

		updated, err = getProfile(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// optional binds a nil pointer as NULL and anything else as its value.
func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
