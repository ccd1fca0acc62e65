package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/xid"

	"github.com/sakif/socialgraph/internal/apperror"
	"github.com/sakif/socialgraph/internal/model"
	"github.com/sakif/socialgraph/internal/repository"
)

var _ repository.OTPRepository = (*DB)(nil)

type challengeRow struct {
	ID         string        `db:"id"`
	Email      string        `db:"email"`
	Code       string        `db:"code"`
	CreatedAt  int64         `db:"created_at"`
	ExpiresAt  int64         `db:"expires_at"`
	Verified   bool          `db:"verified"`
	VerifiedAt sql.NullInt64 `db:"verified_at"`
}

func (r challengeRow) toModel() *model.OTPChallenge {
	c := &model.OTPChallenge{
		ID:        r.ID,
		Email:     r.Email,
		Code:      r.Code,
		CreatedAt: fromMillis(r.CreatedAt),
		ExpiresAt: fromMillis(r.ExpiresAt),
		Verified:  r.Verified,
	}
	if r.VerifiedAt.Valid {
		t := fromMillis(r.VerifiedAt.Int64)
		c.VerifiedAt = &t
	}
	return c
}

// CreateChallenge stores a new, unverified challenge. ID and CreatedAt are
// assigned here when the caller left them empty.
func (db *DB) CreateChallenge(ctx context.Context, c *model.OTPChallenge) error {
	if c.ID == "" {
		c.ID = xid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now()
	}
	c.Verified = false
	c.VerifiedAt = nil

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO otp_challenges (id, email, code, created_at, expires_at, verified)
		 VALUES (?, ?, ?, ?, ?, 0)`,
		c.ID,
		c.Email,
		c.Code,
		toMillis(c.CreatedAt),
		toMillis(c.ExpiresAt),
	)
	if err != nil {
		return storeError("creating otp challenge", err)
	}
	return nil
}

func (db *DB) FindUnverifiedChallenge(ctx context.Context, email, code string) (*model.OTPChallenge, error) {
	var row challengeRow
	err := db.conn.GetContext(ctx, &row,
		`SELECT id, email, code, created_at, expires_at, verified, verified_at
		 FROM otp_challenges
		 WHERE email = ? AND code = ? AND verified = 0
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
		email, code,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("otp challenge", email)
		}
		return nil, storeError("finding otp challenge", err)
	}
	return row.toModel(), nil
}

// CompleteRegistration is the single transaction that turns a challenge into
// an account:
//
//  1. flip the challenge to verified, guarded on verified = 0 and on the
//     challenge not having expired yet
//  2. insert the user
//  3. insert the profile
//
// Two callers racing on one challenge both reach step 1; the store lets only
// one UPDATE match, the other sees zero rows and gets ErrInvalidOTP. A
// challenge that expired after the caller's own check gets ErrExpiredOTP.
func (db *DB) CompleteRegistration(ctx context.Context, challengeID string, user *model.User, profile *model.Profile) error {
	ts := now()
	if user.ID == "" {
		user.ID = xid.New().String()
	}
	user.CreatedAt = ts
	user.UpdatedAt = ts
	profile.UserID = user.ID
	profile.Username = user.Username
	profile.Email = user.Email
	profile.UpdatedAt = ts

	return db.withTx(ctx, "completing registration", func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE otp_challenges SET verified = 1, verified_at = ?
			 WHERE id = ? AND verified = 0 AND expires_at >= ?`,
			toMillis(ts), challengeID, toMillis(ts),
		)
		if err != nil {
			return storeError("verifying otp challenge", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return storeError("verifying otp challenge", err)
		}
		if rows == 0 {
			return unusableChallenge(ctx, tx, challengeID)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO users (id, username, email, password_hash, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			user.ID,
			user.Username,
			user.Email,
			user.PasswordHash,
			toMillis(user.CreatedAt),
			toMillis(user.UpdatedAt),
		)
		if err != nil {
			switch {
			case isUniqueViolationOn(err, "users.email"):
				return apperror.EmailAlreadyRegistered(user.Email)
			case isUniqueViolationOn(err, "users.username"):
				return apperror.Conflict("username", user.Username)
			}
			return storeError("inserting user", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO profiles (user_id, display_name, avatar_url, bio, updated_at)
			 VALUES (?, ?, ?, ?, ?)`,
			profile.UserID,
			profile.DisplayName,
			profile.AvatarURL,
			profile.Bio,
			toMillis(profile.UpdatedAt),
		)
		if err != nil {
			return storeError("inserting profile", err)
		}
		return nil
	})
}

// unusableChallenge explains why the guarded update matched nothing: an
// unverified challenge that is still stored has expired, anything else is
// used or unknown.
func unusableChallenge(ctx context.Context, tx *sqlx.Tx, challengeID string) error {
	var verified int
	err := tx.GetContext(ctx, &verified,
		`SELECT verified FROM otp_challenges WHERE id = ?`, challengeID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return apperror.InvalidOTP()
	case err != nil:
		return storeError("reading otp challenge", err)
	case verified == 0:
		return apperror.ExpiredOTP()
	}
	return apperror.InvalidOTP()
}

func (db *DB) DeleteChallengesExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM otp_challenges WHERE expires_at < ?`,
		toMillis(cutoff),
	)
	if err != nil {
		return 0, storeError("deleting expired otp challenges", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, storeError("deleting expired otp challenges", err)
	}
	return n, nil
}
