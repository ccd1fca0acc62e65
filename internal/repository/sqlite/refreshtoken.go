package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sakif/socialgraph/internal/apperror"
	"github.com/sakif/socialgraph/internal/model"
	"github.com/sakif/socialgraph/internal/repository"
)

var _ repository.RefreshTokenRepository = (*DB)(nil)

type refreshTokenRow struct {
	Token     string `db:"token"`
	UserID    string `db:"user_id"`
	ExpiresAt int64  `db:"expires_at"`
	CreatedAt int64  `db:"created_at"`
}

func (db *DB) CreateRefreshToken(ctx context.Context, t *model.RefreshToken) error {
	return insertRefreshToken(ctx, db.conn, t)
}

func insertRefreshToken(ctx context.Context, e sqlx.ExecerContext, t *model.RefreshToken) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now()
	}
	_, err := e.ExecContext(ctx,
		`INSERT INTO refresh_tokens (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		t.Token,
		t.UserID,
		toMillis(t.ExpiresAt),
		toMillis(t.CreatedAt),
	)
	if err != nil {
		return storeError("creating refresh token", err)
	}
	return nil
}

func (db *DB) FindRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	var row refreshTokenRow
	err := db.conn.GetContext(ctx, &row,
		`SELECT token, user_id, expires_at, created_at FROM refresh_tokens WHERE token = ?`,
		token,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("refresh token", "(redacted)")
		}
		return nil, storeError("finding refresh token", err)
	}
	return &model.RefreshToken{
		Token:     row.Token,
		UserID:    row.UserID,
		ExpiresAt: fromMillis(row.ExpiresAt),
		CreatedAt: fromMillis(row.CreatedAt),
	}, nil
}

// RotateRefreshToken consumes old and stores replacement in one transaction.
// Of two concurrent rotations of the same token only one deletes a row.
func (db *DB) RotateRefreshToken(ctx context.Context, old string, replacement *model.RefreshToken) error {
	return db.withTx(ctx, "rotating refresh token", func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = ?`, old)
		if err != nil {
			return storeError("deleting refresh token", err)
		}
		if err := requireRow(result, "refresh token", "(redacted)"); err != nil {
			return err
		}
		return insertRefreshToken(ctx, tx, replacement)
	})
}

func (db *DB) DeleteRefreshTokensExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < ?`,
		toMillis(cutoff),
	)
	if err != nil {
		return 0, storeError("deleting expired refresh tokens", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, storeError("deleting expired refresh tokens", err)
	}
	return n, nil
}
