package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sakif/socialgraph/internal/apperror"
	"github.com/sakif/socialgraph/internal/model"
	"github.com/sakif/socialgraph/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

type userRow struct {
	ID           string `db:"id"`
	Username     string `db:"username"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    int64  `db:"created_at"`
	UpdatedAt    int64  `db:"updated_at"`
}

func (r userRow) toModel() *model.User {
	return &model.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    fromMillis(r.CreatedAt),
		UpdatedAt:    fromMillis(r.UpdatedAt),
	}
}

const userColumns = `id, username, email, password_hash, created_at, updated_at`

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var row userRow
	err := db.conn.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, storeError("getting user "+id, err)
	}
	return row.toModel(), nil
}

// GetUserByUsername looks a user up by the exact username.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var row userRow
	err := db.conn.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, storeError("getting user by username", err)
	}
	return row.toModel(), nil
}

func (db *DB) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int
	err := db.conn.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE email = ?`, email)
	if err != nil {
		return false, storeError("checking email", err)
	}
	return n > 0, nil
}

// ListUsers returns users in registration order.
func (db *DB) ListUsers(ctx context.Context, opts repository.ListOptions) ([]model.UserSummary, error) {
	users := []model.UserSummary{}
	err := db.conn.SelectContext(ctx, &users,
		`SELECT id, username, email FROM users
		 ORDER BY created_at ASC, id ASC
		 LIMIT ? OFFSET ?`,
		opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, storeError("listing users", err)
	}
	return users, nil
}
