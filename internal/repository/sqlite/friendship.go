package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/xid"

	"github.com/sakif/socialgraph/internal/apperror"
	"github.com/sakif/socialgraph/internal/model"
	"github.com/sakif/socialgraph/internal/repository"
)

var _ repository.FriendshipRepository = (*DB)(nil)

type friendshipRow struct {
	ID          string `db:"id"`
	RequesterID string `db:"requester_id"`
	Requester   string `db:"requester"`
	AddresseeID string `db:"addressee_id"`
	Addressee   string `db:"addressee"`
	Status      string `db:"status"`
	CreatedAt   int64  `db:"created_at"`
	UpdatedAt   int64  `db:"updated_at"`
}

func (r friendshipRow) toModel() model.Friendship {
	return model.Friendship{
		ID:          r.ID,
		RequesterID: r.RequesterID,
		Requester:   r.Requester,
		AddresseeID: r.AddresseeID,
		Addressee:   r.Addressee,
		Status:      model.FriendshipStatus(r.Status),
		CreatedAt:   fromMillis(r.CreatedAt),
		UpdatedAt:   fromMillis(r.UpdatedAt),
	}
}

// selectFriendship joins both parties so every edge carries usernames.
const selectFriendship = `
	SELECT f.id, f.requester_id, r.username AS requester,
	       f.addressee_id, a.username AS addressee,
	       f.status, f.created_at, f.updated_at
	FROM friendships f
	JOIN users r ON r.id = f.requester_id
	JOIN users a ON a.id = f.addressee_id`

// CreateFriendship inserts a new requested edge. The UNIQUE(requester_id,
// addressee_id) constraint is what rejects duplicates, including two
// concurrent inserts of the same ordered pair.
//
// Requester and Addressee usernames on f are left as the caller set them.
func (db *DB) CreateFriendship(ctx context.Context, f *model.Friendship) error {
	ts := now()
	f.ID = xid.New().String()
	f.Status = model.StatusRequested
	f.CreatedAt = ts
	f.UpdatedAt = ts

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO friendships (id, requester_id, addressee_id, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID,
		f.RequesterID,
		f.AddresseeID,
		string(f.Status),
		toMillis(f.CreatedAt),
		toMillis(f.UpdatedAt),
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return apperror.Duplicate("friend request already sent")
		case isForeignKeyViolation(err):
			return apperror.NotFound("user", f.AddresseeID)
		case isCheckViolation(err):
			return apperror.ValidationFailed("addressee", "cannot send a friend request to yourself")
		}
		return storeError("creating friendship", err)
	}
	return nil
}

func (db *DB) GetFriendship(ctx context.Context, id string) (*model.Friendship, error) {
	return getFriendship(ctx, db.conn, id)
}

func getFriendship(ctx context.Context, q sqlx.QueryerContext, id string) (*model.Friendship, error) {
	var row friendshipRow
	err := sqlx.GetContext(ctx, q, &row, selectFriendship+` WHERE f.id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("friendship", id)
		}
		return nil, storeError("getting friendship", err)
	}
	f := row.toModel()
	return &f, nil
}

// ListFriendships returns the edges userID takes part in, newest first.
func (db *DB) ListFriendships(ctx context.Context, userID string, filter repository.FriendshipFilter) ([]model.Friendship, error) {
	var (
		where []string
		args  []any
	)

	switch filter.Direction {
	case model.DirectionIncoming:
		where = append(where, "f.addressee_id = ?")
		args = append(args, userID)
	case model.DirectionOutgoing:
		where = append(where, "f.requester_id = ?")
		args = append(args, userID)
	default:
		where = append(where, "(f.requester_id = ? OR f.addressee_id = ?)")
		args = append(args, userID, userID)
	}

	if filter.Status != "" {
		where = append(where, "f.status = ?")
		args = append(args, string(filter.Status))
	}

	query := selectFriendship +
		` WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY f.created_at DESC, f.id DESC`

	var rows []friendshipRow
	if err := db.conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, storeError("listing friendships", err)
	}

	edges := make([]model.Friendship, 0, len(rows))
	for _, r := range rows {
		edges = append(edges, r.toModel())
	}
	return edges, nil
}

// AcceptFriendship moves a requested edge to accepted, guarded on the
// addressee and the current status, and returns the updated edge.
func (db *DB) AcceptFriendship(ctx context.Context, id, addresseeID string) (*model.Friendship, error) {
	var accepted *model.Friendship

	err := db.withTx(ctx, "accepting friendship", func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE friendships SET status = ?, updated_at = ?
			 WHERE id = ? AND addressee_id = ? AND status = ?`,
			string(model.StatusAccepted),
			toMillis(now()),
			id,
			addresseeID,
			string(model.StatusRequested),
		)
		if err != nil {
			return storeError("accepting friendship", err)
		}
		if err := requireRow(result, "friendship", id); err != nil {
			return err
		}

		accepted, err = getFriendship(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return accepted, nil
}

// RejectFriendship removes a requested edge, guarded on the addressee.
func (db *DB) RejectFriendship(ctx context.Context, id, addresseeID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM friendships WHERE id = ? AND addressee_id = ? AND status = ?`,
		id, addresseeID, string(model.StatusRequested),
	)
	if err != nil {
		return storeError("rejecting friendship", err)
	}
	return requireRow(result, "friendship", id)
}

// DeleteAcceptedFriendship removes an accepted edge on behalf of either party.
func (db *DB) DeleteAcceptedFriendship(ctx context.Context, id, userID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM friendships
		 WHERE id = ? AND status = ? AND (requester_id = ? OR addressee_id = ?)`,
		id, string(model.StatusAccepted), userID, userID,
	)
	if err != nil {
		return storeError("deleting friendship", err)
	}
	return requireRow(result, "friendship", id)
}

// requireRow turns a guarded write that touched nothing into NotFound.
func requireRow(result sql.Result, resource, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return storeError("reading affected rows", err)
	}
	if rows == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
