package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/socialgraph/internal/apperror"
	"github.com/sakif/socialgraph/internal/model"
	"github.com/sakif/socialgraph/internal/repository"
)

// FriendshipService drives the friendship state machine.
//
// STATE MACHINE:
//
//	send    (none)    → requested   by anyone except the addressee themself
//	accept  requested → accepted    by the addressee only
//	reject  requested → (deleted)   by the addressee only
//	delete  accepted  → (deleted)   by either party
//
// Every transition is a guarded write in the store (status and party in the
// WHERE clause), so of two concurrent transitions on one edge exactly one
// wins and the other reports NotFound. The service checks authorization
// before state so a stranger learns nothing about an edge's status.
type FriendshipService struct {
	users       repository.UserRepository
	friendships repository.FriendshipRepository
	logger      *slog.Logger
}

func NewFriendshipService(users repository.UserRepository, friendships repository.FriendshipRepository, logger *slog.Logger) *FriendshipService {
	return &FriendshipService{
		users:       users,
		friendships: friendships,
		logger:      logger,
	}
}

// SendRequest creates a requested edge from requesterID to the user named
// addresseeUsername. The reverse edge may already exist; it is a separate pair.
func (s *FriendshipService) SendRequest(ctx context.Context, requesterID, addresseeUsername string) (*model.Friendship, error) {
	addresseeUsername = strings.TrimSpace(addresseeUsername)
	if addresseeUsername == "" {
		return nil, apperror.ValidationFailed("addressee", "addressee is required")
	}

	requester, err := s.users.GetUserByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	addressee, err := s.users.GetUserByUsername(ctx, addresseeUsername)
	if err != nil {
		return nil, err
	}
	if addressee.ID == requester.ID {
		return nil, apperror.ValidationFailed("addressee", "cannot send a friend request to yourself")
	}

	f := &model.Friendship{
		RequesterID: requester.ID,
		Requester:   requester.Username,
		AddresseeID: addressee.ID,
		Addressee:   addressee.Username,
	}
	if err := s.friendships.CreateFriendship(ctx, f); err != nil {
		return nil, fmt.Errorf("service/friendship: sending request: %w", err)
	}

	s.logger.Info("friend request sent",
		slog.String("friendship_id", f.ID),
		slog.String("requester_id", f.RequesterID),
		slog.String("addressee_id", f.AddresseeID),
	)
	return f, nil
}

// ListFriendships returns the caller's edges, newest first. status and
// direction are optional; empty means any.
func (s *FriendshipService) ListFriendships(ctx context.Context, userID, status, direction string) ([]model.Friendship, error) {
	filter := repository.FriendshipFilter{
		Status:    model.FriendshipStatus(strings.TrimSpace(status)),
		Direction: model.FriendshipDirection(strings.TrimSpace(direction)),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperror.ValidationFailed("status", "status must be one of: requested, accepted")
	}
	if !filter.Direction.Valid() {
		return nil, apperror.ValidationFailed("direction", "direction must be one of: incoming, outgoing")
	}

	edges, err := s.friendships.ListFriendships(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("service/friendship: listing: %w", err)
	}
	return edges, nil
}

// RespondToRequest accepts or rejects a pending request addressed to
// actingUserID. Accept returns the updated edge; reject returns nil.
func (s *FriendshipService) RespondToRequest(ctx context.Context, edgeID, actingUserID, action string) (*model.Friendship, error) {
	act := model.FriendshipAction(strings.TrimSpace(action))
	if !act.Valid() {
		return nil, apperror.ValidationFailed("action", "action must be one of: accept, reject")
	}

	f, err := s.friendships.GetFriendship(ctx, edgeID)
	if err != nil {
		return nil, err
	}
	if f.AddresseeID != actingUserID {
		return nil, apperror.Forbidden("only the addressee can respond to this request")
	}
	if f.Status != model.StatusRequested {
		return nil, apperror.NotFound("friend request", edgeID)
	}

	switch act {
	case model.ActionAccept:
		accepted, err := s.friendships.AcceptFriendship(ctx, edgeID, actingUserID)
		if err != nil {
			return nil, fmt.Errorf("service/friendship: accepting: %w", err)
		}
		s.logger.Info("friend request accepted", slog.String("friendship_id", edgeID))
		return accepted, nil

	default:
		if err := s.friendships.RejectFriendship(ctx, edgeID, actingUserID); err != nil {
			return nil, fmt.Errorf("service/friendship: rejecting: %w", err)
		}
		s.logger.Info("friend request rejected", slog.String("friendship_id", edgeID))
		return nil, nil
	}
}

// DeleteFriendship removes an accepted edge. Either party may delete it;
// pending requests are not deletable here (the addressee rejects them).
func (s *FriendshipService) DeleteFriendship(ctx context.Context, edgeID, actingUserID string) error {
	f, err := s.friendships.GetFriendship(ctx, edgeID)
	if err != nil {
		return err
	}
	if !f.Involves(actingUserID) {
		return apperror.Forbidden("only a party to this friendship can delete it")
	}
	if f.Status != model.StatusAccepted {
		return apperror.NotFound("friendship", edgeID)
	}

	if err := s.friendships.DeleteAcceptedFriendship(ctx, edgeID, actingUserID); err != nil {
		return fmt.Errorf("service/friendship: deleting: %w", err)
	}

	s.logger.Info("friendship deleted",
		slog.String("friendship_id", edgeID),
		slog.String("user_id", actingUserID),
	)
	return nil
}
