package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sakif/socialgraph/internal/model"
)

// Friendships manages the caller's edges in the friendship graph.
type Friendships interface {
	SendRequest(ctx context.Context, requesterID, addresseeUsername string) (*model.Friendship, error)
	ListFriendships(ctx context.Context, userID, status, direction string) ([]model.Friendship, error)
	RespondToRequest(ctx context.Context, edgeID, actingUserID, action string) (*model.Friendship, error)
	DeleteFriendship(ctx context.Context, edgeID, actingUserID string) error
}

// FriendshipHandler serves /friendships. Every route requires auth; the
// acting user always comes from the token, never from the body.
type FriendshipHandler struct {
	friendships Friendships
	validate    *validator.Validate
	logger      *slog.Logger
}

func NewFriendshipHandler(friendships Friendships, validate *validator.Validate, logger *slog.Logger) *FriendshipHandler {
	return &FriendshipHandler{friendships: friendships, validate: validate, logger: logger}
}

// HandleRequest sends a friend request to the user named in the body.
//
// HTTP: POST /friendships/request
func (h *FriendshipHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var body friendRequestBody
	if err := decodeJSON(w, r, h.validate, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	edge, err := h.friendships.SendRequest(r.Context(), userID, body.Addressee)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, edge)
}

// HandleList returns edges touching the caller.
//
// HTTP: GET /friendships?status=requested&direction=incoming
func (h *FriendshipHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	q := r.URL.Query()
	edges, err := h.friendships.ListFriendships(r.Context(), userID, q.Get("status"), q.Get("direction"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, edges)
}

// HandleRespond accepts or rejects a pending request addressed to the caller.
//
// HTTP: POST /friendships/respond/{edgeID}
//
// Accepting returns the updated edge. Rejecting deletes it, so there is no
// edge left to return.
func (h *FriendshipHandler) HandleRespond(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var body respondBody
	if err := decodeJSON(w, r, h.validate, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	edge, err := h.friendships.RespondToRequest(r.Context(), chi.URLParam(r, "edgeID"), userID, body.Action)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if edge == nil {
		writeJSON(w, h.logger, http.StatusOK, DetailResponse{Detail: "Friend request rejected"})
		return
	}
	writeJSON(w, h.logger, http.StatusOK, edge)
}

// HandleDelete removes an accepted friendship.
//
// HTTP: DELETE /friendships/{edgeID}
func (h *FriendshipHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.friendships.DeleteFriendship(r.Context(), chi.URLParam(r, "edgeID"), userID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
