package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/socialgraph/internal/model"
)

// Directory lists registered users.
type Directory interface {
	ListUsers(ctx context.Context, limit, offset int) ([]model.UserSummary, error)
}

type UserHandler struct {
	users  Directory
	logger *slog.Logger
}

func NewUserHandler(users Directory, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// HandleList returns one page of users, oldest account first.
//
// HTTP: GET /users?limit=20&offset=0
//
// limit=0 or a missing limit means the default page size; values above the
// maximum are clamped by the service.
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	users, err := h.users.ListUsers(r.Context(), limit, offset)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, users)
}
