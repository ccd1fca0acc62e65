package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/socialgraph/internal/model"
)

// Profiles reads and patches a user's own profile.
type Profiles interface {
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, userID string, patch model.ProfileUpdate) (*model.Profile, error)
}

type ProfileHandler struct {
	profiles Profiles
	validate *validator.Validate
	logger   *slog.Logger
}

func NewProfileHandler(profiles Profiles, validate *validator.Validate, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, validate: validate, logger: logger}
}

// HandleGet returns the caller's profile.
//
// HTTP: GET /profiles/me
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	p, err := h.profiles.GetProfile(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, p)
}

// HandleUpdate applies a partial update. Keys left out of the body keep their
// stored value; an empty string clears a field.
//
// HTTP: PATCH /profiles/me
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var body profilePatchBody
	if err := decodeJSON(w, r, h.validate, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	p, err := h.profiles.UpdateProfile(r.Context(), userID, model.ProfileUpdate{
		DisplayName: body.DisplayName,
		AvatarURL:   body.AvatarURL,
		Bio:         body.Bio,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, p)
}
