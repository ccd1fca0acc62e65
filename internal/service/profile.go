package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/socialgraph/internal/apperror"
	"github.com/sakif/socialgraph/internal/model"
	"github.com/sakif/socialgraph/internal/repository"
	"github.com/sakif/socialgraph/internal/validation"
)

const (
	MaxDisplayNameLength = 150
	MaxAvatarURLLength   = 500
	MaxBioLength         = 2000
)

// ProfileService reads and patches the caller's own profile. There is no
// path to write another user's profile: every method takes the acting
// user's ID from the authenticated request.
type ProfileService struct {
	profiles repository.ProfileRepository
	validate *validator.Validate
	logger   *slog.Logger
}

func NewProfileService(profiles repository.ProfileRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		validate: validation.New(),
		logger:   logger,
	}
}

func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	return s.profiles.GetProfile(ctx, userID)
}

// UpdateProfile applies the non-nil fields of patch. An empty patch returns
// the current profile unchanged.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, patch model.ProfileUpdate) (*model.Profile, error) {
	if err := s.checkPatch(&patch); err != nil {
		return nil, err
	}

	if patch.Empty() {
		return s.profiles.GetProfile(ctx, userID)
	}

	profile, err := s.profiles.UpdateProfile(ctx, userID, patch)
	if err != nil {
		return nil, fmt.Errorf("service/profile: updating: %w", err)
	}

	s.logger.Info("profile updated", slog.String("user_id", userID))
	return profile, nil
}

// checkPatch trims the provided fields in place and validates them.
func (s *ProfileService) checkPatch(patch *model.ProfileUpdate) error {
	if patch.DisplayName != nil {
		name := strings.TrimSpace(*patch.DisplayName)
		if name == "" {
			return apperror.ValidationFailed("display_name", "display_name cannot be blank")
		}
		if utf8.RuneCountInString(name) > MaxDisplayNameLength {
			return apperror.ValidationFailed("display_name",
				fmt.Sprintf("display_name must be %d characters or less", MaxDisplayNameLength))
		}
		patch.DisplayName = &name
	}

	if patch.AvatarURL != nil {
		url := strings.TrimSpace(*patch.AvatarURL)
		if err := validation.Var(s.validate, "avatar_url", url,
			fmt.Sprintf("omitempty,max=%d,http_url", MaxAvatarURLLength)); err != nil {
			return err
		}
		patch.AvatarURL = &url
	}

	if patch.Bio != nil && utf8.RuneCountInString(*patch.Bio) > MaxBioLength {
		return apperror.ValidationFailed("bio",
			fmt.Sprintf("bio must be %d characters or less", MaxBioLength))
	}

	return nil
}
