package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/socialgraph/internal/model"
	"github.com/sakif/socialgraph/internal/repository"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// ListUsers returns one page of the user directory. limit is clamped to
// [1, MaxListLimit] (0 means DefaultListLimit); a negative offset becomes 0.
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]model.UserSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.users.ListUsers(ctx, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("service/users: listing: %w", err)
	}
	return users, nil
}
