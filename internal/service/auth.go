package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/socialgraph/internal/apperror"
	"github.com/sakif/socialgraph/internal/auth"
	"github.com/sakif/socialgraph/internal/model"
	"github.com/sakif/socialgraph/internal/repository"
)

const DefaultRefreshTTL = 7 * 24 * time.Hour

// invalidCredentials is shared by every login failure so responses do not
// reveal whether the username exists.
const invalidCredentials = "invalid username or password"

// AuthService issues sessions: login with a password, refresh rotation, and
// token minting for freshly registered users.
type AuthService struct {
	users      repository.UserRepository
	refresh    repository.RefreshTokenRepository
	tokens     *auth.TokenService
	passwords  *auth.PasswordService
	refreshTTL time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	refresh repository.RefreshTokenRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	refreshTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &AuthService{
		users:      users,
		refresh:    refresh,
		tokens:     tokens,
		passwords:  passwords,
		refreshTTL: refreshTTL,
		now:        time.Now,
		logger:     logger,
	}
}

// IssueTokens signs an access token and stores a new refresh token.
func (s *AuthService) IssueTokens(ctx context.Context, userID string) (*model.TokenPair, error) {
	access, err := s.tokens.Generate(userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	rt, err := s.newRefreshToken(userID)
	if err != nil {
		return nil, err
	}
	if err := s.refresh.CreateRefreshToken(ctx, rt); err != nil {
		return nil, fmt.Errorf("service/auth: storing refresh token: %w", err)
	}

	return &model.TokenPair{Access: access, Refresh: rt.Token}, nil
}

// Login checks username and password and returns a fresh token pair.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.TokenPair, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperror.Unauthorized(invalidCredentials)
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized(invalidCredentials)
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Info("login failed", slog.String("user_id", user.ID))
			return nil, apperror.Unauthorized(invalidCredentials)
		}
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	pair, err := s.IssueTokens(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	return pair, nil
}

// Refresh trades a refresh token for a new pair. The presented token is
// consumed in the same transaction that stores its replacement, so a token
// can be redeemed once.
func (s *AuthService) Refresh(ctx context.Context, token string) (*model.TokenPair, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperror.Unauthorized("refresh token is required")
	}

	stored, err := s.refresh.FindRefreshToken(ctx, token)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid refresh token")
		}
		return nil, fmt.Errorf("service/auth: finding refresh token: %w", err)
	}
	if !s.now().Before(stored.ExpiresAt) {
		return nil, apperror.Unauthorized("refresh token expired")
	}

	replacement, err := s.newRefreshToken(stored.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.refresh.RotateRefreshToken(ctx, token, replacement); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid refresh token")
		}
		return nil, fmt.Errorf("service/auth: rotating refresh token: %w", err)
	}

	access, err := s.tokens.Generate(stored.UserID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	return &model.TokenPair{Access: access, Refresh: replacement.Token}, nil
}

func (s *AuthService) newRefreshToken(userID string) (*model.RefreshToken, error) {
	raw, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}
	now := s.now()
	return &model.RefreshToken{
		Token:     raw,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.refreshTTL),
	}, nil
}
