package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/socialgraph/internal/apperror"
	"github.com/sakif/socialgraph/internal/auth"
	"github.com/sakif/socialgraph/internal/mail"
	"github.com/sakif/socialgraph/internal/model"
	"github.com/sakif/socialgraph/internal/repository"
	"github.com/sakif/socialgraph/internal/validation"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 150
	MinPasswordLength = 8

	DefaultOTPTTL = 5 * time.Minute
)

// TokenIssuer mints an access/refresh pair for a user. AuthService implements it.
type TokenIssuer interface {
	IssueTokens(ctx context.Context, userID string) (*model.TokenPair, error)
}

// RegistrationService runs the OTP-gated sign-up workflow.
//
// FLOW:
//  1. RequestOTP validates the pending registration, stores a 6-digit code
//     bound to the email and hands it to the Mailer
//  2. VerifyOTP checks the code, then creates the user and profile in one
//     store transaction and returns a token pair
//
// Nothing about the pending registration is stored besides the challenge:
// the client sends username and password again with the code.
type RegistrationService struct {
	users     repository.UserRepository
	otps      repository.OTPRepository
	passwords *auth.PasswordService
	issuer    TokenIssuer
	mailer    mail.Mailer
	validate  *validator.Validate
	ttl       time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

type RegistrationConfig struct {
	OTPTTL time.Duration
}

func NewRegistrationService(
	users repository.UserRepository,
	otps repository.OTPRepository,
	passwords *auth.PasswordService,
	issuer TokenIssuer,
	mailer mail.Mailer,
	cfg RegistrationConfig,
	logger *slog.Logger,
) *RegistrationService {
	ttl := cfg.OTPTTL
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	return &RegistrationService{
		users:     users,
		otps:      otps,
		passwords: passwords,
		issuer:    issuer,
		mailer:    mailer,
		validate:  validation.New(),
		ttl:       ttl,
		now:       time.Now,
		logger:    logger,
	}
}

// RequestOTP issues a new challenge for reg.Email.
//
// Earlier challenges for the same email stay valid until they expire.
// A delivery failure is logged and does not fail the call: the challenge is
// already stored and the client may ask for another code.
func (s *RegistrationService) RequestOTP(ctx context.Context, reg model.Registration) (*model.OTPChallenge, error) {
	reg, err := s.checkRegistration(reg)
	if err != nil {
		return nil, err
	}

	exists, err := s.users.EmailExists(ctx, reg.Email)
	if err != nil {
		return nil, fmt.Errorf("service/registration: checking email: %w", err)
	}
	if exists {
		return nil, apperror.EmailAlreadyRegistered(reg.Email)
	}

	if _, err := s.users.GetUserByUsername(ctx, reg.Username); err == nil {
		return nil, apperror.Conflict("username", reg.Username)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/registration: checking username: %w", err)
	}

	code, err := auth.GenerateOTP()
	if err != nil {
		return nil, fmt.Errorf("service/registration: %w", err)
	}

	now := s.now()
	challenge := &model.OTPChallenge{
		Email:     reg.Email,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.otps.CreateChallenge(ctx, challenge); err != nil {
		return nil, fmt.Errorf("service/registration: storing challenge: %w", err)
	}

	if err := s.mailer.SendOTP(ctx, reg.Email, code, s.ttl); err != nil {
		s.logger.Warn("otp delivery failed",
			slog.String("challenge_id", challenge.ID),
			slog.String("email", reg.Email),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("otp requested",
		slog.String("challenge_id", challenge.ID),
		slog.String("email", reg.Email),
	)

	return challenge, nil
}

// VerifyOTP consumes the newest unverified challenge matching (email, code)
// and creates the account.
//
// ERRORS:
//   - ErrInvalidOTP: no unverified challenge matches, or a concurrent
//     verification consumed it first
//   - ErrExpiredOTP: the challenge matched but has expired; it stays unconsumed
//   - ErrEmailRegistered / ErrConflict: email or username taken meanwhile
func (s *RegistrationService) VerifyOTP(ctx context.Context, reg model.Registration, code string) (*model.User, *model.TokenPair, error) {
	reg, err := s.checkRegistration(reg)
	if err != nil {
		return nil, nil, err
	}
	code = strings.TrimSpace(code)
	if err := validation.Var(s.validate, "otp", code, "required,len=6,numeric"); err != nil {
		return nil, nil, err
	}

	challenge, err := s.otps.FindUnverifiedChallenge(ctx, reg.Email, code)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil, apperror.InvalidOTP()
		}
		return nil, nil, fmt.Errorf("service/registration: finding challenge: %w", err)
	}
	if challenge.Expired(s.now()) {
		return nil, nil, apperror.ExpiredOTP()
	}

	hash, err := s.passwords.Hash(reg.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("service/registration: %w", err)
	}

	user := &model.User{
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: hash,
	}
	profile := &model.Profile{DisplayName: reg.Username}

	if err := s.otps.CompleteRegistration(ctx, challenge.ID, user, profile); err != nil {
		return nil, nil, fmt.Errorf("service/registration: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	pair, err := s.issuer.IssueTokens(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("service/registration: issuing tokens: %w", err)
	}

	return user, pair, nil
}

// checkRegistration normalises the email and enforces the username and
// password rules, returning the cleaned registration.
func (s *RegistrationService) checkRegistration(reg model.Registration) (model.Registration, error) {
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))
	reg.Username = strings.TrimSpace(reg.Username)

	if err := validation.Var(s.validate, "email", reg.Email, "required,email,max=254"); err != nil {
		return reg, err
	}
	if err := validation.Var(s.validate, "username", reg.Username,
		fmt.Sprintf("required,min=%d,max=%d,username", MinUsernameLength, MaxUsernameLength)); err != nil {
		return reg, err
	}
	if err := checkPassword(reg.Password, reg.Username); err != nil {
		return reg, err
	}
	return reg, nil
}

func checkPassword(password, username string) error {
	switch {
	case len(password) < MinPasswordLength:
		return apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	case len(password) > auth.MaxPasswordBytes:
		return apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
	case isAllDigits(password):
		return apperror.ValidationFailed("password", "password cannot be entirely numeric")
	case strings.EqualFold(password, username):
		return apperror.ValidationFailed("password", "password cannot be the same as the username")
	}
	return nil
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
