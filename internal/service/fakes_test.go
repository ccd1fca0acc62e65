package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/socialgraph/internal/apperror"
	"github.com/sakif/socialgraph/internal/model"
	"github.com/sakif/socialgraph/internal/repository"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// testLogger only prints errors so test output stays readable.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeStore is an in-memory implementation of the user, profile, OTP and
// refresh token repositories. The maps mirror the tables; a single mutex
// stands in for the database's serialization.
type fakeStore struct {
	mu         sync.Mutex
	users      map[string]*model.User
	profiles   map[string]*model.Profile
	challenges []*model.OTPChallenge
	refresh    map[string]*model.RefreshToken

	// set to a non-nil error to simulate a database failure
	emailExistsErr error
	createTokenErr error
}

var (
	_ repository.UserRepository         = (*fakeStore)(nil)
	_ repository.ProfileRepository      = (*fakeStore)(nil)
	_ repository.OTPRepository          = (*fakeStore)(nil)
	_ repository.RefreshTokenRepository = (*fakeStore)(nil)
)

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[string]*model.User),
		profiles: make(map[string]*model.Profile),
		refresh:  make(map[string]*model.RefreshToken),
	}
}

// addUser inserts a user and its profile directly.
func (f *fakeStore) addUser(username, email, passwordHash string) *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &model.User{
		ID:           xid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	f.users[u.ID] = u
	f.profiles[u.ID] = &model.Profile{UserID: u.ID, Username: username, Email: email, DisplayName: username}
	return u
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeStore) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (f *fakeStore) EmailExists(_ context.Context, email string) (bool, error) {
	if f.emailExistsErr != nil {
		return false, f.emailExistsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListUsers(_ context.Context, opts repository.ListOptions) ([]model.UserSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]model.UserSummary, 0, len(f.users))
	for _, u := range f.users {
		all = append(all, model.UserSummary{ID: u.ID, Username: u.Username, Email: u.Email})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if opts.Offset >= len(all) {
		return []model.UserSummary{}, nil
	}
	end := min(opts.Offset+opts.Limit, len(all))
	return all[opts.Offset:end], nil
}

func (f *fakeStore) GetProfile(_ context.Context, userID string) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, apperror.NotFound("profile", userID)
	}
	copied := *p
	return &copied, nil
}

func (f *fakeStore) UpdateProfile(_ context.Context, userID string, patch model.ProfileUpdate) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, apperror.NotFound("profile", userID)
	}
	patch.Apply(p)
	p.UpdatedAt = time.Now()
	copied := *p
	return &copied, nil
}

func (f *fakeStore) CreateChallenge(_ context.Context, c *model.OTPChallenge) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = xid.New().String()
	copied := *c
	f.challenges = append(f.challenges, &copied)
	return nil
}

func (f *fakeStore) FindUnverifiedChallenge(_ context.Context, email, code string) (*model.OTPChallenge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.challenges) - 1; i >= 0; i-- {
		c := f.challenges[i]
		if c.Email == email && c.Code == code && !c.Verified {
			copied := *c
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("otp challenge", email)
}

func (f *fakeStore) CompleteRegistration(_ context.Context, challengeID string, user *model.User, profile *model.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var challenge *model.OTPChallenge
	for _, c := range f.challenges {
		if c.ID == challengeID {
			challenge = c
		}
	}
	if challenge == nil || challenge.Verified {
		return apperror.InvalidOTP()
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperror.EmailAlreadyRegistered(user.Email)
		}
		if u.Username == user.Username {
			return apperror.Conflict("username", user.Username)
		}
	}

	now := time.Now()
	challenge.Verified = true
	challenge.VerifiedAt = &now

	user.ID = xid.New().String()
	user.CreatedAt, user.UpdatedAt = now, now
	storedUser := *user
	f.users[user.ID] = &storedUser

	profile.UserID, profile.Username, profile.Email = user.ID, user.Username, user.Email
	storedProfile := *profile
	f.profiles[user.ID] = &storedProfile
	return nil
}

func (f *fakeStore) DeleteChallengesExpiredBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.challenges[:0]
	var n int64
	for _, c := range f.challenges {
		if c.ExpiresAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, c)
	}
	f.challenges = kept
	return n, nil
}

func (f *fakeStore) CreateRefreshToken(_ context.Context, t *model.RefreshToken) error {
	if f.createTokenErr != nil {
		return f.createTokenErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *t
	f.refresh[t.Token] = &copied
	return nil
}

func (f *fakeStore) FindRefreshToken(_ context.Context, token string) (*model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.refresh[token]
	if !ok {
		return nil, apperror.NotFound("refresh token", "(redacted)")
	}
	copied := *t
	return &copied, nil
}

func (f *fakeStore) RotateRefreshToken(_ context.Context, old string, replacement *model.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.refresh[old]; !ok {
		return apperror.NotFound("refresh token", "(redacted)")
	}
	delete(f.refresh, old)
	copied := *replacement
	f.refresh[replacement.Token] = &copied
	return nil
}

func (f *fakeStore) DeleteRefreshTokensExpiredBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, t := range f.refresh {
		if t.ExpiresAt.Before(cutoff) {
			delete(f.refresh, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) userCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

// sentMail records one SendOTP call.
type sentMail struct {
	to   string
	code string
}

// fakeMailer records deliveries, or fails every call when err is set.
type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendOTP(_ context.Context, to, code string, _ time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, code: code})
	return nil
}

// lastCode returns the most recent code delivered to an address.
func (m *fakeMailer) lastCode(to string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].to == to {
			return m.sent[i].code, nil
		}
	}
	return "", errors.New("no mail sent to " + to)
}
