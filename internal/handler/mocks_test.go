package handler_test

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/sakif/socialgraph/internal/auth"
	"github.com/sakif/socialgraph/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// as returns r authenticated as userID, as RequireAuth would leave it.
func as(r *http.Request, userID string) *http.Request {
	return r.WithContext(auth.WithUserID(r.Context(), userID))
}

// MockRegistrar records the registration it was handed.
type MockRegistrar struct {
	CapturedReg  model.Registration
	CapturedCode string
	ReturnUser   *model.User
	ReturnTokens *model.TokenPair
	ReturnErr    error
}

func (m *MockRegistrar) RequestOTP(ctx context.Context, reg model.Registration) (*model.OTPChallenge, error) {
	m.CapturedReg = reg
	if m.ReturnErr != nil {
		return nil, m.ReturnErr
	}
	return &model.OTPChallenge{ID: "c1", Email: reg.Email, Code: "123456"}, nil
}

func (m *MockRegistrar) VerifyOTP(ctx context.Context, reg model.Registration, code string) (*model.User, *model.TokenPair, error) {
	m.CapturedReg = reg
	m.CapturedCode = code
	if m.ReturnErr != nil {
		return nil, nil, m.ReturnErr
	}
	return m.ReturnUser, m.ReturnTokens, nil
}

type MockSessions struct {
	CapturedUsername string
	CapturedPassword string
	CapturedRefresh  string
	ReturnTokens     *model.TokenPair
	ReturnErr        error
}

func (m *MockSessions) Login(ctx context.Context, username, password string) (*model.TokenPair, error) {
	m.CapturedUsername, m.CapturedPassword = username, password
	return m.ReturnTokens, m.ReturnErr
}

func (m *MockSessions) Refresh(ctx context.Context, token string) (*model.TokenPair, error) {
	m.CapturedRefresh = token
	return m.ReturnTokens, m.ReturnErr
}

type MockUsers struct {
	CapturedID     string
	CapturedLimit  int
	CapturedOffset int
	ReturnUser     *model.User
	ReturnList     []model.UserSummary
	ReturnErr      error
}

func (m *MockUsers) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	m.CapturedID = id
	return m.ReturnUser, m.ReturnErr
}

func (m *MockUsers) ListUsers(ctx context.Context, limit, offset int) ([]model.UserSummary, error) {
	m.CapturedLimit, m.CapturedOffset = limit, offset
	return m.ReturnList, m.ReturnErr
}

type MockProfiles struct {
	CapturedUserID string
	CapturedPatch  model.ProfileUpdate
	ReturnProfile  *model.Profile
	ReturnErr      error
}

func (m *MockProfiles) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	m.CapturedUserID = userID
	return m.ReturnProfile, m.ReturnErr
}

func (m *MockProfiles) UpdateProfile(ctx context.Context, userID string, patch model.ProfileUpdate) (*model.Profile, error) {
	m.CapturedUserID = userID
	m.CapturedPatch = patch
	return m.ReturnProfile, m.ReturnErr
}

type MockFriendships struct {
	CapturedUserID    string
	CapturedAddressee string
	CapturedEdgeID    string
	CapturedAction    string
	CapturedStatus    string
	CapturedDirection string
	ReturnEdge        *model.Friendship
	ReturnList        []model.Friendship
	ReturnErr         error
}

func (m *MockFriendships) SendRequest(ctx context.Context, requesterID, addresseeUsername string) (*model.Friendship, error) {
	m.CapturedUserID, m.CapturedAddressee = requesterID, addresseeUsername
	return m.ReturnEdge, m.ReturnErr
}

func (m *MockFriendships) ListFriendships(ctx context.Context, userID, status, direction string) ([]model.Friendship, error) {
	m.CapturedUserID, m.CapturedStatus, m.CapturedDirection = userID, status, direction
	return m.ReturnList, m.ReturnErr
}

func (m *MockFriendships) RespondToRequest(ctx context.Context, edgeID, actingUserID, action string) (*model.Friendship, error) {
	m.CapturedEdgeID, m.CapturedUserID, m.CapturedAction = edgeID, actingUserID, action
	return m.ReturnEdge, m.ReturnErr
}

func (m *MockFriendships) DeleteFriendship(ctx context.Context, edgeID, actingUserID string) error {
	m.CapturedEdgeID, m.CapturedUserID = edgeID, actingUserID
	return m.ReturnErr
}

type MockPinger struct {
	ReturnErr error
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.ReturnErr
}
