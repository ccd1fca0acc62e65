package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/socialgraph/internal/auth"
	"github.com/sakif/socialgraph/internal/model"
)

// Registrar runs the two OTP registration steps.
type Registrar interface {
	RequestOTP(ctx context.Context, reg model.Registration) (*model.OTPChallenge, error)
	VerifyOTP(ctx context.Context, reg model.Registration, code string) (*model.User, *model.TokenPair, error)
}

// Sessions issues token pairs for existing users.
type Sessions interface {
	Login(ctx context.Context, username, password string) (*model.TokenPair, error)
	Refresh(ctx context.Context, token string) (*model.TokenPair, error)
}

// UserLookup resolves the authenticated user for HandleMe.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// AuthHandler serves registration and session endpoints.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRequestOTP → validate a pending registration and mail a code
//   - HandleVerifyOTP  → check the code, create the account, issue tokens
//   - HandleLogin      → exchange username/password for tokens
//   - HandleRefresh    → rotate a refresh token
//   - HandleLogout     → clear the token cookie
//   - HandleMe         → return the currently logged-in user
type AuthHandler struct {
	registrar Registrar
	sessions  Sessions
	users     UserLookup
	accessTTL time.Duration
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewAuthHandler creates an AuthHandler. accessTTL sets the lifetime of the
// token cookie and should match the TokenService's TTL.
func NewAuthHandler(
	registrar Registrar,
	sessions Sessions,
	users UserLookup,
	accessTTL time.Duration,
	validate *validator.Validate,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		registrar: registrar,
		sessions:  sessions,
		users:     users,
		accessTTL: accessTTL,
		validate:  validate,
		logger:    logger,
	}
}

// registeredResponse is returned once an OTP is verified.
type registeredResponse struct {
	User    model.UserSummary `json:"user"`
	Access  string            `json:"access"`
	Refresh string            `json:"refresh"`
}

// HandleRequestOTP starts a registration.
//
// HTTP: POST /auth/otp/request
//
// The response never contains the code. A mail delivery failure is logged by
// the service and still answers 200.
func (h *AuthHandler) HandleRequestOTP(w http.ResponseWriter, r *http.Request) {
	var body otpRequestBody
	if err := decodeJSON(w, r, h.validate, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	_, err := h.registrar.RequestOTP(r.Context(), model.Registration{
		Username: body.Username,
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, DetailResponse{Detail: "OTP sent to email"})
}

// HandleVerifyOTP completes a registration.
//
// HTTP: POST /auth/otp/verify
//
// The client re-sends username and password with the code; only the code and
// its expiry are stored server-side between the two steps.
func (h *AuthHandler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var body otpVerifyBody
	if err := decodeJSON(w, r, h.validate, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, tokens, err := h.registrar.VerifyOTP(r.Context(), model.Registration{
		Username: body.Username,
		Email:    body.Email,
		Password: body.Password,
	}, body.OTP)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.setTokenCookie(w, tokens.Access)
	writeJSON(w, h.logger, http.StatusCreated, registeredResponse{
		User:    model.UserSummary{ID: user.ID, Username: user.Username, Email: user.Email},
		Access:  tokens.Access,
		Refresh: tokens.Refresh,
	})
}

// HandleLogin exchanges credentials for a token pair.
//
// HTTP: POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if err := decodeJSON(w, r, h.validate, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	tokens, err := h.sessions.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.setTokenCookie(w, tokens.Access)
	writeJSON(w, h.logger, http.StatusOK, tokens)
}

// HandleRefresh rotates a refresh token. The old token stops working as soon
// as this returns.
//
// HTTP: POST /auth/refresh
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var body refreshBody
	if err := decodeJSON(w, r, h.validate, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	tokens, err := h.sessions.Refresh(r.Context(), body.Refresh)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.setTokenCookie(w, tokens.Access)
	writeJSON(w, h.logger, http.StatusOK, tokens)
}

// HandleLogout clears the token cookie.
//
// HTTP: POST /auth/logout
//
// Access tokens are stateless, so one already handed out stays valid until it
// expires; refresh tokens simply age out.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, h.logger, http.StatusOK, DetailResponse{Detail: "logged out"})
}

// HandleMe returns the authenticated user.
//
// HTTP: GET /auth/me
// Auth: Required
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, user)
}

// setTokenCookie mirrors the access token into an HttpOnly cookie so browser
// clients do not have to manage the Authorization header themselves.
func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.accessTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
