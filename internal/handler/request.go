package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/socialgraph/internal/apperror"
	"github.com/sakif/socialgraph/internal/auth"
	"github.com/sakif/socialgraph/internal/validation"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON body into dst and runs its `validate` tags.
// Every failure is an apperror validation error, so callers just writeError it.
func decodeJSON(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("", "request body is required")
		case errors.As(err, &maxErr):
			return apperror.ValidationFailed("", fmt.Sprintf("request body must be %d bytes or fewer", maxErr.Limit))
		case errors.As(err, &typeErr):
			return apperror.ValidationFailed(typeErr.Field, fmt.Sprintf("%s has the wrong type", typeErr.Field))
		}
		return apperror.ValidationFailed("", "invalid JSON body")
	}

	return validation.Struct(v, dst)
}

type otpRequestBody struct {
	Email    string `json:"email"    validate:"required"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type otpVerifyBody struct {
	Email    string `json:"email"    validate:"required"`
	OTP      string `json:"otp"      validate:"required,len=6,numeric"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginBody struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshBody struct {
	Refresh string `json:"refresh" validate:"required"`
}

// profilePatchBody fields are pointers so an absent key is distinguishable
// from an empty string.
type profilePatchBody struct {
	DisplayName *string `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
	Bio         *string `json:"bio"`
}

type friendRequestBody struct {
	Addressee string `json:"addressee" validate:"required"`
}

type respondBody struct {
	Action string `json:"action" validate:"required"`
}

// errNoUser is returned when a protected route runs without RequireAuth
// having stored a user ID.
var errNoUser = apperror.Unauthorized("valid authentication required")

func currentUser(r *http.Request) (string, error) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return "", errNoUser
	}
	return userID, nil
}

// queryInt reads a non-negative integer query parameter, returning def when
// it is absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperror.ValidationFailed(name, fmt.Sprintf("%s must be a non-negative integer", name))
	}
	return n, nil
}
