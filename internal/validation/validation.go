// Package validation configures the shared go-playground validator and
// converts its errors into apperror validation failures.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/socialgraph/internal/apperror"
)

// usernamePattern is letters, digits and @ . + - _
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9@.+_-]+$`)

// New returns a validator with the custom "username" tag registered and
// field names reported by their json tag.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	// The only error RegisterValidation returns is for an empty tag or nil func.
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})

	return v
}

// Struct validates s and returns the first failure as an *apperror.AppError.
func Struct(v *validator.Validate, s any) error {
	return toAppError(v.Struct(s), "")
}

// Var validates a single value under the given field name.
func Var(v *validator.Validate, field string, value any, tag string) error {
	return toAppError(v.Var(value, tag), field)
}

func toAppError(err error, field string) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.ValidationFailed(field, err.Error())
	}

	fe := verrs[0]
	name := field
	if name == "" {
		name = fe.Field()
	}
	return apperror.ValidationFailed(name, message(name, fe))
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "numeric":
		return fmt.Sprintf("%s must contain only digits", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "url", "http_url":
		return fmt.Sprintf("%s must be an http or https URL", field)
	case "username":
		return fmt.Sprintf("%s may contain only letters, digits and @/./+/-/_", field)
	}
	return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
}
