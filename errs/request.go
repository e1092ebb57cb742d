package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Authentication & Authorization Errors
var (
	ErrMissingToken     = errors.New("missing access token")
	ErrExpiredToken     = errors.New("expired access token")
	ErrInvalidToken     = errors.New("invalid access token")
	ErrInsufficientRole = errors.New("insufficient role")
	ErrSecretMissing    = errors.New("token secret not configured")
)

// NewAuthError reports a failed admin check. The response body is always the
// generic "Unauthorized"; the reason travels as the cause for logging.
func NewAuthError(cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        errors.New("Unauthorized"),
		Cause:      cause,
	}
}

func NewInsufficientRoleError(requiredRole, actual string) error {
	return fmt.Errorf("%w: required %q, got %q", ErrInsufficientRole, requiredRole, actual)
}

// Authentication & Authorization Error Type Checkers
func IsMissingTokenError(err error) bool {
	return errors.Is(err, ErrMissingToken)
}

func IsExpiredTokenError(err error) bool {
	return errors.Is(err, ErrExpiredToken)
}

func IsInvalidTokenError(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}

func IsInsufficientRoleError(err error) bool {
	return errors.Is(err, ErrInsufficientRole)
}
