package domain

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")

	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrInvalidOrExpiredOTP   = errors.New("invalid or expired otp")
	ErrInvalidOTP            = errors.New("invalid otp")
	ErrInvalidRequest        = errors.New("invalid request")
	ErrSamePassword          = errors.New("same password")
	ErrInternal              = errors.New("internal error")
)

// AuthError carries a client-facing kind plus a diagnostic reason that is
// only ever logged. Several causes share one Kind so responses stay identical.
type AuthError struct {
	Kind   error
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Kind }

// Reject builds an AuthError for kind with an internal reason.
func Reject(kind error, reason string) error {
	return &AuthError{Kind: kind, Reason: reason}
}

// ReasonOf returns the diagnostic reason of an AuthError, or "" otherwise.
func ReasonOf(err error) string {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Reason
	}
	return ""
}

// Internal wraps an infrastructure failure as ErrInternal, keeping the
// cause as an oops error with a code and the failing operation.
func Internal(code, operation string, err error) error {
	return fmt.Errorf("%w: %w", ErrInternal, oops.Code(code).With("operation", operation).Wrap(err))
}

// IsRejection reports whether err is a client-facing rejection rather than
// an internal fault.
func IsRejection(err error) bool {
	return err != nil && !errors.Is(err, ErrInternal)
}
