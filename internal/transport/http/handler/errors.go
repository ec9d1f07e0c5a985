package handler

import (
	"errors"
	"net/http"

	"github.com/cartify-api/internal/application/account"
	"github.com/cartify-api/internal/domain"
)

const msgInternal = "Internal server error"

// httpError maps a service error onto a fixed client message. Error text
// from services never reaches the response body.
func httpError(w http.ResponseWriter, err error) {
	status, msg := classify(err)
	writeError(w, status, msg)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInternal):
		return http.StatusInternalServerError, msgInternal
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "Invalid or expired token"
	case errors.Is(err, domain.ErrInvalidOrExpiredToken):
		return http.StatusBadRequest, "Invalid or expired token"
	case errors.Is(err, domain.ErrInvalidOrExpiredOTP):
		return http.StatusBadRequest, "Invalid or expired OTP"
	case errors.Is(err, domain.ErrInvalidOTP):
		return http.StatusBadRequest, "Invalid OTP"
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, "User not found"
	case errors.Is(err, domain.ErrSamePassword):
		return http.StatusBadRequest, "New password cannot be the same as the old password"
	case errors.Is(err, account.ErrEmailTaken):
		return http.StatusConflict, "Email already registered"
	case errors.Is(err, account.ErrPhoneTaken):
		return http.StatusConflict, "Phone number already registered"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrBadRequest):
		return http.StatusBadRequest, "bad request"
	default:
		return http.StatusInternalServerError, msgInternal
	}
}
