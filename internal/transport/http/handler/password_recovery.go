package handler

import (
	"errors"
	"net/http"

	"github.com/cartify-api/internal/application/auth"
	"github.com/cartify-api/internal/domain"
)

// PasswordRecoveryHandler handles the three-step password reset flow.
type PasswordRecoveryHandler struct {
	svc auth.Service
}

func NewPasswordRecoveryHandler(svc auth.Service) *PasswordRecoveryHandler {
	return &PasswordRecoveryHandler{svc: svc}
}

func (h *PasswordRecoveryHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req auth.ForgotPasswordRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate OTP")
		return
	}
	writeJSON(w, http.StatusOK, ForgotPasswordEnvelope{Message: res.Message, OTPVerificationToken: res.VerificationToken})
}

func (h *PasswordRecoveryHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req auth.VerifyOTPRequest
	if !decode(w, r, &req) {
		return
	}
	resetToken, err := h.svc.VerifyOTP(r.Context(), req.OTPVerificationToken, req.OTP)
	if errors.Is(err, domain.ErrInvalidOrExpiredToken) {
		writeError(w, http.StatusBadRequest, "Invalid or expired verification token")
		return
	}
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, VerifyOTPEnvelope{Message: "OTP verified successfully", ResetToken: resetToken})
}

func (h *PasswordRecoveryHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req auth.ResetPasswordRequest
	if !decode(w, r, &req) {
		return
	}
	err := h.svc.ResetPassword(r.Context(), req.ResetToken, req.NewPassword)
	if errors.Is(err, domain.ErrInvalidOrExpiredToken) {
		writeError(w, http.StatusBadRequest, "Invalid or expired reset token")
		return
	}
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Password reset successfully"})
}
