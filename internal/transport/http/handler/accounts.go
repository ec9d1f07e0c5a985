package handler

import (
	"net/http"

	"github.com/cartify-api/internal/application/account"
	"github.com/cartify-api/internal/domain"
)

// AccountHandler handles self-service registration.
type AccountHandler struct {
	svc account.Service
}

func NewAccountHandler(svc account.Service) *AccountHandler { return &AccountHandler{svc: svc} }

func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := h.svc.Register(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, RegisterEnvelope{
		Message:   "User registered successfully",
		UserID:    a.AccountID,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
	})
}
