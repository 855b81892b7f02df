package handler

import (
	"encoding/json"
	"net/http"

	"github.com/jobboard-api/internal/application/verification"
	"github.com/jobboard-api/internal/domain"
	"github.com/jobboard-api/internal/pkg/validate"
)

// EmailVerificationHandler handles the OTP send/verify/resend endpoints.
type EmailVerificationHandler struct {
	svc verification.Service
}

func NewEmailVerificationHandler(svc verification.Service) *EmailVerificationHandler {
	return &EmailVerificationHandler{svc: svc}
}

func (h *EmailVerificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	email, ok := h.decodeEmail(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Send(r.Context(), email)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *EmailVerificationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := h.svc.Verify(r.Context(), req.Email, req.Code); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "email verified"})
}

func (h *EmailVerificationHandler) Resend(w http.ResponseWriter, r *http.Request) {
	email, ok := h.decodeEmail(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Resend(r.Context(), email)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *EmailVerificationHandler) decodeEmail(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req domain.SendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return "", false
	}
	return req.Email, true
}
