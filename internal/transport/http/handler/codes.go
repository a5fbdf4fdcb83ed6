package handler

import (
	"encoding/json"
	"net/http"

	"github.com/donkcry/B--Blog/internal/application/account"
	"github.com/donkcry/B--Blog/internal/domain"
	"github.com/donkcry/B--Blog/internal/transport/http/middleware"
)

// CodeHandler exposes the verification-code endpoints: requesting a code for
// a purpose and the standalone check used by multi-step UI flows.
type CodeHandler struct {
	svc account.Service
}

func NewCodeHandler(svc account.Service) *CodeHandler { return &CodeHandler{svc: svc} }

type sendCodeRequest struct {
	Email   string         `json:"email"`
	Purpose domain.Purpose `json:"purpose"`
}

type verifyCodeRequest struct {
	Email   string         `json:"email"`
	Purpose domain.Purpose `json:"purpose"`
	Code    string         `json:"code"`
}

func (h *CodeHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// Authenticated purposes read the caller from the bearer token; the
	// public ones carry no identity yet.
	accountID := ""
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		accountID = claims.AccountID
	}
	if err := h.svc.RequestCode(r.Context(), req.Email, req.Purpose, accountID); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "verification code sent"})
}

func (h *CodeHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.VerifyCode(r.Context(), req.Email, req.Purpose, req.Code); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "verification code accepted"})
}
