package handler

import (
	"encoding/json"
	"net/http"

	"github.com/donkcry/B--Blog/internal/application/account"
	"github.com/donkcry/B--Blog/internal/application/profile"
	"github.com/donkcry/B--Blog/internal/domain"
	"github.com/donkcry/B--Blog/internal/transport/http/middleware"
)

// avatars top out at 5 MiB.
const maxAvatarBytes = 5 << 20

// ProfileHandler serves the owner's account-management area.
type ProfileHandler struct {
	svc      profile.Service
	accounts account.Service
}

func NewProfileHandler(svc profile.Service, accounts account.Service) *ProfileHandler {
	return &ProfileHandler{svc: svc, accounts: accounts}
}

func (h *ProfileHandler) Browse(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	q := r.URL.Query()
	limit, cursor := parsePage(r)
	page, err := h.svc.Browse(r.Context(), claims.AccountID, q.Get("tab"), q.Get("q"), limit, cursor)
	if err != nil {
		httpError(w, err)
		return
	}
	a, err := h.accounts.Get(r.Context(), claims.AccountID)
	if err != nil {
		httpError(w, err)
		return
	}
	avatarURL, _ := h.svc.AvatarURL(r.Context(), claims.AccountID)
	writeJSON(w, http.StatusOK, struct {
		Account   *domain.Account `json:"account"`
		AvatarURL string          `json:"avatar_url,omitempty"`
		Page      *profile.Page   `json:"page"`
	}{Account: a, AvatarURL: avatarURL, Page: page})
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	a, err := h.accounts.UpdateProfile(r.Context(), claims.AccountID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeError(w, http.StatusBadRequest, "avatar file is required")
		return
	}
	defer file.Close()
	f, url, err := h.svc.UploadAvatar(r.Context(), claims.AccountID, header.Filename, header.Size, file)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		File *domain.File `json:"file"`
		URL  string       `json:"url"`
	}{File: f, URL: url})
}
