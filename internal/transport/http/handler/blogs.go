package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/donkcry/B--Blog/internal/application/blog"
	"github.com/donkcry/B--Blog/internal/domain"
	"github.com/donkcry/B--Blog/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// BlogHandler handles the public blog endpoints.
type BlogHandler struct {
	svc blog.Service
}

func NewBlogHandler(svc blog.Service) *BlogHandler { return &BlogHandler{svc: svc} }

func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, cursor := parsePage(r)
	blogs, next, err := h.svc.List(r.Context(), "", limit, cursor)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PageEnvelope{Data: blogs, NextCursor: next})
}

func (h *BlogHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	limit, cursor := parsePage(r)
	blogs, next, err := h.svc.List(r.Context(), q, limit, cursor)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PageEnvelope{Data: blogs, NextCursor: next})
}

func (h *BlogHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, comments, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Blog     *domain.Blog         `json:"blog"`
		Comments []domain.BlogComment `json:"comments"`
	}{Blog: b, Comments: comments})
}

func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.CreateBlogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	b, err := h.svc.Create(r.Context(), claims.AccountID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *BlogHandler) Comment(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := h.svc.Comment(r.Context(), chi.URLParam(r, "id"), claims.AccountID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *BlogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.Categories(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PageEnvelope{Data: cats})
}

func parsePage(r *http.Request) (limit int, cursor string) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	return limit, r.URL.Query().Get("cursor")
}
