package handler

import (
	"net/http"
	"strconv"

	"library-client/internal/devapi"
	"library-client/internal/domain"
	"library-client/internal/middleware"
)

// ReviewHandler handles book reviews
type ReviewHandler struct {
	lib *devapi.Library
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(lib *devapi.Library) *ReviewHandler {
	return &ReviewHandler{lib: lib}
}

// List returns reviews, optionally narrowed to ?book=<id>
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	var bookID int64
	if raw := r.URL.Query().Get("book"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string][]string{"book": {"Enter a number."}})
			return
		}
		bookID = id
	}
	writeJSON(w, http.StatusOK, h.lib.Reviews(bookID))
}

func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		writeError(w, r, domain.ErrUnauthenticated)
		return
	}

	var req domain.ReviewInput
	if !decodeJSON(w, r, &req) {
		return
	}

	review, err := h.lib.CreateReview(user, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		writeError(w, r, domain.ErrUnauthenticated)
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req domain.ReviewInput
	if !decodeJSON(w, r, &req) {
		return
	}

	review, err := h.lib.UpdateReview(user, id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		writeError(w, r, domain.ErrUnauthenticated)
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.lib.DeleteReview(user, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
