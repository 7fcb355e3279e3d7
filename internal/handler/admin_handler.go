package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"library-client/internal/devapi"
	"library-client/internal/domain"
	"library-client/internal/observability"
)

// AdminHandler serves the admin console. Routes are mounted behind RequireAdmin.
type AdminHandler struct {
	lib *devapi.Library
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(lib *devapi.Library) *AdminHandler {
	return &AdminHandler{lib: lib}
}

// CategoryRequest is the body of category create and rename
type CategoryRequest struct {
	Name string `json:"name"`
}

// BorrowActionRequest is the body of a borrowing action
type BorrowActionRequest struct {
	Action     domain.BorrowAction `json:"action"`
	BorrowID   int64               `json:"borrow_id"`
	FineAmount *float64            `json:"fine_amount"`
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.lib.Dashboard())
}

func (h *AdminHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.lib.AdminBooks())
}

func (h *AdminHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req domain.BookInput
	if !decodeJSON(w, r, &req) {
		return
	}

	book, err := h.lib.CreateBook(req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, book)
}

func (h *AdminHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req domain.BookInput
	if !decodeJSON(w, r, &req) {
		return
	}

	book, err := h.lib.UpdateBook(id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (h *AdminHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.lib.DeleteBook(id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.lib.Categories())
}

func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	category, err := h.lib.AddCategory(req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (h *AdminHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req CategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	category, err := h.lib.RenameCategory(id, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.lib.DeleteCategory(id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListBorrowings filters by ?status=returned|unreturned|overdue; other values list everything
func (h *AdminHandler) ListBorrowings(w http.ResponseWriter, r *http.Request) {
	filter := domain.BorrowFilter(r.URL.Query().Get("status"))
	switch filter {
	case domain.FilterReturned, domain.FilterUnreturned, domain.FilterOverdue:
	default:
		filter = domain.FilterAll
	}
	writeJSON(w, http.StatusOK, h.lib.AllBorrowings(filter))
}

func (h *AdminHandler) BorrowAction(w http.ResponseWriter, r *http.Request) {
	var req BorrowActionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	status, err := h.lib.BorrowAction(req.Action, req.BorrowID, req.FineAmount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	observability.FromContext(r.Context()).Info("borrowing action applied",
		slog.String("action", string(req.Action)),
		slog.Int64("record_id", req.BorrowID))

	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// ListReviews filters by ?book=<title substring> and ?rating=<n>
func (h *AdminHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ReviewFilter{BookTitle: q.Get("book")}
	if raw := q.Get("rating"); raw != "" {
		rating, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string][]string{"rating": {"Enter a whole number."}})
			return
		}
		filter.Rating = rating
	}
	writeJSON(w, http.StatusOK, h.lib.FilterReviews(filter))
}

func (h *AdminHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.lib.RemoveReview(id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
