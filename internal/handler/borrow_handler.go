package handler

import (
	"log/slog"
	"net/http"

	"library-client/internal/devapi"
	"library-client/internal/domain"
	"library-client/internal/middleware"
	"library-client/internal/observability"
)

// BorrowHandler handles loans of the token user
type BorrowHandler struct {
	lib *devapi.Library
}

// NewBorrowHandler creates a new borrow handler
func NewBorrowHandler(lib *devapi.Library) *BorrowHandler {
	return &BorrowHandler{lib: lib}
}

// Borrow lends the book in the path to the token user
func (h *BorrowHandler) Borrow(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		writeError(w, r, domain.ErrUnauthenticated)
		return
	}
	bookID, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	record, err := h.lib.Borrow(user, bookID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	observability.FromContext(r.Context()).Info("book borrowed",
		slog.Int64("book_id", bookID),
		slog.Int64("record_id", record.ID))

	writeJSON(w, http.StatusOK, domain.BorrowReceipt{
		Message: "Borrowed " + record.BookTitle,
		Record:  record,
	})
}

// Return closes the loan in the path
func (h *BorrowHandler) Return(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		writeError(w, r, domain.ErrUnauthenticated)
		return
	}
	recordID, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	receipt, err := h.lib.Return(user, recordID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	observability.FromContext(r.Context()).Info("book returned",
		slog.Int64("record_id", recordID),
		slog.String("fine", receipt.Fine.String()))

	writeJSON(w, http.StatusOK, receipt)
}

// Mine lists the token user's loans
func (h *BorrowHandler) Mine(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		writeError(w, r, domain.ErrUnauthenticated)
		return
	}
	writeJSON(w, http.StatusOK, h.lib.Borrowings(user))
}
