package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"library-client/internal/devapi"
	"library-client/internal/domain"
	"library-client/internal/observability"

	"github.com/go-chi/chi/v5"
)

// Response bodies follow the shapes of the production API so that the client
// classifies dev server errors the same way.
const (
	msgAlreadyBorrowed = "You have already borrowed this book and not returned it yet."
	msgNoCopies        = "No copies available"
	msgInvalidCopies   = "Available copies plus borrowed copies cannot exceed total copies."
	msgCategoryInUse   = "Cannot delete category with associated books."
	msgDuplicateReview = "The fields user, book must make a unique set."
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeError maps a library error onto the status and body the real API uses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		writeDetail(w, http.StatusUnauthorized, "Invalid token.")
	case errors.Is(err, domain.ErrUnauthorized):
		writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
	case errors.Is(err, domain.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid credentials"})
	case errors.Is(err, domain.ErrAlreadyBorrowed):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msgAlreadyBorrowed})
	case errors.Is(err, domain.ErrUnavailable):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msgNoCopies})
	case errors.Is(err, domain.ErrDuplicateReview):
		writeJSON(w, http.StatusBadRequest, map[string][]string{"non_field_errors": {msgDuplicateReview}})
	case errors.Is(err, domain.ErrInvalidRating):
		writeJSON(w, http.StatusBadRequest, map[string][]string{"rating": {"Rating must be between 1 and 5."}})
	case errors.Is(err, domain.ErrInvalidCopies):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msgInvalidCopies})
	case errors.Is(err, domain.ErrInvalidFine):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Fine cannot be negative."})
	case errors.Is(err, domain.ErrCategoryInUse):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msgCategoryInUse})
	case errors.Is(err, devapi.ErrUsernameTaken):
		writeJSON(w, http.StatusBadRequest, map[string][]string{"username": {"A user with that username already exists."}})
	case errors.Is(err, devapi.ErrAlreadyReturned):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Already returned."})
	case errors.Is(err, devapi.ErrInvalidAction):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid action"})
	case errors.Is(err, domain.ErrInvalidInput):
		writeDetail(w, http.StatusBadRequest, "Invalid input.")
	default:
		observability.FromContext(r.Context()).Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		writeDetail(w, http.StatusInternalServerError, "A server error occurred.")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON parse error.")
		return false
	}
	return true
}

// idParam reads a positive numeric path parameter; anything else is a 404.
func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return 0, false
	}
	return id, true
}
