package handler

import (
	"net/http"
	"strconv"
	"time"

	"library-client/internal/devapi"
)

const (
	defaultRankingLimit = 10
	maxRankingLimit     = 50
)

// AnalyticsHandler serves the read-only analytics endpoints. Every body carries
// a success flag; failures add an error string.
type AnalyticsHandler struct {
	lib *devapi.Library
	now func() time.Time
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(lib *devapi.Library) *AnalyticsHandler {
	return &AnalyticsHandler{lib: lib, now: time.Now}
}

func analyticsFailure(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

// BorrowedPerMonth counts loans per month of ?year, defaulting to the current year
func (h *AnalyticsHandler) BorrowedPerMonth(w http.ResponseWriter, r *http.Request) {
	year := h.now().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1 {
			analyticsFailure(w, http.StatusBadRequest, "Invalid year")
			return
		}
		year = y
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    h.lib.BorrowedPerMonth(year),
	})
}

func (h *AnalyticsHandler) TopByBorrowings(w http.ResponseWriter, r *http.Request) {
	ranking := h.lib.TopByBorrowings(rankingLimit(r))
	writeJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"metric":           ranking.Metric,
		"books":            ranking.Books,
		"labels":           ranking.Labels,
		"values":           ranking.Values,
		"total_borrowings": ranking.Total,
	})
}

func (h *AnalyticsHandler) TopByRatings(w http.ResponseWriter, r *http.Request) {
	ranking := h.lib.TopByRatings(rankingLimit(r))
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"metric":        ranking.Metric,
		"books":         ranking.Books,
		"labels":        ranking.Labels,
		"values":        ranking.Values,
		"total_reviews": ranking.Total,
	})
}

func rankingLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	switch {
	case err != nil || limit <= 0:
		return defaultRankingLimit
	case limit > maxRankingLimit:
		return maxRankingLimit
	default:
		return limit
	}
}
