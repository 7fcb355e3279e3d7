package handler

import (
	"context"
	"net/http"
	"time"

	"library-client/internal/devapi"
)

const serviceName = "library-devserver"

// Health returns basic health check
func Health(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"service": serviceName,
			"version": version,
		})
	}
}

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status    string                 `json:"status"`
	LatencyMs int64                  `json:"latency_ms,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// Ready reports whether the library store answers within the request deadline
func Ready(lib *devapi.Library) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		result := make(chan HealthCheckResult, 1)
		go func() {
			result <- checkLibrary(lib)
		}()

		var check HealthCheckResult
		select {
		case check = <-result:
		case <-ctx.Done():
			check = HealthCheckResult{Status: "down", Error: ctx.Err().Error()}
		}

		response := map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"checks": map[string]HealthCheckResult{
				"library": check,
			},
		}

		if check.Status == "up" {
			response["status"] = "ready"
			writeJSON(w, http.StatusOK, response)
			return
		}
		response["status"] = "not_ready"
		writeJSON(w, http.StatusServiceUnavailable, response)
	}
}

// checkLibrary takes the store's read lock once and reports its size
func checkLibrary(lib *devapi.Library) HealthCheckResult {
	start := time.Now()
	d := lib.Dashboard()

	return HealthCheckResult{
		Status:    "up",
		LatencyMs: time.Since(start).Milliseconds(),
		Metadata: map[string]interface{}{
			"users": d.UserCount,
			"books": d.BookCount,
			"loans": d.BorrowCount,
		},
	}
}
