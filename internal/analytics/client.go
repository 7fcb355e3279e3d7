// Package analytics is a read-only client for the library analytics service.
package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"library-client/internal/domain"
	"library-client/internal/observability"

	"github.com/google/uuid"
)

var (
	ErrServiceFailed   = errors.New("analytics service reported failure")
	ErrInvalidResponse = errors.New("invalid response from analytics service")
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
)

// Health is the analytics service health payload.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// Client handles requests to the analytics service
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new analytics client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type monthlyResponse struct {
	Success bool                     `json:"success"`
	Error   string                   `json:"error"`
	Data    domain.MonthlyBorrowings `json:"data"`
}

// BorrowedPerMonth returns the per-month borrow counts of year.
func (c *Client) BorrowedPerMonth(ctx context.Context, year int) (*domain.MonthlyBorrowings, error) {
	q := url.Values{}
	if year > 0 {
		q.Set("year", strconv.Itoa(year))
	}

	var resp monthlyResponse
	if err := c.get(ctx, "/analytics/borrowed-per-month", "borrowed_per_month", q, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: %s", ErrServiceFailed, resp.Error)
	}
	if len(resp.Data.Labels) != len(resp.Data.Values) {
		return nil, fmt.Errorf("%w: %d labels for %d values", ErrInvalidResponse, len(resp.Data.Labels), len(resp.Data.Values))
	}
	return &resp.Data, nil
}

type rankingResponse struct {
	Success         bool                   `json:"success"`
	Error           string                 `json:"error"`
	Metric          string                 `json:"metric"`
	Books           []domain.RankedBookRow `json:"books"`
	Labels          []string               `json:"labels"`
	Values          []float64              `json:"values"`
	TotalBorrowings int                    `json:"total_borrowings"`
	TotalReviews    int                    `json:"total_reviews"`
}

// TopByBorrowings returns the limit most borrowed books.
func (c *Client) TopByBorrowings(ctx context.Context, limit int) (*domain.BookRanking, error) {
	return c.ranking(ctx, "/analytics/top-books-by-borrowings", "top_by_borrowings", limit)
}

// TopByRatings returns the limit best rated books.
func (c *Client) TopByRatings(ctx context.Context, limit int) (*domain.BookRanking, error) {
	return c.ranking(ctx, "/analytics/top-books-by-ratings", "top_by_ratings", limit)
}

func (c *Client) ranking(ctx context.Context, path, endpoint string, limit int) (*domain.BookRanking, error) {
	q := url.Values{"limit": {strconv.Itoa(clampLimit(limit))}}

	var resp rankingResponse
	if err := c.get(ctx, path, endpoint, q, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: %s", ErrServiceFailed, resp.Error)
	}

	total := resp.TotalBorrowings
	if resp.Metric == "ratings" {
		total = resp.TotalReviews
	}
	return &domain.BookRanking{
		Metric: resp.Metric,
		Books:  resp.Books,
		Labels: resp.Labels,
		Values: resp.Values,
		Total:  total,
	}, nil
}

// Health checks that the analytics service is up.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.get(ctx, "/health", "health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

func (c *Client) get(ctx context.Context, path, endpoint string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	reqID := observability.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observe(endpoint, "error", start)
		return fmt.Errorf("failed to reach analytics service: %w", err)
	}
	defer resp.Body.Close()
	observe(endpoint, strconv.Itoa(resp.StatusCode), start)

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// Failures still carry {success:false, error} when the service produced them.
		var failure struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &failure) == nil && failure.Error != "" {
			return fmt.Errorf("%w: %s", ErrServiceFailed, failure.Error)
		}
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

func observe(endpoint, status string, start time.Time) {
	observability.APIRequestDuration.WithLabelValues("analytics", http.MethodGet, endpoint, status).
		Observe(time.Since(start).Seconds())
	observability.APIRequestsTotal.WithLabelValues("analytics", http.MethodGet, endpoint, status).Inc()
}
