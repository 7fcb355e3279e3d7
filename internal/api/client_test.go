package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"library-client/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL+"/api", opts...)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestNewClient(t *testing.T) {
	t.Run("adds_trailing_slash", func(t *testing.T) {
		c, err := NewClient("http://localhost:8000/api")
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8000/api/", c.BaseURL())
	})

	t.Run("default_timeout", func(t *testing.T) {
		c, err := NewClient("http://localhost:8000/api/")
		require.NoError(t, err)
		assert.Equal(t, 10*time.Second, c.httpClient.Timeout)
	})

	t.Run("timeout_option", func(t *testing.T) {
		c, err := NewClient("http://localhost:8000/api/", WithTimeout(3*time.Second))
		require.NoError(t, err)
		assert.Equal(t, 3*time.Second, c.httpClient.Timeout)
	})

	t.Run("rejects_relative_url", func(t *testing.T) {
		_, err := NewClient("/api/")
		assert.Error(t, err)
	})
}

func TestClient_SendsTokenAndRequestID(t *testing.T) {
	var gotAuth, gotReqID, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
		gotPath = r.URL.Path
		writeJSON(w, http.StatusOK, []domain.Book{{ID: 1, Title: "Dune", TotalCopies: 2, AvailableCopies: 2}})
	}, WithTokenSource(staticToken("abc123")))

	books, err := c.ListBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 1)

	assert.Equal(t, "Token abc123", gotAuth)
	assert.NotEmpty(t, gotReqID)
	assert.Equal(t, "/api/books/", gotPath)
	assert.Equal(t, "Dune", books[0].Title)
}

func TestClient_AnonymousWithoutToken(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, []domain.Category{})
	}, WithTokenSource(staticToken("")))

	_, err := c.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestClient_LoginNeverSendsStaleToken(t *testing.T) {
	var gotAuth string
	var gotBody domain.Credentials
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		writeJSON(w, http.StatusOK, map[string]any{"token": "new", "is_admin": true, "full_name": "Ada L"})
	}, WithTokenSource(staticToken("stale")))

	s, err := c.Login(context.Background(), domain.Credentials{Username: "ada", Password: "pw"})
	require.NoError(t, err)

	assert.Empty(t, gotAuth)
	assert.Equal(t, "ada", gotBody.Username)
	assert.Equal(t, "new", s.Token)
	assert.True(t, s.IsAdmin)
	assert.Equal(t, "Ada L", s.DisplayName)
	assert.Equal(t, "ada", s.Username)
}

func TestClient_LoginInvalidCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid credentials"})
	})

	s, err := c.Login(context.Background(), domain.Credentials{Username: "ada", Password: "bad"})
	assert.Nil(t, s)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestClient_BorrowErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   any
		want   error
	}{
		{"already_borrowed", 400, map[string]string{"error": "You have already borrowed this book and not returned it yet."}, domain.ErrAlreadyBorrowed},
		{"no_copies", 400, map[string]string{"error": "No copies available"}, domain.ErrUnavailable},
		{"other_400", 400, map[string]string{"error": "something odd"}, domain.ErrUnknown},
		{"unauthenticated", 401, map[string]string{"detail": "Invalid token."}, domain.ErrUnauthenticated},
		{"forbidden", 403, map[string]string{"detail": "nope"}, domain.ErrUnauthorized},
		{"missing_book", 404, map[string]string{"detail": "Not found."}, domain.ErrNotFound},
		{"server_error", 500, "boom", domain.ErrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/api/borrow/5/" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				writeJSON(w, tt.status, tt.body)
			})

			_, err := c.Borrow(context.Background(), 5)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
		})
	}
}

func TestClient_BorrowSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Borrowed Dune"})
	})

	receipt, err := c.Borrow(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Borrowed Dune", receipt.Message)
	assert.Nil(t, receipt.Record)
}

func TestClient_ReturnParsesFine(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/return/9/", r.URL.Path)
		io.WriteString(w, `{"message":"Returned Dune","fine":"20.00","return_date":"2026-10-17T10:00:00Z"}`)
	})

	receipt, err := c.Return(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(20), receipt.Fine)
	require.NotNil(t, receipt.ReturnDate)
	assert.Equal(t, 2026, receipt.ReturnDate.Year())
}

func TestClient_ReviewCreateDuplicate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"non_field_errors": {"The fields user, book must make a unique set."}})
	})

	_, err := c.CreateReview(context.Background(), domain.ReviewInput{BookID: 5, Rating: 4, Content: "Good"})
	assert.ErrorIs(t, err, domain.ErrDuplicateReview)
	assert.Contains(t, err.Error(), "unique set")
}

func TestClient_ListReviewsQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("book"))
		io.WriteString(w, `[{"id":3,"book":5,"rating":4,"content":"Good","user_name":"ada","created_at":"2026-10-01T00:00:00Z"}]`)
	})

	reviews, err := c.ListReviews(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "ada", reviews[0].UserName)
	assert.Equal(t, int64(5), reviews[0].BookID)
}

func TestClient_AdminBorrowActionBody(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, map[string]string{"status": "fine updated"})
	})

	require.NoError(t, c.AdminBorrowAction(context.Background(), domain.ActionFine, 4, 12.5))
	assert.Equal(t, "fine", got["action"])
	assert.Equal(t, float64(4), got["borrow_id"])
	assert.Equal(t, 12.5, got["fine_amount"])

	require.NoError(t, c.AdminBorrowAction(context.Background(), domain.ActionReminder, 4, 0))
	_, hasFine := got["fine_amount"]
	assert.False(t, hasFine)
}

func TestClient_AdminListBorrowingsFilter(t *testing.T) {
	var status string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		status = r.URL.Query().Get("status")
		io.WriteString(w, `[]`)
	})

	_, err := c.AdminListBorrowings(context.Background(), domain.FilterOverdue)
	require.NoError(t, err)
	assert.Equal(t, "overdue", status)
}

func TestClient_NoRetryOnFailure(t *testing.T) {
	var attempts atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Borrow(context.Background(), 1)
	assert.Error(t, err)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestClient_NetworkError(t *testing.T) {
	c, err := NewClient("http://127.0.0.1:1/api/", WithTimeout(time.Second))
	require.NoError(t, err)

	_, err = c.ListBooks(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnknown)
}

func TestClient_ContextCancellation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		io.WriteString(w, `[]`)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.ListBooks(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_InvalidJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{not json`)
	})

	_, err := c.GetBook(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrUnknown)
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	}, WithRateLimit(0.001, 1))

	_, err := c.ListCategories(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = c.ListCategories(ctx)
	assert.Error(t, err)
}
