package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-client/internal/api"
	"library-client/internal/domain"
	"library-client/internal/observability"
)

// captureLogs points the global logger at a buffer for the rest of the test.
func captureLogs(t *testing.T, level, format string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	observability.InitLoggerTo(&buf, level, format)
	t.Cleanup(func() { observability.InitLoggerTo(&bytes.Buffer{}, "error", "text") })
	return &buf
}

func TestInitLoggerTo_Levels(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"debug", true, true, true},
		{"info", false, true, true},
		{"", false, true, true},
		{"bogus", false, true, true},
		{"warn", false, false, true},
		{"error", false, false, false},
	}

	for _, tt := range tests {
		t.Run("level_"+tt.level, func(t *testing.T) {
			buf := captureLogs(t, tt.level, "text")
			log := observability.FromContext(context.Background())
			log.Debug("catalog loaded")
			log.Info("signed in")
			log.Warn("review matched by name")

			out := buf.String()
			assert.Equal(t, tt.wantDebug, strings.Contains(out, "catalog loaded"))
			assert.Equal(t, tt.wantInfo, strings.Contains(out, "signed in"))
			assert.Equal(t, tt.wantWarn, strings.Contains(out, "review matched by name"))
		})
	}
}

func TestInitLoggerTo_JSON(t *testing.T) {
	buf := captureLogs(t, "info", "json")

	ctx := observability.WithLibraryUser(observability.WithRequestID(context.Background(), "req-7"), 42)
	observability.FromContext(ctx).Info("book borrowed", "book_id", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "book borrowed", entry["msg"])
	assert.Equal(t, "req-7", entry["request_id"])
	assert.Equal(t, float64(42), entry["user_id"])
	assert.Equal(t, float64(3), entry["book_id"])
}

func TestFromContext_Tags(t *testing.T) {
	buf := captureLogs(t, "info", "text")

	t.Run("untagged", func(t *testing.T) {
		buf.Reset()
		observability.FromContext(context.Background()).Info("signed out")
		assert.NotContains(t, buf.String(), "request_id")
		assert.NotContains(t, buf.String(), "user_id")
	})

	t.Run("anonymous user is not tagged", func(t *testing.T) {
		buf.Reset()
		ctx := observability.WithLibraryUser(context.Background(), 0)
		observability.FromContext(ctx).Info("signed in")
		assert.NotContains(t, buf.String(), "user_id")
	})

	t.Run("request id round trip", func(t *testing.T) {
		ctx := observability.WithRequestID(context.Background(), "abc")
		assert.Equal(t, "abc", observability.RequestIDFromContext(ctx))
		assert.Empty(t, observability.RequestIDFromContext(context.Background()))
	})
}

func TestAPIClientLogsCarryRequestID(t *testing.T) {
	buf := captureLogs(t, "info", "text")

	var sent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sent = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"No copies available."}`))
	}))
	defer srv.Close()

	client, err := api.NewClient(srv.URL + "/api/")
	require.NoError(t, err)

	t.Run("caller supplied id", func(t *testing.T) {
		buf.Reset()
		ctx := observability.WithLibraryUser(observability.WithRequestID(context.Background(), "cli-1"), 9)
		_, err := client.Borrow(ctx, 5)
		require.ErrorIs(t, err, domain.ErrUnavailable)

		assert.Equal(t, "cli-1", sent)
		out := buf.String()
		assert.Contains(t, out, "library api rejected request")
		assert.Contains(t, out, "request_id=cli-1")
		assert.Contains(t, out, "user_id=9")
	})

	t.Run("generated id", func(t *testing.T) {
		buf.Reset()
		_, err := client.Borrow(context.Background(), 5)
		require.Error(t, err)

		require.NotEmpty(t, sent)
		assert.Contains(t, buf.String(), "request_id="+sent)
	})
}
