package api

import (
	"errors"
	"net/http"
	"testing"

	"library-client/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"error_key", `{"error":"No copies available"}`, "No copies available"},
		{"detail_key", `{"detail":"Invalid token."}`, "Invalid token."},
		{"non_field_errors", `{"non_field_errors":["must make a unique set"]}`, "must make a unique set"},
		{"field_errors_sorted", `{"title":["required"],"author":["required"]}`, "author: required"},
		{"plain_text", "Internal Server Error", "Internal Server Error"},
		{"empty_object", `{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorMessage([]byte(tt.body)))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		status int
		msg    string
		scope  scope
		want   error
	}{
		{"login_400", http.StatusBadRequest, "Invalid credentials", scopeLogin, domain.ErrInvalidCredentials},
		{"login_401", http.StatusUnauthorized, "", scopeLogin, domain.ErrInvalidCredentials},
		{"category_in_use", http.StatusBadRequest, "Cannot delete category with associated books.", scopeCategoryDelete, domain.ErrCategoryInUse},
		{"negative_fine", http.StatusBadRequest, "Fine cannot be negative.", scopeBorrowAction, domain.ErrInvalidFine},
		{"invalid_action", http.StatusBadRequest, "Invalid action", scopeBorrowAction, domain.ErrUnknown},
		{"review_conflict", http.StatusBadRequest, "", scopeReviewCreate, domain.ErrDuplicateReview},
		{"invalid_copies", http.StatusBadRequest, "Available copies plus borrowed copies cannot exceed total copies.", scopeBookWrite, domain.ErrInvalidCopies},
		{"default_400", http.StatusBadRequest, "bad", scopeDefault, domain.ErrUnknown},
		{"teapot", http.StatusTeapot, "", scopeDefault, domain.ErrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.status, tt.msg, tt.scope))
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := &Error{Kind: domain.ErrUnknown, Message: "could not reach the library service", Err: cause}

	assert.ErrorIs(t, err, domain.ErrUnknown)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "could not reach the library service", err.Error())
}

func TestError_FallbackText(t *testing.T) {
	err := &Error{Status: 502, Kind: domain.ErrUnknown}
	assert.Equal(t, "library api returned status 502", err.Error())
}
