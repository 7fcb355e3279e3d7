package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"library-client/internal/domain"
)

// scope tells the error mapper which operation a response belongs to, since
// the API reuses 400 for several business-rule violations.
type scope int

const (
	scopeDefault scope = iota
	scopeLogin
	scopeBorrow
	scopeReviewCreate
	scopeCategoryDelete
	scopeBorrowAction
	scopeBookWrite
)

// Error is a failed API call. Kind is one of the domain taxonomy errors, so
// errors.Is(err, domain.ErrAlreadyBorrowed) works on it.
type Error struct {
	Status  int
	Message string
	Kind    error
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Status != 0 {
		return fmt.Sprintf("library api returned status %d", e.Status)
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func newError(status int, body []byte, s scope) *Error {
	msg := errorMessage(body)
	return &Error{
		Status:  status,
		Message: msg,
		Kind:    classify(status, msg, s),
	}
}

func classify(status int, msg string, s scope) error {
	lower := strings.ToLower(msg)

	switch status {
	case http.StatusUnauthorized:
		if s == scopeLogin {
			return domain.ErrInvalidCredentials
		}
		return domain.ErrUnauthenticated
	case http.StatusForbidden:
		return domain.ErrUnauthorized
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusBadRequest, http.StatusConflict:
		switch s {
		case scopeLogin:
			return domain.ErrInvalidCredentials
		case scopeBorrow:
			switch {
			case strings.Contains(lower, "already borrowed"):
				return domain.ErrAlreadyBorrowed
			case strings.Contains(lower, "no copies"),
				strings.Contains(lower, "unavailable"),
				strings.Contains(lower, "not available"):
				return domain.ErrUnavailable
			}
		case scopeReviewCreate:
			return domain.ErrDuplicateReview
		case scopeCategoryDelete:
			return domain.ErrCategoryInUse
		case scopeBorrowAction:
			if strings.Contains(lower, "negative") {
				return domain.ErrInvalidFine
			}
		case scopeBookWrite:
			if strings.Contains(lower, "copies") {
				return domain.ErrInvalidCopies
			}
		}
	}
	return domain.ErrUnknown
}

// errorMessage extracts a human-readable message from {"error": ...},
// {"detail": ...} or a field-error map such as {"rating": ["..."]}.
func errorMessage(body []byte) string {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return strings.TrimSpace(string(body))
	}

	for _, key := range []string{"error", "detail", "non_field_errors"} {
		if s := firstString(m[key]); s != "" {
			return s
		}
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if s := firstString(m[k]); s != "" {
			return k + ": " + s
		}
	}
	return ""
}

func firstString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		for _, item := range t {
			if s := firstString(item); s != "" {
				return s
			}
		}
	}
	return ""
}
