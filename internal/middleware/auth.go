package middleware

import (
	"context"
	"net/http"
	"strings"

	"library-client/internal/devapi"
	"library-client/internal/observability"
)

type contextKey string

const UserKey contextKey = "user"

// Authenticator resolves an API token to its account.
type Authenticator interface {
	Authenticate(token string) (*devapi.User, error)
}

// TokenAuth requires an "Authorization: Token <key>" header naming a known token.
func TokenAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := tokenFromHeader(r.Header.Get("Authorization"))
			if !ok {
				writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
				return
			}

			user, err := auth.Authenticate(token)
			if err != nil {
				writeDetail(w, http.StatusUnauthorized, "Invalid token.")
				return
			}

			ctx := WithUser(r.Context(), user)
			ctx = observability.WithLibraryUser(ctx, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects authenticated users without the admin flag. It must run after TokenAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUser(r.Context())
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		if !user.IsAdmin {
			writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func tokenFromHeader(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Token") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Token")
	}
	w.WriteHeader(status)
	w.Write([]byte(`{"detail":"` + detail + `"}`))
}

func GetUser(ctx context.Context) (*devapi.User, bool) {
	user, ok := ctx.Value(UserKey).(*devapi.User)
	return user, ok
}

func WithUser(ctx context.Context, user *devapi.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}
