package handler

import (
	"log/slog"
	"net/http"

	"library-client/internal/devapi"
	"library-client/internal/domain"
	"library-client/internal/middleware"
	"library-client/internal/observability"
)

// AuthHandler handles login, signup and profile endpoints
type AuthHandler struct {
	lib *devapi.Library
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(lib *devapi.Library) *AuthHandler {
	return &AuthHandler{lib: lib}
}

// LoginResponse is returned by login
type LoginResponse struct {
	Token    string `json:"token"`
	IsAdmin  bool   `json:"is_admin"`
	FullName string `json:"full_name"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// SignupResponse is returned by signup
type SignupResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	UserID   int64  `json:"user_id"`
}

// Login exchanges credentials for the account's token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.Credentials
	if !decodeJSON(w, r, &req) {
		return
	}

	token, user, err := h.lib.Login(req.Username, req.Password)
	if err != nil {
		observability.FromContext(r.Context()).Info("login rejected", slog.String("username", req.Username))
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:    token,
		IsAdmin:  user.IsAdmin,
		FullName: user.FullName,
		UserID:   user.ID,
		Username: user.Username,
	})
}

// Signup registers a regular account
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req domain.Signup
	if !decodeJSON(w, r, &req) {
		return
	}

	token, user, err := h.lib.Signup(req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	observability.FromContext(r.Context()).Info("account created",
		slog.String("username", user.Username),
		slog.Int64("user_id", user.ID))

	writeJSON(w, http.StatusOK, SignupResponse{
		Token:    token,
		Username: user.Username,
		UserID:   user.ID,
	})
}

// Profile returns the token user's profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		writeError(w, r, domain.ErrUnauthenticated)
		return
	}
	writeJSON(w, http.StatusOK, user.Profile())
}
