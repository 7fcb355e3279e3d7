package api

import (
	"context"
	"net/http"

	"library-client/internal/domain"
)

type loginResponse struct {
	Token    string `json:"token"`
	IsAdmin  bool   `json:"is_admin"`
	FullName string `json:"full_name"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// Login exchanges credentials for a session. Invalid credentials map to
// domain.ErrInvalidCredentials.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.Session, error) {
	var resp loginResponse
	err := c.do(ctx, request{
		method:    http.MethodPost,
		path:      "login/",
		endpoint:  "login",
		body:      creds,
		scope:     scopeLogin,
		anonymous: true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, &Error{Status: http.StatusOK, Kind: domain.ErrUnknown, Message: "login response carried no token"}
	}

	username := resp.Username
	if username == "" {
		username = creds.Username
	}
	return &domain.Session{
		UserID:      resp.UserID,
		Username:    username,
		DisplayName: resp.FullName,
		IsAdmin:     resp.IsAdmin,
		Token:       resp.Token,
	}, nil
}

// Signup registers an account and returns a session for it. Admin flag and
// display name are not part of the signup response.
func (c *Client) Signup(ctx context.Context, signup domain.Signup) (*domain.Session, error) {
	var resp loginResponse
	err := c.do(ctx, request{
		method:    http.MethodPost,
		path:      "signup/",
		endpoint:  "signup",
		body:      signup,
		anonymous: true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, &Error{Status: http.StatusOK, Kind: domain.ErrUnknown, Message: "signup response carried no token"}
	}

	username := resp.Username
	if username == "" {
		username = signup.Username
	}
	return &domain.Session{
		UserID:      resp.UserID,
		Username:    username,
		DisplayName: signup.FullName,
		Token:       resp.Token,
	}, nil
}

// Profile returns the authenticated user's profile.
func (c *Client) Profile(ctx context.Context) (*domain.Profile, error) {
	var p domain.Profile
	if err := c.do(ctx, request{method: http.MethodGet, path: "profile/", endpoint: "profile"}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
