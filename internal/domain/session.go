package domain

import "context"

// Session is the client's record of who is acting. The zero value is anonymous.
type Session struct {
	UserID      int64  `json:"user_id,omitempty"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"full_name,omitempty"`
	IsAdmin     bool   `json:"is_admin"`
	Token       string `json:"token,omitempty"`
}

// Authenticated reports whether the session carries a credential.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// Credentials are exchanged for a token at login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Signup carries the fields needed to register a new account.
type Signup struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
}

// Profile is the authenticated user's profile as served by the API.
type Profile struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"user"`
	Username string `json:"username,omitempty"`
	FullName string `json:"full_name"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	IsAdmin  bool   `json:"is_admin"`
}

// SessionRepository persists a session between process runs.
type SessionRepository interface {
	Save(ctx context.Context, session *Session) error
	Load(ctx context.Context) (*Session, error)
	Delete(ctx context.Context) error
}
