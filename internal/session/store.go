// Package session holds the identity the client acts as.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"library-client/internal/domain"
	"library-client/internal/observability"
)

var _ domain.TokenSource = (*Store)(nil)

// Store is the single source of truth for who is acting. It is safe for
// concurrent use. A zero session means anonymous.
type Store struct {
	auth domain.AuthAPI
	repo domain.SessionRepository

	mu      sync.RWMutex
	current domain.Session

	// persistMu orders writes to repo so the stored session is never older
	// than the one in memory.
	persistMu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithRepository persists the session across process runs.
func WithRepository(repo domain.SessionRepository) Option {
	return func(s *Store) { s.repo = repo }
}

// NewStore creates an anonymous store that signs in through auth.
func NewStore(auth domain.AuthAPI, opts ...Option) *Store {
	s := &Store{auth: auth}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns a copy of the session.
func (s *Store) Current() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Token returns the credential for outgoing requests, empty when anonymous.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token
}

// SignIn exchanges credentials for a session. On failure the current session
// is left as it was.
func (s *Store) SignIn(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	if creds.Username == "" || creds.Password == "" {
		return domain.Session{}, domain.ErrInvalidCredentials
	}

	sess, err := s.auth.Login(ctx, creds)
	if err != nil {
		return domain.Session{}, fmt.Errorf("sign in: %w", err)
	}
	established, err := s.establish(ctx, *sess)
	if err != nil {
		return domain.Session{}, fmt.Errorf("sign in: %w", err)
	}
	return established, nil
}

// SignUp registers an account and signs in with the returned token.
func (s *Store) SignUp(ctx context.Context, signup domain.Signup) (domain.Session, error) {
	signup.Username = strings.TrimSpace(signup.Username)
	if signup.Username == "" || signup.Password == "" {
		return domain.Session{}, domain.ErrInvalidInput
	}

	sess, err := s.auth.Signup(ctx, signup)
	if err != nil {
		return domain.Session{}, fmt.Errorf("sign up: %w", err)
	}
	established, err := s.establish(ctx, *sess)
	if err != nil {
		return domain.Session{}, fmt.Errorf("sign up: %w", err)
	}
	return established, nil
}

// establish makes sess current. When the profile fetch that fills a missing
// user id is rejected as unauthenticated, the session is already gone and
// the rejection is returned.
func (s *Store) establish(ctx context.Context, sess domain.Session) (domain.Session, error) {
	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()

	log := observability.FromContext(observability.WithLibraryUser(ctx, sess.UserID))
	log.Info("signed in", slog.String("username", sess.Username), slog.Bool("admin", sess.IsAdmin))

	// Older servers omit the user id from the login response; review
	// ownership needs it, so fetch the profile once.
	if sess.UserID == 0 {
		refreshed, err := s.Refresh(ctx)
		switch {
		case err == nil:
			return refreshed, nil
		case domain.IsAuthFailure(err):
			return domain.Session{}, err
		}
		log.Warn("profile fetch after sign in failed", slog.String("error", err.Error()))
	}

	s.persist(ctx)
	return s.Current(), nil
}

// Refresh fills the user id, display name and admin flag from the profile.
func (s *Store) Refresh(ctx context.Context) (domain.Session, error) {
	token := s.Token()
	if token == "" {
		return domain.Session{}, domain.ErrUnauthenticated
	}

	p, err := s.auth.Profile(ctx)
	if err != nil {
		s.Check(ctx, token, err)
		return domain.Session{}, fmt.Errorf("refresh profile: %w", err)
	}

	s.mu.Lock()
	if s.current.Token != token {
		// Signed out or in as someone else while the profile was in flight.
		sess := s.current
		s.mu.Unlock()
		return sess, nil
	}
	// p.ID is the profile's own key, not the account's.
	if p.UserID != 0 {
		s.current.UserID = p.UserID
	}
	if p.FullName != "" {
		s.current.DisplayName = p.FullName
	}
	if p.Username != "" && s.current.Username == "" {
		s.current.Username = p.Username
	}
	s.current.IsAdmin = p.IsAdmin
	sess := s.current
	s.mu.Unlock()

	s.persist(ctx)
	return sess, nil
}

// SignOut clears the session unconditionally. Calling it while anonymous is a no-op.
func (s *Store) SignOut(ctx context.Context) {
	s.mu.Lock()
	was := s.current
	s.current = domain.Session{}
	s.mu.Unlock()

	if was.Authenticated() {
		observability.FromContext(ctx).Info("signed out", slog.String("username", was.Username))
	}
	s.persist(ctx)
}

// Check ends the session when err is an authentication or authorization
// failure of a request sent with token. A session established after that
// request started is kept. It reports whether err was such a failure.
func (s *Store) Check(ctx context.Context, token string, err error) bool {
	if !domain.IsAuthFailure(err) {
		return false
	}

	s.mu.Lock()
	if token == "" || s.current.Token != token {
		s.mu.Unlock()
		return true
	}
	was := s.current
	s.current = domain.Session{}
	s.mu.Unlock()

	observability.SessionTeardownsTotal.Inc()
	observability.FromContext(ctx).Info("session ended by api",
		slog.String("username", was.Username),
		slog.String("reason", err.Error()))
	s.persist(ctx)
	return true
}

// Restore loads the persisted session, if any. No stored session is not an error.
func (s *Store) Restore(ctx context.Context) (domain.Session, error) {
	if s.repo == nil {
		return s.Current(), nil
	}

	sess, err := s.repo.Load(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return s.Current(), nil
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("restore session: %w", err)
	}

	s.mu.Lock()
	s.current = *sess
	s.mu.Unlock()

	observability.FromContext(ctx).Debug("session restored", slog.String("username", sess.Username))
	return *sess, nil
}

// persist writes the current session, or removes the stored one when anonymous.
// Storage failures are logged; the in-memory session stays authoritative.
func (s *Store) persist(ctx context.Context) {
	if s.repo == nil {
		return
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	sess := s.Current()
	var err error
	if sess.Authenticated() {
		err = s.repo.Save(ctx, &sess)
	} else {
		err = s.repo.Delete(ctx)
	}
	if err != nil {
		observability.FromContext(ctx).Warn("failed to persist session", slog.String("error", err.Error()))
	}
}
