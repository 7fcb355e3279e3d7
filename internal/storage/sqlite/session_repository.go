package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"library-client/internal/domain"
)

var _ domain.SessionRepository = (*SessionRepository)(nil)

type SessionRepository struct {
	tx         *TxManager
	clearStmt  *sql.Stmt
	insertStmt *sql.Stmt
	loadStmt   *sql.Stmt
	now        func() time.Time
}

// NewSessionRepository creates a SessionRepository with prepared statements.
// The schema must already exist; see Migrate.
func NewSessionRepository(db *sql.DB) (*SessionRepository, error) {
	repo := &SessionRepository{tx: NewTxManager(db), now: time.Now}

	var err error
	repo.clearStmt, err = db.Prepare(`DELETE FROM session`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare clear statement: %w", err)
	}

	repo.insertStmt, err = db.Prepare(`
		INSERT INTO session (id, user_id, username, display_name, is_admin, token, saved_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	repo.loadStmt, err = db.Prepare(`
		SELECT user_id, username, display_name, is_admin, token
		FROM session
		WHERE id = 1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare load statement: %w", err)
	}

	return repo, nil
}

// Save replaces the stored session. Anonymous sessions are not stored.
func (r *SessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if session == nil || !session.Authenticated() {
		return r.Delete(ctx)
	}

	return r.tx.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.StmtContext(ctx, r.clearStmt).ExecContext(ctx); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}
		_, err := tx.StmtContext(ctx, r.insertStmt).ExecContext(ctx,
			session.UserID,
			session.Username,
			session.DisplayName,
			session.IsAdmin,
			session.Token,
			r.now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		return nil
	})
}

// Load returns the stored session, or domain.ErrNotFound when none is stored.
func (r *SessionRepository) Load(ctx context.Context) (*domain.Session, error) {
	session := &domain.Session{}
	err := r.loadStmt.QueryRowContext(ctx).Scan(
		&session.UserID,
		&session.Username,
		&session.DisplayName,
		&session.IsAdmin,
		&session.Token,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return session, nil
}

func (r *SessionRepository) Delete(ctx context.Context) error {
	if _, err := r.clearStmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close releases the prepared statements.
func (r *SessionRepository) Close() error {
	return errors.Join(r.clearStmt.Close(), r.insertStmt.Close(), r.loadStmt.Close())
}
