// Package sqlite persists the client session in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// schema holds at most one row: the session of whoever last signed in on this machine.
const schema = `
CREATE TABLE IF NOT EXISTS session (
	id           INTEGER PRIMARY KEY CHECK (id = 1),
	user_id      INTEGER NOT NULL DEFAULT 0,
	username     TEXT    NOT NULL DEFAULT '',
	display_name TEXT    NOT NULL DEFAULT '',
	is_admin     INTEGER NOT NULL DEFAULT 0,
	token        TEXT    NOT NULL,
	saved_at     TIMESTAMP NOT NULL
)`

// Migrate creates the tables the repositories in this package need.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate session schema: %w", err)
	}
	return nil
}
