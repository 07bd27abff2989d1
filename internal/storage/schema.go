package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate creates the quiz tables. It is idempotent.
//
// The UNIQUE constraints on "user"(account_name) and
// user_score(user_id, quiz_id) back the idempotent get-or-create and join:
// concurrent writers collide on the constraint and the loser reads the
// winner's row.
func (db *DB) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS "user" (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			account_name TEXT NOT NULL UNIQUE,
			private_key TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS quiz (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT,
			price REAL NOT NULL DEFAULT 0,
			due DATETIME NOT NULL,
			kind TEXT NOT NULL DEFAULT 'daily',
			is_finished BOOLEAN NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS user_score (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			score INTEGER NOT NULL DEFAULT 0,
			quiz_id INTEGER NOT NULL REFERENCES quiz(id),
			user_id INTEGER NOT NULL REFERENCES "user"(id) ON DELETE CASCADE,
			-- reserved, never read or written
			shard TEXT,
			UNIQUE (user_id, quiz_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_quiz_is_finished ON quiz(is_finished);`,
		`CREATE INDEX IF NOT EXISTS idx_user_score_leaderboard ON user_score(quiz_id, score DESC, id ASC);`,
	}

	return db.InTx(ctx, "migrate", func(ctx context.Context, tx *sql.Tx) error {
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		return nil
	})
}
