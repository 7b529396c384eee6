package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations. Statements are idempotent so the full
// list is replayed on every open.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// ALTER TABLE ADD COLUMN has no IF NOT EXISTS form.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS catalogue_snapshots (
		scope      TEXT PRIMARY KEY,
		variant    TEXT NOT NULL CHECK(variant IN ('branches','flow')),
		org_id     TEXT,
		payload    TEXT NOT NULL,
		fetched_at TEXT NOT NULL
	)`,
	`ALTER TABLE catalogue_snapshots ADD COLUMN item_count INTEGER NOT NULL DEFAULT 0`,
	`CREATE TABLE IF NOT EXISTS submissions (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		org_id     TEXT,
		codes      TEXT NOT NULL,
		outcome    TEXT NOT NULL CHECK(outcome IN ('accepted','failed')),
		reason     TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_submissions_created ON submissions(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_submissions_user ON submissions(user_id)`,
	`CREATE TABLE IF NOT EXISTS instance_saves (
		id            TEXT PRIMARY KEY,
		user_id       TEXT NOT NULL,
		assignment_id TEXT NOT NULL,
		instance_ids  TEXT NOT NULL,
		outcome       TEXT NOT NULL CHECK(outcome IN ('accepted','failed')),
		reason        TEXT NOT NULL DEFAULT '',
		created_at    TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_instance_saves_created ON instance_saves(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_instance_saves_assignment ON instance_saves(assignment_id)`,
}
