package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Schema is written in the sqlite dialect and rewritten for postgres by dialect().
// Tables are ordered so that every foreign key target already exists.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS circles (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    owner_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    description TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS circle_members (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    circle_id INTEGER NOT NULL REFERENCES circles(id) ON DELETE CASCADE,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    role TEXT NOT NULL CHECK (role IN ('member', 'admin')),
    UNIQUE(circle_id, user_id)
)`,
	`CREATE TABLE IF NOT EXISTS journals (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    category TEXT NOT NULL,
    mood TEXT NOT NULL DEFAULT 'neutral',
    mood_color TEXT NOT NULL DEFAULT '#808080',
    is_public BOOLEAN NOT NULL DEFAULT FALSE,
    shared_with_circle_id INTEGER REFERENCES circles(id) ON DELETE SET NULL,
    created_at TIMESTAMP NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_journals_user_id ON journals(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_circle_members_user_id ON circle_members(user_id)`,
}

// RunMigrations creates any missing tables. It is idempotent.
func RunMigrations(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, dialect(db.DriverName(), stmt)); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}

func dialect(driverName, stmt string) string {
	if driverName == "pgx" || driverName == "postgres" {
		stmt = strings.ReplaceAll(stmt, "INTEGER PRIMARY KEY AUTOINCREMENT", "SERIAL PRIMARY KEY")
		stmt = strings.ReplaceAll(stmt, "TIMESTAMP", "TIMESTAMPTZ")
	}
	return stmt
}
