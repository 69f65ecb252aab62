package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// NewSQLiteDB opens the SQLite file at path with foreign keys enforced.
// A single connection serialises writers.
func NewSQLiteDB(ctx context.Context, path string, log zerolog.Logger) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := upgradeLegacyUsers(ctx, db, log); err != nil {
		db.Close()
		return nil, fmt.Errorf("upgrade users table: %w", err)
	}

	log.Info().Str("path", path).Msg("SQLite opened")
	return db, nil
}

// upgradeLegacyUsers brings a users table created by the earlier Python
// backend up to the current column set. Those tables carry no created_at and
// their werkzeug hashes never verify against bcrypt, so affected accounts are
// reported for recreation with create-user -replace.
func upgradeLegacyUsers(ctx context.Context, db *sqlx.DB, log zerolog.Logger) error {
	var columns []string
	if err := db.SelectContext(ctx, &columns, `SELECT name FROM pragma_table_info('users')`); err != nil {
		return err
	}
	if len(columns) == 0 {
		return nil
	}

	hasCreatedAt := false
	for _, c := range columns {
		if c == "created_at" {
			hasCreatedAt = true
		}
	}
	if !hasCreatedAt {
		// SQLite rejects a non-constant default on ADD COLUMN.
		if _, err := db.ExecContext(ctx, `ALTER TABLE users ADD COLUMN created_at TIMESTAMP`); err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx, `UPDATE users SET created_at = CURRENT_TIMESTAMP WHERE created_at IS NULL`); err != nil {
			return err
		}
		log.Info().Msg("Added created_at to legacy users table")
	}

	var legacy []string
	if err := db.SelectContext(ctx, &legacy,
		`SELECT username FROM users WHERE password NOT LIKE '$2%' ORDER BY username`); err != nil {
		return err
	}
	if len(legacy) > 0 {
		log.Warn().Strs("usernames", legacy).
			Msg("Accounts with non-bcrypt password hashes cannot log in; reset them with create-user -replace")
	}
	return nil
}
