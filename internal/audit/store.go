// Package audit persists enforcement decisions to SQLite. The log is
// append-only and deliberately excludes message bodies.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"raqib/internal/domain"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements domain.AuditStore using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection for SQLite
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db, logger: logger}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS moderation_log (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		channel     TEXT NOT NULL,
		chat_id     INTEGER NOT NULL,
		sender_id   INTEGER NOT NULL,
		source      TEXT NOT NULL,
		term        TEXT,
		outcome     TEXT NOT NULL,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_modlog_time ON moderation_log(created_at);
	CREATE INDEX IF NOT EXISTS idx_modlog_chat ON moderation_log(chat_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Record appends one enforcement decision.
func (s *SQLiteStore) Record(ctx context.Context, entry domain.AuditEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO moderation_log (channel, chat_id, sender_id, source, term, outcome, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.Channel, entry.ChatID, entry.SenderID, entry.Source, entry.Term, entry.Outcome, entry.CreatedAt,
	)
	return err
}

// Recent returns the newest entries, most recent first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, channel, chat_id, sender_id, source, term, outcome, created_at
		 FROM moderation_log ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var term sql.NullString
		if err := rows.Scan(&e.ID, &e.Channel, &e.ChatID, &e.SenderID, &e.Source, &term, &e.Outcome, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Term = term.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
