// Package history provides SQLite-backed storage of publish attempts so the
// editor can show what was pushed to the remote service and how it fared.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"ameditor/pkg/logx"
	"ameditor/pkg/verdict"
)

// PublishRecord is one audited publish attempt.
type PublishRecord struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"session_id"`
	TenantID    string    `json:"tenant_id"`
	FormID      string    `json:"form_id"`
	ConfigBytes int       `json:"config_bytes"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store persists publish records to a local SQLite database.
type Store struct {
	db     *sql.DB
	logger *logx.Logger
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS publishes (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id   TEXT NOT NULL,
	tenant_id    TEXT NOT NULL,
	form_id      TEXT NOT NULL,
	config_bytes INTEGER NOT NULL,
	success      INTEGER NOT NULL,
	error        TEXT NOT NULL DEFAULT '',
	created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_publishes_session ON publishes(session_id, created_at);
`

// Open opens (creating if necessary) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_journal_mode=WAL&_busy_timeout=5000",
		path,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	logger := logx.NewLogger("history")
	logger.Info("📦 History database ready: %s", path)

	return &Store{db: db, logger: logger}, nil
}

// RecordPublish appends one publish attempt and its remote result.
func (s *Store) RecordPublish(ctx context.Context, sessionID, tenantID, formID string, configBytes int, res verdict.RemoteResult) error {
	success := 0
	if res.Success {
		success = 1
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO publishes (session_id, tenant_id, form_id, config_bytes, success, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, tenantID, formID, configBytes, success, res.Error,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record publish: %w", err)
	}
	return nil
}

// PublishHistory returns the most recent publish records for a session,
// newest first, up to limit entries.
func (s *Store) PublishHistory(ctx context.Context, sessionID string, limit int) ([]PublishRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, tenant_id, form_id, config_bytes, success, error, created_at
		 FROM publishes WHERE session_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query publish history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []PublishRecord
	for rows.Next() {
		var rec PublishRecord
		var success int
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.TenantID, &rec.FormID,
			&rec.ConfigBytes, &success, &rec.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan publish record: %w", err)
		}
		rec.Success = success == 1
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			rec.CreatedAt = ts
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read publish history: %w", err)
	}

	return records, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close history database: %w", err)
	}
	return nil
}
