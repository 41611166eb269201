package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/p-blackswan/screencast-studio/internal/recording"
)

// Backend persists recording sessions in SQLite. Sessions are stored as
// JSON documents keyed by project id; updated_at drives TTL sweeps.
type Backend struct {
	db     *sql.DB
	logger zerolog.Logger
	mu     sync.Mutex
}

// NewBackend opens (or creates) the database, sets the PRAGMAs and runs
// the schema migration.
func NewBackend(dbPath string, logger zerolog.Logger) (*Backend, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening session database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging session database: %w", err)
	}

	b := &Backend{
		db:     db,
		logger: logger.With().Str("component", "session").Logger(),
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma: %w", err)
		}
	}

	if err := b.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating session database: %w", err)
	}

	b.logger.Info().Str("path", dbPath).Msg("session backend ready")
	return b, nil
}

func (b *Backend) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS recording_sessions (
		project_id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_recording_sessions_updated ON recording_sessions(updated_at);
	`
	_, err := b.db.Exec(schema)
	return err
}

// Save upserts a session document.
func (b *Backend) Save(sess *recording.Session, updatedAt time.Time) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", sess.ID, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	_, err = b.db.Exec(
		`INSERT OR REPLACE INTO recording_sessions (project_id, session_id, payload, updated_at)
		 VALUES (?, ?, ?, ?)`,
		sess.ProjectID, sess.ID, string(payload), updatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("saving session %s: %w", sess.ID, err)
	}
	return nil
}

// Load reads a session document. A missing row returns (nil, zero, nil).
func (b *Backend) Load(projectID string) (*recording.Session, time.Time, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var payload string
	var updatedMs int64
	err := b.db.QueryRow(
		`SELECT payload, updated_at FROM recording_sessions WHERE project_id = ?`,
		projectID,
	).Scan(&payload, &updatedMs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("loading session for project %s: %w", projectID, err)
	}

	var sess recording.Session
	if err := json.Unmarshal([]byte(payload), &sess); err != nil {
		return nil, time.Time{}, fmt.Errorf("decoding session for project %s: %w", projectID, err)
	}
	return &sess, time.UnixMilli(updatedMs), nil
}

// Delete removes a session row, reporting whether one existed.
func (b *Backend) Delete(projectID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	res, err := b.db.Exec(`DELETE FROM recording_sessions WHERE project_id = ?`, projectID)
	if err != nil {
		return false, fmt.Errorf("deleting session for project %s: %w", projectID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteExpired removes rows last touched before the cutoff.
func (b *Backend) DeleteExpired(cutoff time.Time) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	res, err := b.db.Exec(`DELETE FROM recording_sessions WHERE updated_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("sweeping expired sessions: %w", err)
	}
	return res.RowsAffected()
}

// Ping checks database connectivity.
func (b *Backend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

// Close closes the database.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

// DB returns the underlying database connection (for testing).
func (b *Backend) DB() *sql.DB {
	return b.db
}
