// Package store persists conversation sessions in a local SQLite database
// so the CLI can resume conversations across invocations. Sessions are
// stored as JSON blobs; the schema only indexes what listing needs.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"

	"github.com/shinobi1046-lgtm/scriptflow/pkg/conversation"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	phase      TEXT NOT NULL,
	request    TEXT NOT NULL,
	data       BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at);
`

// SessionStore is a SQLite-backed session repository.
type SessionStore struct {
	db *sql.DB
}

// Open opens (and if needed creates) the session database at path.
func Open(path string) (*SessionStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening session database")
	}
	// SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initializing session schema")
	}
	return &SessionStore{db: db}, nil
}

// Close releases the database handle.
func (s *SessionStore) Close() error {
	return s.db.Close()
}

// Save upserts a session.
func (s *SessionStore) Save(ctx context.Context, session *conversation.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, phase, request, data, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			phase = excluded.phase,
			request = excluded.request,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		session.ID, string(session.Phase), session.OriginalRequest, data, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "saving session "+session.ID)
	}
	return nil
}

// Load returns a session by id.
func (s *SessionStore) Load(ctx context.Context, id string) (*conversation.Session, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM sessions WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, &errors.NotFoundError{Resource: "session", ID: id}
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading session "+id)
	}

	var session conversation.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, errors.Wrap(err, "decoding session "+id)
	}
	return &session, nil
}

// SessionSummary is one row of a session listing.
type SessionSummary struct {
	ID        string
	Phase     conversation.Phase
	Request   string
	UpdatedAt time.Time
}

// List returns session summaries, most recently updated first.
func (s *SessionStore) List(ctx context.Context, limit int) ([]SessionSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, phase, request, updated_at
		FROM sessions
		ORDER BY updated_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "listing sessions")
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		var phase string
		if err := rows.Scan(&sum.ID, &phase, &sum.Request, &sum.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning session row")
		}
		sum.Phase = conversation.Phase(phase)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete removes a session. Deleting an unknown id is not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return errors.Wrap(err, "deleting session "+id)
	}
	return nil
}
