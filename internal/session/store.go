package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore provides SQLite-backed persistence for sessions.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens the SQLite database at dbPath and creates tables if
// they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		project_name TEXT NOT NULL,
		current_stage INTEGER NOT NULL,
		status TEXT NOT NULL,
		snapshot BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS checkpoints (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		stage_number INTEGER NOT NULL,
		snapshot BLOB NOT NULL,
		checksum TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	);

	CREATE TABLE IF NOT EXISTS transcript (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		stage INTEGER NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveSession inserts or updates a session record. The full session state is
// stored as a snapshot blob alongside the queryable columns.
func (s *SQLiteStore) SaveSession(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = time.Now().UTC()

	snap, err := EncodeSnapshot(sess)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, project_name, current_stage, status, snapshot, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   current_stage = excluded.current_stage,
		   status = excluded.status,
		   snapshot = excluded.snapshot,
		   updated_at = excluded.updated_at`,
		sess.ID, sess.UserID, sess.ProjectName, sess.CurrentStage, sess.Status, snap, sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	return nil
}

// LoadSession retrieves a session by ID. Soft-deleted sessions are not found.
func (s *SQLiteStore) LoadSession(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT snapshot FROM sessions WHERE id = ? AND status != ?`,
		id, StatusDeleted,
	)

	var snap []byte
	err := row.Scan(&snap)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("load session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	return DecodeSnapshot(snap)
}

// SaveCheckpoint appends a checkpoint record. Checkpoints are insert-only;
// an ID collision is an error, never an overwrite.
func (s *SQLiteStore) SaveCheckpoint(ctx context.Context, cp *Checkpoint) error {
	if cp.ID == "" {
		cp.ID = uuid.New().String()
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO checkpoints (id, session_id, stage_number, snapshot, checksum, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		cp.ID, cp.SessionID, cp.StageNumber, cp.Snapshot, cp.Checksum, cp.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert checkpoint: %w", err)
	}

	return nil
}

// LatestCheckpoint returns the most recent checkpoint for the session.
func (s *SQLiteStore) LatestCheckpoint(ctx context.Context, sessionID string) (*Checkpoint, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, stage_number, snapshot, checksum, created_at
		 FROM checkpoints
		 WHERE session_id = ?
		 ORDER BY stage_number DESC, created_at DESC
		 LIMIT 1`,
		sessionID,
	)

	var cp Checkpoint
	err := row.Scan(&cp.ID, &cp.SessionID, &cp.StageNumber, &cp.Snapshot, &cp.Checksum, &cp.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("latest checkpoint for %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan checkpoint: %w", err)
	}

	return &cp, nil
}

// ListSessions returns summaries of the user's sessions, most recent first.
// Soft-deleted sessions are excluded.
func (s *SQLiteStore) ListSessions(ctx context.Context, userID string) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_name, current_stage, status, updated_at
		 FROM sessions
		 WHERE user_id = ? AND status != ?
		 ORDER BY updated_at DESC`,
		userID, StatusDeleted,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.ProjectName, &sum.CurrentStage, &sum.Status, &sum.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, sum)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return summaries, nil
}

// DeleteSession soft-deletes a session. Checkpoints are retained.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, updated_at = ? WHERE id = ?`,
		StatusDeleted, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete session %s: %w", id, ErrNotFound)
	}

	return nil
}

// AppendTranscript adds one audited conversation turn.
func (s *SQLiteStore) AppendTranscript(ctx context.Context, sessionID string, stage int, role, content string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transcript (session_id, stage, role, content, timestamp)
		 VALUES (?, ?, ?, ?, ?)`,
		sessionID, stage, role, content, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert transcript entry: %w", err)
	}

	return nil
}

// Transcript retrieves all audited turns for a session in order.
func (s *SQLiteStore) Transcript(ctx context.Context, sessionID string) ([]TranscriptEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, stage, role, content, timestamp
		 FROM transcript
		 WHERE session_id = ?
		 ORDER BY id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query transcript: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []TranscriptEntry
	for rows.Next() {
		var e TranscriptEntry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Stage, &e.Role, &e.Content, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan transcript entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return entries, nil
}
