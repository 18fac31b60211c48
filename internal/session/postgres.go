package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore provides Postgres-backed persistence for sessions, for
// deployments where several processes share one session database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	project_name TEXT NOT NULL,
	current_stage INTEGER NOT NULL,
	status TEXT NOT NULL,
	snapshot BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS checkpoints (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	stage_number INTEGER NOT NULL,
	snapshot BYTEA NOT NULL,
	checksum TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS transcript (
	id BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	stage INTEGER NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	timestamp TIMESTAMPTZ NOT NULL
);
`

// NewPostgresStore connects to PostgreSQL and creates tables if they don't
// exist.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// SaveSession inserts or updates a session record.
func (s *PostgresStore) SaveSession(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = time.Now().UTC()

	snap, err := EncodeSnapshot(sess)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO sessions (id, user_id, project_name, current_stage, status, snapshot, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		   current_stage = EXCLUDED.current_stage,
		   status = EXCLUDED.status,
		   snapshot = EXCLUDED.snapshot,
		   updated_at = EXCLUDED.updated_at`,
		sess.ID, sess.UserID, sess.ProjectName, sess.CurrentStage, sess.Status, snap, sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	return nil
}

// LoadSession retrieves a session by ID. Soft-deleted sessions are not found.
func (s *PostgresStore) LoadSession(ctx context.Context, id string) (*Session, error) {
	var snap []byte
	err := s.pool.QueryRow(ctx,
		`SELECT snapshot FROM sessions WHERE id = $1 AND status != $2`,
		id, StatusDeleted,
	).Scan(&snap)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("load session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	return DecodeSnapshot(snap)
}

// SaveCheckpoint appends a checkpoint record.
func (s *PostgresStore) SaveCheckpoint(ctx context.Context, cp *Checkpoint) error {
	if cp.ID == "" {
		cp.ID = uuid.New().String()
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO checkpoints (id, session_id, stage_number, snapshot, checksum, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		cp.ID, cp.SessionID, cp.StageNumber, cp.Snapshot, cp.Checksum, cp.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert checkpoint: %w", err)
	}

	return nil
}

// LatestCheckpoint returns the most recent checkpoint for the session.
func (s *PostgresStore) LatestCheckpoint(ctx context.Context, sessionID string) (*Checkpoint, error) {
	var cp Checkpoint
	err := s.pool.QueryRow(ctx,
		`SELECT id, session_id, stage_number, snapshot, checksum, created_at
		 FROM checkpoints
		 WHERE session_id = $1
		 ORDER BY stage_number DESC, created_at DESC
		 LIMIT 1`,
		sessionID,
	).Scan(&cp.ID, &cp.SessionID, &cp.StageNumber, &cp.Snapshot, &cp.Checksum, &cp.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("latest checkpoint for %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan checkpoint: %w", err)
	}

	return &cp, nil
}

// ListSessions returns summaries of the user's sessions, most recent first.
func (s *PostgresStore) ListSessions(ctx context.Context, userID string) ([]Summary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, project_name, current_stage, status, updated_at
		 FROM sessions
		 WHERE user_id = $1 AND status != $2
		 ORDER BY updated_at DESC`,
		userID, StatusDeleted,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

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
func (s *PostgresStore) DeleteSession(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET status = $1, updated_at = $2 WHERE id = $3`,
		StatusDeleted, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete session %s: %w", id, ErrNotFound)
	}

	return nil
}

// AppendTranscript adds one audited conversation turn.
func (s *PostgresStore) AppendTranscript(ctx context.Context, sessionID string, stage int, role, content string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO transcript (session_id, stage, role, content, timestamp)
		 VALUES ($1, $2, $3, $4, $5)`,
		sessionID, stage, role, content, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert transcript entry: %w", err)
	}

	return nil
}

// Transcript retrieves all audited turns for a session in order.
func (s *PostgresStore) Transcript(ctx context.Context, sessionID string) ([]TranscriptEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, stage, role, content, timestamp
		 FROM transcript
		 WHERE session_id = $1
		 ORDER BY id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query transcript: %w", err)
	}
	defer rows.Close()

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
