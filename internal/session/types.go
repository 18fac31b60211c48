// Package session provides durable persistence for interview sessions and
// their per-stage checkpoints.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fathom-dev/fathom/internal/charter"
)

// Session statuses.
const (
	StatusInProgress = "in_progress"
	StatusComplete   = "complete"
	StatusError      = "error"
	StatusDeleted    = "deleted"
)

// ErrNotFound is returned when a session or checkpoint does not exist.
var ErrNotFound = errors.New("session: not found")

// Session is the durable record of one interview. ID is the single canonical
// identifier; there are no aliases.
type Session struct {
	ID           string
	UserID       string
	ProjectName  string
	CurrentStage int // 1..5, never decreases
	Status       string
	StageData    map[int]charter.Deliverable
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Checkpoint is an immutable snapshot of a session taken after a completed
// stage. Checkpoints are append-only: the store must never update or delete
// them.
type Checkpoint struct {
	ID          string
	SessionID   string
	StageNumber int
	Snapshot    []byte // EncodeSnapshot output
	Checksum    string
	CreatedAt   time.Time
}

// Summary provides a high-level view of a session for listing.
type Summary struct {
	ID           string
	ProjectName  string
	CurrentStage int
	Status       string
	UpdatedAt    time.Time
}

// TranscriptEntry is one audited conversation turn.
type TranscriptEntry struct {
	ID        int
	SessionID string
	Stage     int
	Role      string
	Content   string
	Timestamp time.Time
}

// Store is the durable CRUD surface the orchestrator depends on. All
// operations are atomic at the single-record level.
type Store interface {
	SaveSession(ctx context.Context, s *Session) error
	LoadSession(ctx context.Context, id string) (*Session, error)
	SaveCheckpoint(ctx context.Context, cp *Checkpoint) error
	LatestCheckpoint(ctx context.Context, sessionID string) (*Checkpoint, error)
	ListSessions(ctx context.Context, userID string) ([]Summary, error)
	DeleteSession(ctx context.Context, id string) error
	AppendTranscript(ctx context.Context, sessionID string, stage int, role, content string) error
	Transcript(ctx context.Context, sessionID string) ([]TranscriptEntry, error)
	Close() error
}

// snapshot is the JSON wire form of a Session. Stage data is kept as raw
// JSON keyed by stage number so concrete deliverable types can be restored.
type snapshot struct {
	ID           string                  `json:"id"`
	UserID       string                  `json:"user_id"`
	ProjectName  string                  `json:"project_name"`
	CurrentStage int                     `json:"current_stage"`
	Status       string                  `json:"status"`
	StageData    map[int]json.RawMessage `json:"stage_data"`
	CreatedAt    time.Time               `json:"created_at"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

// EncodeSnapshot serialises a session for checkpointing or storage.
func EncodeSnapshot(s *Session) ([]byte, error) {
	snap := snapshot{
		ID:           s.ID,
		UserID:       s.UserID,
		ProjectName:  s.ProjectName,
		CurrentStage: s.CurrentStage,
		Status:       s.Status,
		StageData:    make(map[int]json.RawMessage, len(s.StageData)),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
	for stage, d := range s.StageData {
		raw, err := json.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("encoding stage %d deliverable: %w", stage, err)
		}
		snap.StageData[stage] = raw
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encoding session snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot restores a session from its serialised form, rebuilding the
// concrete deliverable type for each stage.
func DecodeSnapshot(data []byte) (*Session, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding session snapshot: %w", err)
	}

	s := &Session{
		ID:           snap.ID,
		UserID:       snap.UserID,
		ProjectName:  snap.ProjectName,
		CurrentStage: snap.CurrentStage,
		Status:       snap.Status,
		StageData:    make(map[int]charter.Deliverable, len(snap.StageData)),
		CreatedAt:    snap.CreatedAt,
		UpdatedAt:    snap.UpdatedAt,
	}
	for stage, raw := range snap.StageData {
		d, err := charter.UnmarshalDeliverable(stage, raw)
		if err != nil {
			return nil, err
		}
		s.StageData[stage] = d
	}
	return s, nil
}

// Checksum returns the hex SHA-256 of a snapshot, stored alongside it so a
// corrupted checkpoint is detected on resume.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
