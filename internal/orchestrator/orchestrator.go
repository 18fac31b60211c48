package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fathom-dev/fathom/internal/charter"
	"github.com/fathom-dev/fathom/internal/gate"
	"github.com/fathom-dev/fathom/internal/interview"
	"github.com/fathom-dev/fathom/internal/log"
	"github.com/fathom-dev/fathom/internal/session"
	"github.com/fathom-dev/fathom/internal/stage"
)

// Defaults for store-write retries.
const (
	DefaultStoreRetries = 3
	baseBackoff         = 100 * time.Millisecond
)

// Orchestrator sequences the five interview stages for any number of
// independent sessions. Within one session, at most one stage runs at a time
// (per-session advisory lock); different sessions never contend.
type Orchestrator struct {
	store       session.Store
	gate        gate.Validator
	checker     gate.Checker
	registry    *stage.Registry
	engine      *interview.Engine
	logger      *log.Logger
	maxAttempts int
	retries     int
	thresholds  charter.GovernanceThresholds

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Options carries the orchestrator's injected collaborators and tuning.
// Store, Gate, Checker, Registry, and Engine are required.
type Options struct {
	Store       session.Store
	Gate        gate.Validator
	Checker     gate.Checker
	Registry    *stage.Registry
	Engine      *interview.Engine
	Logger      *log.Logger // nil disables event logging
	MaxAttempts int         // per-question retries before escalation
	Retries     int         // store write attempts before fatal
	Thresholds  charter.GovernanceThresholds
}

// New creates an orchestrator. All collaborators are constructor-injected;
// nothing is reached through globals.
func New(opts Options) (*Orchestrator, error) {
	if opts.Store == nil || opts.Gate == nil || opts.Checker == nil || opts.Registry == nil || opts.Engine == nil {
		return nil, fmt.Errorf("orchestrator: store, gate, checker, registry, and engine are required")
	}
	if err := opts.Thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = interview.DefaultMaxAttempts
	}
	if opts.Retries <= 0 {
		opts.Retries = DefaultStoreRetries
	}
	return &Orchestrator{
		store:       opts.Store,
		gate:        opts.Gate,
		checker:     opts.Checker,
		registry:    opts.Registry,
		engine:      opts.Engine,
		logger:      opts.Logger,
		maxAttempts: opts.MaxAttempts,
		retries:     opts.Retries,
		thresholds:  opts.Thresholds,
	}, nil
}

// lockSession acquires the per-session advisory lock and returns the
// unlock function.
func (o *Orchestrator) lockSession(id string) func() {
	o.mu.Lock()
	m, ok := o.locks[id]
	if !ok {
		if o.locks == nil {
			o.locks = map[string]*sync.Mutex{}
		}
		m = &sync.Mutex{}
		o.locks[id] = m
	}
	o.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// CreateSession opens a fresh session at stage 1 and persists it.
func (o *Orchestrator) CreateSession(ctx context.Context, userID, projectName string) (*session.Session, error) {
	if userID == "" {
		return nil, &StateError{Op: "CreateSession", Reason: "user id is required"}
	}
	if projectName == "" {
		return nil, &StateError{Op: "CreateSession", Reason: "project name is required"}
	}

	now := time.Now().UTC()
	sess := &session.Session{
		ID:           uuid.New().String(),
		UserID:       userID,
		ProjectName:  projectName,
		CurrentStage: 1,
		Status:       session.StatusInProgress,
		StageData:    map[int]charter.Deliverable{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := o.saveWithRetry(ctx, sess); err != nil {
		return nil, err
	}

	o.logEvent(log.Event{Event: log.EventSessionCreated, SessionID: sess.ID})
	return sess, nil
}

// RunStage drives stage n for the session. The session must be in progress
// and sitting exactly at stage n. On a gate rejection the returned error is
// a *GateError, the deliverable is discarded, and the stage pointer is
// unchanged: the caller retries the stage.
func (o *Orchestrator) RunStage(ctx context.Context, sess *session.Session, n int, source stage.AnswerSource) (charter.Deliverable, error) {
	unlock := o.lockSession(sess.ID)
	defer unlock()

	if sess.Status != session.StatusInProgress {
		return nil, &StateError{Op: "RunStage", Reason: fmt.Sprintf("session is %s", sess.Status)}
	}
	if sess.CurrentStage != n {
		return nil, &StateError{Op: "RunStage", Reason: fmt.Sprintf("session is at stage %d, not %d", sess.CurrentStage, n)}
	}

	runner, err := o.registry.Runner(n, o.engine, sess.ID, o.maxAttempts, priorDeliverables(sess, n), o.transcriptSink(ctx, sess.ID))
	if err != nil {
		return nil, err
	}

	o.logEvent(log.Event{Event: log.EventStageStarted, SessionID: sess.ID, Stage: n})

	deliverable, err := runner.Run(ctx, source)
	if err != nil {
		return nil, err
	}

	verdict, err := o.gate.Validate(ctx, n, deliverable)
	if err != nil {
		return nil, fmt.Errorf("stage %d gate: %w", n, err)
	}
	if !verdict.IsValid {
		o.logEvent(log.Event{
			Event:     log.EventGateRejected,
			SessionID: sess.ID,
			Stage:     n,
			Fields:    verdict.MissingFields,
		})
		return nil, &GateError{StageNumber: n, MissingFields: verdict.MissingFields, Errors: verdict.Errors}
	}

	sess.StageData[n] = deliverable
	if err := o.saveWithRetry(ctx, sess); err != nil {
		return nil, err
	}

	o.logEvent(log.Event{Event: log.EventGatePassed, SessionID: sess.ID, Stage: n})
	return deliverable, nil
}

// AdvanceToNextStage moves the session forward after a successful RunStage.
// After stage 5 it runs the consistency check, aggregates the charter, and
// marks the session complete. A checkpoint is persisted unconditionally as
// the final step; if that write fails after bounded retries the returned
// error is a *PersistenceError with Unpersisted set and the in-memory
// session state is kept.
func (o *Orchestrator) AdvanceToNextStage(ctx context.Context, sess *session.Session) (*charter.Charter, error) {
	unlock := o.lockSession(sess.ID)
	defer unlock()

	if sess.Status != session.StatusInProgress {
		return nil, &StateError{Op: "AdvanceToNextStage", Reason: fmt.Sprintf("session is %s", sess.Status)}
	}
	completed := sess.CurrentStage
	if sess.StageData[completed] == nil {
		return nil, &StateError{Op: "AdvanceToNextStage", Reason: fmt.Sprintf("stage %d has no accepted deliverable", completed)}
	}

	var result *charter.Charter
	if completed < charter.StageCount {
		sess.CurrentStage = completed + 1
	} else {
		ch, err := o.generateCharter(ctx, sess)
		if err != nil {
			return nil, err
		}
		sess.Status = session.StatusComplete
		result = ch
		o.logEvent(log.Event{
			Event:     log.EventCharterGenerated,
			SessionID: sess.ID,
			Decision:  string(ch.Governance),
		})
	}

	if err := o.saveWithRetry(ctx, sess); err != nil {
		return nil, err
	}
	if err := o.writeCheckpoint(ctx, sess, completed); err != nil {
		return nil, err
	}

	if result != nil {
		o.logEvent(log.Event{Event: log.EventSessionComplete, SessionID: sess.ID})
	}
	return result, nil
}

// ResumeSession reconstructs a session from its latest checkpoint: the stage
// pointer and accepted deliverables only, never conversation transcripts.
func (o *Orchestrator) ResumeSession(ctx context.Context, sessionID string) (*session.Session, error) {
	cp, err := o.store.LatestCheckpoint(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		// No checkpoint yet: the session was interrupted before its first
		// stage completed. Restart from the stored session record.
		sess, err := o.store.LoadSession(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("resume session: %w", err)
		}
		o.logEvent(log.Event{Event: log.EventSessionResumed, SessionID: sess.ID, Stage: sess.CurrentStage})
		return sess, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resume session: %w", err)
	}
	if sum := session.Checksum(cp.Snapshot); sum != cp.Checksum {
		return nil, fmt.Errorf("resume session %s: checkpoint %s is corrupted (checksum mismatch)", sessionID, cp.ID)
	}

	sess, err := session.DecodeSnapshot(cp.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("resume session: %w", err)
	}

	o.logEvent(log.Event{Event: log.EventSessionResumed, SessionID: sess.ID, Stage: sess.CurrentStage})
	return sess, nil
}

// GenerateCharter aggregates the five deliverables into the final charter.
// Requires all five stages complete.
func (o *Orchestrator) GenerateCharter(ctx context.Context, sess *session.Session) (*charter.Charter, error) {
	unlock := o.lockSession(sess.ID)
	defer unlock()
	return o.generateCharter(ctx, sess)
}

func (o *Orchestrator) generateCharter(ctx context.Context, sess *session.Session) (*charter.Charter, error) {
	consistency, err := o.checker.Check(ctx, sess.StageData)
	if err != nil {
		return nil, fmt.Errorf("consistency check: %w", err)
	}
	ch, err := charter.Aggregate(sess.ID, sess.ProjectName, sess.StageData, *consistency, o.thresholds)
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// MarkError moves the session to the error status and persists it on a best
// effort basis. Used when an unrecoverable fault unwinds a stage.
func (o *Orchestrator) MarkError(ctx context.Context, sess *session.Session) {
	unlock := o.lockSession(sess.ID)
	defer unlock()

	sess.Status = session.StatusError
	if err := o.store.SaveSession(ctx, sess); err != nil {
		o.logEvent(log.Event{Event: log.EventSessionError, SessionID: sess.ID, Error: err.Error()})
		return
	}
	o.logEvent(log.Event{Event: log.EventSessionError, SessionID: sess.ID})
}

// ListSessions returns the user's session summaries.
func (o *Orchestrator) ListSessions(ctx context.Context, userID string) ([]session.Summary, error) {
	return o.store.ListSessions(ctx, userID)
}

// LoadSession fetches a session by ID for read-only inspection.
func (o *Orchestrator) LoadSession(ctx context.Context, id string) (*session.Session, error) {
	return o.store.LoadSession(ctx, id)
}

// DeleteSession soft-deletes a session.
func (o *Orchestrator) DeleteSession(ctx context.Context, id string) error {
	return o.store.DeleteSession(ctx, id)
}

// Transcript returns the session's audited conversation turns.
func (o *Orchestrator) Transcript(ctx context.Context, sessionID string) ([]session.TranscriptEntry, error) {
	return o.store.Transcript(ctx, sessionID)
}

// priorDeliverables copies the completed deliverables below stage n as
// read-only advisory context for the runner.
func priorDeliverables(sess *session.Session, n int) map[int]charter.Deliverable {
	prior := make(map[int]charter.Deliverable, n-1)
	for k, d := range sess.StageData {
		if k < n {
			prior[k] = d
		}
	}
	return prior
}

// transcriptSink appends audit turns to the store on a best-effort basis;
// audit failures never interrupt an interview.
func (o *Orchestrator) transcriptSink(ctx context.Context, sessionID string) stage.TranscriptSink {
	return func(stageNumber int, role, content string) {
		_ = o.store.AppendTranscript(ctx, sessionID, stageNumber, role, content)
	}
}

// saveWithRetry persists the session with bounded backoff.
func (o *Orchestrator) saveWithRetry(ctx context.Context, sess *session.Session) error {
	err := o.withBackoff(ctx, func() error {
		return o.store.SaveSession(ctx, sess)
	})
	if err != nil {
		return &PersistenceError{Op: "save session", Unpersisted: true, Err: err}
	}
	return nil
}

// writeCheckpoint snapshots the session and appends the checkpoint record,
// with bounded backoff on store faults.
func (o *Orchestrator) writeCheckpoint(ctx context.Context, sess *session.Session, completedStage int) error {
	snap, err := session.EncodeSnapshot(sess)
	if err != nil {
		return fmt.Errorf("checkpoint stage %d: %w", completedStage, err)
	}
	cp := &session.Checkpoint{
		SessionID:   sess.ID,
		StageNumber: completedStage,
		Snapshot:    snap,
		Checksum:    session.Checksum(snap),
	}

	err = o.withBackoff(ctx, func() error {
		return o.store.SaveCheckpoint(ctx, cp)
	})
	if err != nil {
		return &PersistenceError{Op: fmt.Sprintf("checkpoint stage %d", completedStage), Unpersisted: true, Err: err}
	}

	o.logEvent(log.Event{Event: log.EventCheckpointWritten, SessionID: sess.ID, Stage: completedStage})
	return nil
}

// withBackoff runs fn up to o.retries times, doubling the delay after each
// failure. The context cancels the wait.
func (o *Orchestrator) withBackoff(ctx context.Context, fn func() error) error {
	var err error
	delay := baseBackoff
	for attempt := 1; attempt <= o.retries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == o.retries {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	return fmt.Errorf("after %d attempts: %w", o.retries, err)
}

func (o *Orchestrator) logEvent(event log.Event) {
	if o.logger == nil {
		return
	}
	_ = o.logger.Append(event)
}
