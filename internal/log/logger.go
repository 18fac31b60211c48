// Package log provides structured event logging.
// This file appends JSON events to log.jsonl.
package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Event type constants.
const (
	EventSessionCreated    = "session_created"
	EventSessionResumed    = "session_resumed"
	EventSessionComplete   = "session_complete"
	EventSessionError      = "session_error"
	EventStageStarted      = "stage_started"
	EventQuestionAsked     = "question_asked"
	EventAnswerAccepted    = "answer_accepted"
	EventAnswerRejected    = "answer_rejected"
	EventAnswerEscalated   = "answer_escalated"
	EventInjectionBlocked  = "injection_blocked"
	EventGatePassed        = "gate_passed"
	EventGateRejected      = "gate_rejected"
	EventCheckpointWritten = "checkpoint_written"
	EventCharterGenerated  = "charter_generated"
)

// Event represents a single structured event written to the log.
type Event struct {
	Time      time.Time              `json:"time"`
	Event     string                 `json:"event"`
	SessionID string                 `json:"session,omitempty"`
	Stage     int                    `json:"stage,omitempty"`
	Attempt   int                    `json:"attempt,omitempty"`
	Score     int                    `json:"score,omitempty"`
	Decision  string                 `json:"decision,omitempty"`
	Fields    []string               `json:"fields,omitempty"`
	Reason    string                 `json:"reason,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Logger writes append-only JSONL events to a log file.
type Logger struct {
	path string
	mu   sync.Mutex
}

// NewLogger creates a Logger that writes to .fathom/log.jsonl inside dir.
// Creates the .fathom/ directory if it does not already exist.
// Does not truncate an existing log file.
func NewLogger(dir string) (*Logger, error) {
	fathomDir := filepath.Join(dir, ".fathom")
	if err := os.MkdirAll(fathomDir, 0755); err != nil {
		return nil, fmt.Errorf("create .fathom directory: %w", err)
	}

	return &Logger{
		path: filepath.Join(fathomDir, "log.jsonl"),
	}, nil
}

// Append writes a single Event as one JSON line to the log file.
// If event.Time is the zero value, it is automatically set to time.Now().UTC().
// The file is opened in append mode, written to, and then closed.
// Thread-safe via mutex.
func (l *Logger) Append(event Event) error {
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal log event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write log event: %w", err)
	}

	return nil
}

// ReadAll reads and parses all events from the log file.
// Returns an empty slice (not an error) if the file does not exist.
func (l *Logger) ReadAll() ([]Event, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Event{}, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			return nil, fmt.Errorf("parse log line %d: %w", lineNum, err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	return events, nil
}
