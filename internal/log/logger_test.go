package log

import "testing"

// TestAppendAndReadAll verifies events round-trip through the JSONL file in
// order.
func TestAppendAndReadAll(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	events := []Event{
		{Event: EventSessionCreated, SessionID: "s1"},
		{Event: EventStageStarted, SessionID: "s1", Stage: 1},
		{Event: EventAnswerRejected, SessionID: "s1", Stage: 1, Attempt: 1, Score: 4},
		{Event: EventGatePassed, SessionID: "s1", Stage: 1},
	}
	for _, ev := range events {
		if err := logger.Append(ev); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	read, err := logger.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(read) != len(events) {
		t.Fatalf("read %d events, want %d", len(read), len(events))
	}
	for i, ev := range read {
		if ev.Event != events[i].Event {
			t.Errorf("event %d = %s, want %s", i, ev.Event, events[i].Event)
		}
		if ev.Time.IsZero() {
			t.Errorf("event %d has no timestamp", i)
		}
	}
	if read[2].Score != 4 || read[2].Attempt != 1 {
		t.Errorf("event 2 detail = score %d attempt %d", read[2].Score, read[2].Attempt)
	}
}

// TestAppendDoesNotTruncate verifies a second logger over the same directory
// appends rather than rewriting.
func TestAppendDoesNotTruncate(t *testing.T) {
	dir := t.TempDir()

	first, err := NewLogger(dir)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	if err := first.Append(Event{Event: EventSessionCreated, SessionID: "s1"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	second, err := NewLogger(dir)
	if err != nil {
		t.Fatalf("NewLogger (reopen) failed: %v", err)
	}
	if err := second.Append(Event{Event: EventSessionResumed, SessionID: "s1"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	read, err := second.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(read) != 2 {
		t.Fatalf("read %d events after reopen, want 2", len(read))
	}
}

// TestReadAllMissingFile verifies a fresh logger reads back empty, not an
// error.
func TestReadAllMissingFile(t *testing.T) {
	logger, err := NewLogger(t.TempDir())
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	read, err := logger.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(read) != 0 {
		t.Errorf("read %d events from a fresh log", len(read))
	}
}
