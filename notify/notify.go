package notify

import (
	"context"
	"time"
)

// EventType classifies a pipeline run event.
type EventType string

const (
	EventRunStarted   EventType = "run_started"
	EventRunCompleted EventType = "run_completed"
	EventRunFailed    EventType = "run_failed"
	EventPRCreated    EventType = "pr_created"
	EventPRFailed     EventType = "pr_failed"
)

// Severity constants for events.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Event describes one pipeline run event.
type Event struct {
	Type      EventType      `json:"type"`
	RunID     string         `json:"run_id"`
	Message   string         `json:"message"`
	Severity  string         `json:"severity"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Notifier sends notifications about pipeline events.
type Notifier interface {
	// Notify sends a notification. Implementations should handle errors
	// gracefully; a failed notification never fails the run.
	Notify(ctx context.Context, event Event) error
}
