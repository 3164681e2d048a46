package events

import (
	"time"

	"github.com/Ramsey-B/fern/pkg/models"
)

// EventType defines the type of event
type EventType string

const (
	// Run lifecycle events
	EventTypeExportStarted   EventType = "export.started"
	EventTypeExportCompleted EventType = "export.completed"
	EventTypeExportAborted   EventType = "export.aborted"

	// Per-entity events
	EventTypeEntityExported EventType = "entity.exported"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventType     EventType `json:"event_type"`
	SchemaVersion string    `json:"schema_version"`
	RunID         string    `json:"run_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// ExportStartedEvent is emitted when a run enters the processing state
type ExportStartedEvent struct {
	BaseEvent
	Entities []string `json:"entities"`
}

// EntityExportedEvent is emitted when one entity's artifact is written
type EntityExportedEvent struct {
	BaseEvent
	Entity     string `json:"entity"`
	ValidCount int    `json:"valid_count"`
	ErrorCount int    `json:"error_count"`
	Artifact   string `json:"artifact"`
	SHA256     string `json:"sha256"`
}

// ExportCompletedEvent is emitted when a run reaches the done state
type ExportCompletedEvent struct {
	BaseEvent
	Entities    []models.EntityResult `json:"entities"`
	TotalValid  int                   `json:"total_valid"`
	TotalErrors int                   `json:"total_errors"`
	ContentHash string                `json:"content_hash"`
}

// ExportAbortedEvent is emitted when a run aborts on a fatal configuration
// error before any rows are processed
type ExportAbortedEvent struct {
	BaseEvent
	Reason string `json:"reason"`
}
