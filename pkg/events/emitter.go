// Package events handles event emission for export run lifecycle changes
package events

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Emitter handles event emission for Fern. A nil producer disables emission
// without changing run behavior; events are advisory, never load-bearing.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

func (e *Emitter) base(eventType EventType, runID string) BaseEvent {
	return BaseEvent{
		EventType:     eventType,
		SchemaVersion: SchemaVersion,
		RunID:         runID,
		Timestamp:     time.Now().UTC(),
	}
}

// EmitExportStarted emits an export.started event
func (e *Emitter) EmitExportStarted(ctx context.Context, runID string, entities []string) error {
	if e == nil || e.producer == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitExportStarted")
	defer span.End()

	event := &ExportStartedEvent{
		BaseEvent: e.base(EventTypeExportStarted, runID),
		Entities:  entities,
	}

	if err := e.producer.Publish(ctx, string(EventTypeExportStarted), runID, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit export.started event")
		return err
	}

	return nil
}

// EmitEntityExported emits an entity.exported event for one written artifact
func (e *Emitter) EmitEntityExported(ctx context.Context, runID string, result models.EntityResult) error {
	if e == nil || e.producer == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitEntityExported")
	defer span.End()

	event := &EntityExportedEvent{
		BaseEvent:  e.base(EventTypeEntityExported, runID),
		Entity:     result.Entity,
		ValidCount: result.ValidCount,
		ErrorCount: result.ErrorCount,
	}
	if result.Artifact != nil {
		event.Artifact = result.Artifact.Path
		event.SHA256 = result.Artifact.SHA256
	}

	if err := e.producer.Publish(ctx, string(EventTypeEntityExported), runID, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit entity.exported event")
		return err
	}

	return nil
}

// EmitExportCompleted emits an export.completed event with the run summary
func (e *Emitter) EmitExportCompleted(ctx context.Context, manifest *models.ExportManifest) error {
	if e == nil || e.producer == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitExportCompleted")
	defer span.End()

	event := &ExportCompletedEvent{
		BaseEvent:   e.base(EventTypeExportCompleted, manifest.RunID),
		Entities:    manifest.Entities,
		TotalValid:  manifest.TotalValid(),
		TotalErrors: manifest.TotalExceptions(),
		ContentHash: manifest.ContentHash,
	}

	if err := e.producer.Publish(ctx, string(EventTypeExportCompleted), manifest.RunID, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit export.completed event")
		return err
	}

	return nil
}

// EmitExportAborted emits an export.aborted event
func (e *Emitter) EmitExportAborted(ctx context.Context, runID, reason string) error {
	if e == nil || e.producer == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitExportAborted")
	defer span.End()

	event := &ExportAbortedEvent{
		BaseEvent: e.base(EventTypeExportAborted, runID),
		Reason:    reason,
	}

	if err := e.producer.Publish(ctx, string(EventTypeExportAborted), runID, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit export.aborted event")
		return err
	}

	return nil
}
