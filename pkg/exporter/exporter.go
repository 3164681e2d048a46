// Package exporter orchestrates export runs. A run walks the registry's
// declared entity order, validates each batch, assigns external IDs, emits
// CSV artifacts and accumulates the run manifest. Entities are processed
// strictly sequentially so that foreign keys always resolve against parents
// exported earlier in the same run.
package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/fern/pkg/emitter"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/externalid"
	"github.com/Ramsey-B/fern/pkg/fingerprint"
	"github.com/Ramsey-B/fern/pkg/fkcache"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/registry"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/validator"
)

// manifestFile is the name of the run summary written next to the artifacts
const manifestFile = "manifest.json"

// contentHashExclusions lists the manifest fields that vary between runs of
// identical input. The content hash covers everything else.
var contentHashExclusions = map[string]bool{
	"run_id":       true,
	"state":        true,
	"started_at":   true,
	"completed_at": true,
	"content_hash": true,
}

// Exporter runs the export pipeline end to end
type Exporter struct {
	reg       *registry.Registry
	validator *validator.Validator
	emitter   *emitter.Emitter
	events    *events.Emitter
	outputDir string
	logger    ectologger.Logger
}

// New creates an exporter. The events emitter may be nil when event
// publication is disabled.
func New(reg *registry.Registry, v *validator.Validator, em *emitter.Emitter, ev *events.Emitter, outputDir string, logger ectologger.Logger) *Exporter {
	return &Exporter{
		reg:       reg,
		validator: v,
		emitter:   em,
		events:    ev,
		outputDir: outputDir,
		logger:    logger,
	}
}

// Run executes a full export over the given row sources, keyed by entity
// name. It returns the frozen manifest; the manifest is also valid when the
// run aborts.
func (e *Exporter) Run(ctx context.Context, sources map[string][]models.Row) (*models.ExportManifest, error) {
	return e.run(ctx, sources, true)
}

// DryRun executes validation and ID assignment without writing artifacts,
// the manifest file or events. The returned manifest reports what a real run
// would produce.
func (e *Exporter) DryRun(ctx context.Context, sources map[string][]models.Row) (*models.ExportManifest, error) {
	return e.run(ctx, sources, false)
}

func (e *Exporter) run(ctx context.Context, sources map[string][]models.Row, write bool) (*models.ExportManifest, error) {
	ctx, span := tracing.StartSpan(ctx, "exporter.Run")
	defer span.End()

	start := time.Now()
	manifest := &models.ExportManifest{
		RunID:     uuid.NewString(),
		State:     models.RunStateLoading,
		StartedAt: start.UTC(),
	}

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"run_id":   manifest.RunID,
		"entities": len(sources),
		"dry_run":  !write,
	}).Info("starting export run")

	// Loading: every source must name a declared, exportable entity. A bad
	// source is a configuration fault, so the whole run aborts before any
	// row is processed.
	if err := e.checkSources(sources); err != nil {
		return e.abort(ctx, manifest, write, err)
	}

	manifest.State = models.RunStateProcessing
	if write {
		if err := e.events.EmitExportStarted(ctx, manifest.RunID, e.reg.Order()); err != nil {
			e.logger.WithContext(ctx).WithError(err).Warn("export.started event not delivered")
		}
	}

	cache := fkcache.New()
	for _, name := range e.reg.Order() {
		result, err := e.processEntity(ctx, name, sources[name], cache, manifest, write)
		if err != nil {
			return e.abort(ctx, manifest, write, err)
		}
		manifest.Entities = append(manifest.Entities, result)
		if write {
			if evErr := e.events.EmitEntityExported(ctx, manifest.RunID, result); evErr != nil {
				e.logger.WithContext(ctx).WithError(evErr).Warn("entity.exported event not delivered")
			}
		}
	}

	manifest.State = models.RunStateFinalizing
	if err := e.finalize(ctx, manifest, write); err != nil {
		return e.abort(ctx, manifest, write, err)
	}

	manifest.State = models.RunStateDone
	manifest.CompletedAt = time.Now().UTC()

	if write {
		metrics.ExportRunsTotal.WithLabelValues(string(models.RunStateDone)).Inc()
		metrics.ExportRunDuration.Observe(time.Since(start).Seconds())
		if err := e.events.EmitExportCompleted(ctx, manifest); err != nil {
			e.logger.WithContext(ctx).WithError(err).Warn("export.completed event not delivered")
		}
	}

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"run_id":       manifest.RunID,
		"valid":        manifest.TotalValid(),
		"exceptions":   manifest.TotalExceptions(),
		"content_hash": manifest.ContentHash,
		"duration":     time.Since(start).String(),
	}).Info("export run complete")

	return manifest, nil
}

// processEntity validates one batch, assigns external IDs in row order and
// writes the entity's artifact. An entity with no source rows still produces
// a header-only artifact.
func (e *Exporter) processEntity(ctx context.Context, name string, rows []models.Row, cache *fkcache.Cache, manifest *models.ExportManifest, write bool) (models.EntityResult, error) {
	ctx, span := tracing.StartSpan(ctx, "exporter.processEntity")
	defer span.End()

	spec := e.reg.Entity(name)
	valid, exceptions := e.validator.Validate(ctx, spec, rows, cache)

	gen := externalid.New(spec)
	for i := range valid {
		rec := gen.Generate(valid[i].Values)
		rec.Key = valid[i].Key
		valid[i].ExternalID = rec.ID
		cache.Put(rec)
	}

	manifest.Exceptions = append(manifest.Exceptions, exceptions...)

	result := models.EntityResult{
		Entity:     name,
		ValidCount: len(valid),
		ErrorCount: len(exceptions),
	}

	if write {
		metrics.RowsExportedTotal.WithLabelValues(name).Add(float64(len(valid)))
		metrics.ExternalIDsAssigned.WithLabelValues(name).Add(float64(len(valid)))
		for _, exc := range exceptions {
			metrics.RowsRejectedTotal.WithLabelValues(name, string(exc.Category)).Inc()
		}

		artifact, err := e.emitter.Emit(ctx, spec, valid)
		if err != nil {
			return result, err
		}
		result.Artifact = &artifact
	}

	return result, nil
}

// finalize computes the content hash and, on real runs, writes the manifest
// file next to the artifacts
func (e *Exporter) finalize(ctx context.Context, manifest *models.ExportManifest, write bool) error {
	_, span := tracing.StartSpan(ctx, "exporter.finalize")
	defer span.End()

	data, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	hash, err := fingerprint.GenerateFromJSON(data, contentHashExclusions)
	if err != nil {
		return fmt.Errorf("failed to hash manifest: %w", err)
	}
	manifest.ContentHash = hash

	if !write {
		return nil
	}

	out, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	path := filepath.Join(e.outputDir, manifestFile)
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return nil
}

// checkSources rejects row sources that name unknown or external entities
func (e *Exporter) checkSources(sources map[string][]models.Row) error {
	for name := range sources {
		if e.reg.IsExternal(name) {
			return fmt.Errorf("source %q names an external entity, which cannot be exported", name)
		}
		if e.reg.Entity(name) == nil {
			return fmt.Errorf("source %q does not match any declared entity", name)
		}
	}
	return nil
}

// abort freezes the manifest in the aborted state. No artifact produced
// before the fault is trusted.
func (e *Exporter) abort(ctx context.Context, manifest *models.ExportManifest, write bool, cause error) (*models.ExportManifest, error) {
	manifest.State = models.RunStateAborted
	manifest.CompletedAt = time.Now().UTC()

	e.logger.WithContext(ctx).WithError(cause).WithFields(map[string]any{
		"run_id": manifest.RunID,
	}).Error("export run aborted")

	if write {
		metrics.ExportRunsTotal.WithLabelValues(string(models.RunStateAborted)).Inc()
		if err := e.events.EmitExportAborted(ctx, manifest.RunID, cause.Error()); err != nil {
			e.logger.WithContext(ctx).WithError(err).Warn("export.aborted event not delivered")
		}
	}

	return manifest, cause
}
