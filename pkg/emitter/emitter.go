// Package emitter renders validated entity rows as CSV artifacts. Output is
// byte-deterministic: the header follows the declared field order, rows are
// sorted by external ID, and the file is assembled in memory and written
// exactly once.
package emitter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/fingerprint"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const externalIDColumn = "external_id"

// Emitter writes one CSV artifact per entity into an output directory
type Emitter struct {
	outputDir string
	logger    ectologger.Logger
}

// New creates an emitter rooted at outputDir
func New(outputDir string, logger ectologger.Logger) *Emitter {
	return &Emitter{outputDir: outputDir, logger: logger}
}

// Render produces the CSV bytes for an entity without touching disk. The
// column order is external_id followed by the entity's declared fields; rows
// are ordered by external ID.
func (e *Emitter) Render(entity *models.EntitySpec, rows []models.ValidRow) ([]byte, error) {
	sorted := make([]models.ValidRow, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ExternalID < sorted[j].ExternalID
	})

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, 0, len(entity.Fields)+1)
	header = append(header, externalIDColumn)
	for i := range entity.Fields {
		header = append(header, entity.Fields[i].Name)
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write header for %s: %w", entity.Name, err)
	}

	record := make([]string, len(header))
	for _, row := range sorted {
		record[0] = row.ExternalID
		for i := range entity.Fields {
			record[i+1] = row.Values[entity.Fields[i].Name]
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write row for %s: %w", entity.Name, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv for %s: %w", entity.Name, err)
	}
	return buf.Bytes(), nil
}

// Emit renders the entity's artifact and writes it to disk, returning its
// path, content hash and row count
func (e *Emitter) Emit(ctx context.Context, entity *models.EntitySpec, rows []models.ValidRow) (models.Artifact, error) {
	ctx, span := tracing.StartSpan(ctx, "emitter.Emit")
	defer span.End()

	data, err := e.Render(entity, rows)
	if err != nil {
		return models.Artifact{}, err
	}

	path := filepath.Join(e.outputDir, entity.Name+".csv")
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return models.Artifact{}, fmt.Errorf("failed to create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return models.Artifact{}, fmt.Errorf("failed to write artifact %s: %w", path, err)
	}

	artifact := models.Artifact{
		Path:   path,
		SHA256: fingerprint.Bytes(data),
		Rows:   len(rows),
	}

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"entity": entity.Name,
		"path":   artifact.Path,
		"rows":   artifact.Rows,
		"sha256": artifact.SHA256,
	}).Info("wrote export artifact")

	return artifact, nil
}
