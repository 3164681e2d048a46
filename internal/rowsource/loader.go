// Package rowsource loads entity row batches from JSON documents. Each file
// in the source directory holds one entity's rows; the file's base name is
// the entity name.
package rowsource

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// sourceKey is the reserved metadata key naming the record's origin. All
// other keys are field values.
const sourceKey = "_row"

// Loader reads row batches from a directory of per-entity JSON files
type Loader struct {
	dir    string
	logger ectologger.Logger
}

// NewLoader creates a loader over dir
func NewLoader(dir string, logger ectologger.Logger) *Loader {
	return &Loader{dir: dir, logger: logger}
}

// Load reads every *.json file in the directory and returns the batches
// keyed by entity name. File order and in-file row order are preserved, so
// identical input directories produce identical batches.
func (l *Loader) Load(ctx context.Context) (map[string][]models.Row, error) {
	ctx, span := tracing.StartSpan(ctx, "rowsource.Loader.Load")
	defer span.End()

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read row source dir %s: %w", l.dir, err)
	}

	sources := make(map[string][]models.Row)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		entity := strings.TrimSuffix(entry.Name(), ".json")
		rows, err := l.loadFile(filepath.Join(l.dir, entry.Name()), entity)
		if err != nil {
			return nil, err
		}
		sources[entity] = rows
	}

	l.logger.WithContext(ctx).WithFields(map[string]any{
		"dir":      l.dir,
		"entities": len(sources),
	}).Debug("loaded row sources")

	return sources, nil
}

func (l *Loader) loadFile(path, entity string) ([]models.Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read row source %s: %w", path, err)
	}

	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse row source %s: %w", path, err)
	}

	rows := make([]models.Row, 0, len(records))
	for i, record := range records {
		row := models.Row{
			Source: fmt.Sprintf("%s:row[%d]", entity, i),
			Values: make(map[string]string, len(record)),
		}
		for k, v := range record {
			if k == sourceKey {
				if s, ok := v.(string); ok && s != "" {
					row.Source = s
				}
				continue
			}
			row.Values[k] = stringify(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// stringify converts a JSON scalar to its raw string form. Whole numbers are
// written without a fraction so integer fields round-trip cleanly.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		b, _ := json.Marshal(val)
		return string(b)
	}
}
