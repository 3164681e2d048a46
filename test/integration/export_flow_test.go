package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/internal/rowsource"
	"github.com/Ramsey-B/fern/pkg/emitter"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/exporter"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/registry"
	"github.com/Ramsey-B/fern/pkg/validator"
)

const registryDoc = `
version: 1
order:
  - department
  - person
entities:
  - name: department
    fields:
      - name: code
        type: string
        required: true
        normalizer: uppercase
      - name: title
        type: string
    unique_key: [code]
    id_template: "{code}"
  - name: person
    fields:
      - name: first_name
        type: string
        required: true
      - name: last_name
        type: string
        required: true
      - name: email
        type: string
        normalizer: email
      - name: hired_on
        type: date
      - name: remote
        type: boolean
      - name: status
        type: enum
        enum: person_status
      - name: department
        type: reference
        target: department
    unique_key: [first_name, last_name]
    id_template: "{first_name}-{last_name}"
enums:
  person_status:
    values:
      active: [enabled, current]
      inactive: [disabled, former]
`

const departmentRows = `[
	{"_row": "hrms:dept:10", "code": "eng", "title": "Engineering"},
	{"_row": "hrms:dept:11", "code": "hr", "title": "People Ops"}
]`

const personRows = `[
	{"_row": "hrms:emp:1", "first_name": "John", "last_name": "Smith", "email": "John.Smith@Example.com", "hired_on": "03/14/2019", "remote": "yes", "status": "enabled", "department": "ENG"},
	{"_row": "hrms:emp:2", "first_name": "Jane", "last_name": "Doe", "email": "jane@example.com", "hired_on": "2021-06-01", "remote": "no", "status": "current", "department": "HR"},
	{"_row": "hrms:emp:3", "first_name": "Bad", "last_name": "Record", "email": "not-an-email", "department": "ENG"}
]`

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

// setup builds the full file-driven pipeline: a registry document on disk, a
// row source directory and a wired exporter
func setup(t *testing.T) (*exporter.Exporter, *rowsource.Loader, string) {
	t.Helper()

	root := t.TempDir()
	registryPath := filepath.Join(root, "registry.yaml")
	rowsDir := filepath.Join(root, "rows")
	outDir := filepath.Join(root, "out")

	require.NoError(t, os.WriteFile(registryPath, []byte(registryDoc), 0o644))
	require.NoError(t, os.MkdirAll(rowsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(rowsDir, "department.json"), []byte(departmentRows), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(rowsDir, "person.json"), []byte(personRows), 0o644))

	reg, err := registry.Load(registryPath)
	require.NoError(t, err)

	logger := testLogger()
	exp := exporter.New(
		reg,
		validator.New(reg, logger),
		emitter.New(outDir, logger),
		events.NewEmitter(nil, logger),
		outDir,
		logger,
	)
	return exp, rowsource.NewLoader(rowsDir, logger), outDir
}

func TestFileDrivenExport(t *testing.T) {
	exp, loader, outDir := setup(t)
	ctx := context.Background()

	sources, err := loader.Load(ctx)
	require.NoError(t, err)

	manifest, err := exp.Run(ctx, sources)
	require.NoError(t, err)

	t.Run("run completes", func(t *testing.T) {
		assert.Equal(t, models.RunStateDone, manifest.State)
		assert.Equal(t, 4, manifest.TotalValid())
		assert.Equal(t, 1, manifest.TotalExceptions())
	})

	t.Run("bad record is isolated with its source pointer", func(t *testing.T) {
		require.Len(t, manifest.Exceptions, 1)
		exc := manifest.Exceptions[0]
		assert.Equal(t, models.RuleFormatError, exc.Category)
		assert.Equal(t, "hrms:emp:3", exc.Source)
	})

	t.Run("artifacts are normalized and resolved", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(outDir, "person.csv"))
		require.NoError(t, err)
		assert.Equal(t,
			"external_id,first_name,last_name,email,hired_on,remote,status,department\n"+
				"person.jane-doe,Jane,Doe,jane@example.com,2021-06-01,false,active,department.hr\n"+
				"person.john-smith,John,Smith,john.smith@example.com,2019-03-14,true,active,department.eng\n",
			string(data))
	})

	t.Run("manifest lands next to the artifacts", func(t *testing.T) {
		_, err := os.Stat(filepath.Join(outDir, "manifest.json"))
		assert.NoError(t, err)
	})
}

func TestFileDrivenExport_RepeatRunsAreIdentical(t *testing.T) {
	exp, loader, outDir := setup(t)
	ctx := context.Background()

	sources, err := loader.Load(ctx)
	require.NoError(t, err)

	first, err := exp.Run(ctx, sources)
	require.NoError(t, err)
	firstBytes, err := os.ReadFile(filepath.Join(outDir, "person.csv"))
	require.NoError(t, err)

	second, err := exp.Run(ctx, sources)
	require.NoError(t, err)
	secondBytes, err := os.ReadFile(filepath.Join(outDir, "person.csv"))
	require.NoError(t, err)

	assert.Equal(t, firstBytes, secondBytes)
	assert.Equal(t, first.ContentHash, second.ContentHash)
}
