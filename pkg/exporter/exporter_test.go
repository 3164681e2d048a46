package exporter

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/emitter"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/registry"
	"github.com/Ramsey-B/fern/pkg/validator"
)

const exportDoc = `
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
      - name: department
        type: reference
        target: department
    unique_key: [first_name, last_name]
    id_template: "{first_name}-{last_name}"
`

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func newTestExporter(t *testing.T, dir string) *Exporter {
	t.Helper()
	reg, err := registry.Parse([]byte(exportDoc))
	require.NoError(t, err)
	logger := testLogger()
	return New(
		reg,
		validator.New(reg, logger),
		emitter.New(dir, logger),
		events.NewEmitter(nil, logger),
		dir,
		logger,
	)
}

func row(source string, values map[string]string) models.Row {
	return models.Row{Source: source, Values: values}
}

func testSources() map[string][]models.Row {
	return map[string][]models.Row{
		"department": {
			row("departments:1", map[string]string{"code": "eng", "title": "Engineering"}),
			row("departments:2", map[string]string{"code": "hr", "title": "People"}),
		},
		"person": {
			row("people:1", map[string]string{"first_name": "John", "last_name": "Smith", "department": "ENG"}),
			row("people:2", map[string]string{"first_name": "Jane", "last_name": "Doe", "department": "HR"}),
		},
	}
}

func TestRun_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	exp := newTestExporter(t, dir)

	manifest, err := exp.Run(context.Background(), testSources())
	require.NoError(t, err)

	t.Run("run reaches done", func(t *testing.T) {
		assert.Equal(t, models.RunStateDone, manifest.State)
		assert.NotEmpty(t, manifest.RunID)
		assert.NotEmpty(t, manifest.ContentHash)
		assert.False(t, manifest.CompletedAt.IsZero())
	})

	t.Run("entities are processed in declared order", func(t *testing.T) {
		require.Len(t, manifest.Entities, 2)
		assert.Equal(t, "department", manifest.Entities[0].Entity)
		assert.Equal(t, "person", manifest.Entities[1].Entity)
	})

	t.Run("child rows carry the parent external ID", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(dir, "person.csv"))
		require.NoError(t, err)
		assert.Equal(t,
			"external_id,first_name,last_name,department\n"+
				"person.jane-doe,Jane,Doe,department.hr\n"+
				"person.john-smith,John,Smith,department.eng\n",
			string(data))
	})

	t.Run("manifest file is written", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
		require.NoError(t, err)

		var written models.ExportManifest
		require.NoError(t, json.Unmarshal(data, &written))
		assert.Equal(t, manifest.RunID, written.RunID)
	})

	t.Run("counts add up", func(t *testing.T) {
		assert.Equal(t, 4, manifest.TotalValid())
		assert.Equal(t, 0, manifest.TotalExceptions())
	})
}

func TestRun_Deterministic(t *testing.T) {
	dir := t.TempDir()

	runOnce := func() (*models.ExportManifest, []byte, []byte) {
		exp := newTestExporter(t, dir)
		manifest, err := exp.Run(context.Background(), testSources())
		require.NoError(t, err)
		departments, err := os.ReadFile(filepath.Join(dir, "department.csv"))
		require.NoError(t, err)
		people, err := os.ReadFile(filepath.Join(dir, "person.csv"))
		require.NoError(t, err)
		return manifest, departments, people
	}

	first, firstDeps, firstPeople := runOnce()
	second, secondDeps, secondPeople := runOnce()

	t.Run("artifacts are byte-identical", func(t *testing.T) {
		assert.Equal(t, firstDeps, secondDeps)
		assert.Equal(t, firstPeople, secondPeople)
	})

	t.Run("content hash is identical", func(t *testing.T) {
		assert.Equal(t, first.ContentHash, second.ContentHash)
	})

	t.Run("run metadata differs", func(t *testing.T) {
		assert.NotEqual(t, first.RunID, second.RunID)
	})
}

func TestRun_CollidingSlugs(t *testing.T) {
	const doc = `
version: 1
order: [person]
entities:
  - name: person
    fields:
      - {name: first_name, type: string, required: true}
      - {name: last_name, type: string, required: true}
    unique_key: [first_name, last_name]
    id_template: "{first_name}-{last_name}"
`
	reg, err := registry.Parse([]byte(doc))
	require.NoError(t, err)
	logger := testLogger()
	dir := t.TempDir()
	exp := New(reg, validator.New(reg, logger), emitter.New(dir, logger), events.NewEmitter(nil, logger), dir, logger)

	// Distinct unique keys that slugify to the same base
	sources := map[string][]models.Row{
		"person": {
			row("people:1", map[string]string{"first_name": "John", "last_name": "Smith"}),
			row("people:2", map[string]string{"first_name": "JOHN", "last_name": "smith"}),
		},
	}

	manifest, runErr := exp.Run(context.Background(), sources)
	require.NoError(t, runErr)
	assert.Equal(t, 2, manifest.TotalValid())

	data, err := os.ReadFile(filepath.Join(dir, "person.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "person.john-smith,John,Smith")
	assert.Contains(t, string(data), "person.john-smith-2,JOHN,smith")
}

func TestRun_OrphanDoesNotBlockSiblings(t *testing.T) {
	dir := t.TempDir()
	exp := newTestExporter(t, dir)

	sources := testSources()
	sources["person"] = append(sources["person"],
		row("people:3", map[string]string{"first_name": "Ada", "last_name": "Lovelace", "department": "LEGAL"}))

	manifest, err := exp.Run(context.Background(), sources)
	require.NoError(t, err)

	require.Len(t, manifest.Exceptions, 1)
	assert.Equal(t, models.RuleOrphanReference, manifest.Exceptions[0].Category)
	assert.Equal(t, "people:3", manifest.Exceptions[0].Source)

	assert.Equal(t, models.RunStateDone, manifest.State)
	assert.Equal(t, 2, manifest.Entities[1].ValidCount)
	assert.Equal(t, 1, manifest.Entities[1].ErrorCount)
}

func TestRun_UnrelatedReorderingKeepsIDs(t *testing.T) {
	readArtifact := func(t *testing.T, dir, name string) []byte {
		t.Helper()
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		return data
	}

	baseline := t.TempDir()
	_, err := newTestExporter(t, baseline).Run(context.Background(), testSources())
	require.NoError(t, err)

	t.Run("swapping rows within an entity", func(t *testing.T) {
		// The swapped slugs never collide, so the sorted artifact is identical
		dir := t.TempDir()
		swapped := testSources()
		swapped["person"][0], swapped["person"][1] = swapped["person"][1], swapped["person"][0]
		_, err := newTestExporter(t, dir).Run(context.Background(), swapped)
		require.NoError(t, err)

		assert.Equal(t,
			readArtifact(t, baseline, "person.csv"),
			readArtifact(t, dir, "person.csv"))
	})

	t.Run("reordering one entity never moves another entity's IDs", func(t *testing.T) {
		dir := t.TempDir()
		swapped := testSources()
		swapped["department"][0], swapped["department"][1] = swapped["department"][1], swapped["department"][0]
		_, err := newTestExporter(t, dir).Run(context.Background(), swapped)
		require.NoError(t, err)

		assert.Equal(t,
			readArtifact(t, baseline, "person.csv"),
			readArtifact(t, dir, "person.csv"))
		assert.Equal(t,
			readArtifact(t, baseline, "department.csv"),
			readArtifact(t, dir, "department.csv"))
	})
}

func TestRun_EmptyEntityYieldsHeaderOnlyArtifact(t *testing.T) {
	dir := t.TempDir()
	exp := newTestExporter(t, dir)

	sources := testSources()
	delete(sources, "person")

	manifest, err := exp.Run(context.Background(), sources)
	require.NoError(t, err)
	assert.Equal(t, models.RunStateDone, manifest.State)

	data, err := os.ReadFile(filepath.Join(dir, "person.csv"))
	require.NoError(t, err)
	assert.Equal(t, "external_id,first_name,last_name,department\n", string(data))
}

func TestRun_AbortsOnUnknownSource(t *testing.T) {
	dir := t.TempDir()
	exp := newTestExporter(t, dir)

	sources := testSources()
	sources["warehouse"] = []models.Row{row("w:1", map[string]string{"code": "X"})}

	manifest, err := exp.Run(context.Background(), sources)
	require.Error(t, err)
	require.NotNil(t, manifest)
	assert.Equal(t, models.RunStateAborted, manifest.State)
	assert.Empty(t, manifest.Entities)

	// Nothing was written
	_, statErr := os.Stat(filepath.Join(dir, "department.csv"))
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(filepath.Join(dir, "manifest.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestDryRun(t *testing.T) {
	dir := t.TempDir()
	exp := newTestExporter(t, dir)

	manifest, err := exp.DryRun(context.Background(), testSources())
	require.NoError(t, err)

	t.Run("reports the same counts as a real run", func(t *testing.T) {
		assert.Equal(t, models.RunStateDone, manifest.State)
		assert.Equal(t, 4, manifest.TotalValid())
	})

	t.Run("writes nothing", func(t *testing.T) {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("artifact summaries are absent", func(t *testing.T) {
		for _, result := range manifest.Entities {
			assert.Nil(t, result.Artifact)
		}
	})
}
