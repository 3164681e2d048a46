package fingerprint

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytes(t *testing.T) {
	t.Run("equal content hashes equal", func(t *testing.T) {
		assert.Equal(t, Bytes([]byte("a,b,c\n")), Bytes([]byte("a,b,c\n")))
	})

	t.Run("different content hashes different", func(t *testing.T) {
		assert.NotEqual(t, Bytes([]byte("a")), Bytes([]byte("b")))
	})
}

func TestGenerate(t *testing.T) {
	t.Run("key order does not matter", func(t *testing.T) {
		a := Generate(map[string]any{"x": 1, "y": "two", "z": []any{"a", "b"}})
		b := Generate(map[string]any{"z": []any{"a", "b"}, "y": "two", "x": 1})
		assert.Equal(t, a, b)
	})

	t.Run("array order matters", func(t *testing.T) {
		a := Generate(map[string]any{"z": []any{"a", "b"}})
		b := Generate(map[string]any{"z": []any{"b", "a"}})
		assert.NotEqual(t, a, b)
	})

	t.Run("nested maps are canonicalized", func(t *testing.T) {
		a := Generate(map[string]any{"outer": map[string]any{"p": 1, "q": 2}})
		b := Generate(map[string]any{"outer": map[string]any{"q": 2, "p": 1}})
		assert.Equal(t, a, b)
	})
}

func TestGenerateWithExclusions(t *testing.T) {
	t.Run("excluded top-level fields are ignored", func(t *testing.T) {
		exclude := map[string]bool{"run_id": true}
		a := GenerateWithExclusions(map[string]any{"run_id": "r1", "total": 5}, exclude)
		b := GenerateWithExclusions(map[string]any{"run_id": "r2", "total": 5}, exclude)
		assert.Equal(t, a, b)
	})

	t.Run("nested paths are matched hierarchically", func(t *testing.T) {
		exclude := map[string]bool{"meta.updated_at": true}
		a := GenerateWithExclusions(map[string]any{"meta": map[string]any{"updated_at": "t1", "kind": "x"}}, exclude)
		b := GenerateWithExclusions(map[string]any{"meta": map[string]any{"updated_at": "t2", "kind": "x"}}, exclude)
		assert.Equal(t, a, b)
	})

	t.Run("non-excluded differences still change the hash", func(t *testing.T) {
		exclude := map[string]bool{"run_id": true}
		a := GenerateWithExclusions(map[string]any{"run_id": "r1", "total": 5}, exclude)
		b := GenerateWithExclusions(map[string]any{"run_id": "r1", "total": 6}, exclude)
		assert.NotEqual(t, a, b)
	})
}

func TestGenerateFromJSON(t *testing.T) {
	t.Run("matches map form", func(t *testing.T) {
		raw := json.RawMessage(`{"x": 1, "y": "two"}`)
		fromJSON, err := GenerateFromJSON(raw, nil)
		require.NoError(t, err)
		assert.Equal(t, Generate(map[string]any{"x": float64(1), "y": "two"}), fromJSON)
	})

	t.Run("rejects invalid json", func(t *testing.T) {
		_, err := GenerateFromJSON(json.RawMessage(`{`), nil)
		assert.Error(t, err)
	})
}
