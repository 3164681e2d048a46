package models

import "time"

// RunState is the orchestrator state. Transitions only move forward:
// Loading -> Processing -> Finalizing -> Done, or -> Aborted on a fatal
// configuration or output error.
type RunState string

const (
	RunStateLoading    RunState = "loading"
	RunStateProcessing RunState = "processing"
	RunStateFinalizing RunState = "finalizing"
	RunStateDone       RunState = "done"
	RunStateAborted    RunState = "aborted"
)

// ExternalIDRecord is one assigned identifier: created exactly once per valid
// row, never mutated or deleted within a run
type ExternalIDRecord struct {
	Entity string   `json:"entity"`
	ID     string   `json:"id"`
	Key    KeyTuple `json:"key"`
}

// Artifact describes one produced output file
type Artifact struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
	Rows   int    `json:"rows"`
}

// EntityResult is the per-entity summary in the manifest
type EntityResult struct {
	Entity     string    `json:"entity"`
	ValidCount int       `json:"valid_count"`
	ErrorCount int       `json:"error_count"`
	Artifact   *Artifact `json:"artifact,omitempty"`
}

// ExportManifest is the run summary: per-entity counts, artifact locations
// and the full ordered exception list. Built as an accumulator during the run
// and frozen when the run reaches a terminal state.
type ExportManifest struct {
	RunID       string                `json:"run_id"`
	State       RunState              `json:"state"`
	StartedAt   time.Time             `json:"started_at"`
	CompletedAt time.Time             `json:"completed_at,omitzero"`
	Entities    []EntityResult        `json:"entities"`
	Exceptions  []ValidationException `json:"exceptions"`
	// ContentHash covers the deterministic portion of the manifest (entity
	// results and exceptions, not run metadata). Identical input produces an
	// identical content hash.
	ContentHash string `json:"content_hash,omitempty"`
}

// TotalValid returns the number of valid rows across all entities
func (m *ExportManifest) TotalValid() int {
	total := 0
	for _, e := range m.Entities {
		total += e.ValidCount
	}
	return total
}

// TotalExceptions returns the number of rejected rows across all entities
func (m *ExportManifest) TotalExceptions() int {
	return len(m.Exceptions)
}
