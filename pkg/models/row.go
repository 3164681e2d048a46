package models

import "strings"

// Row is one input record for an entity type: raw string values keyed by
// field name, plus an opaque source pointer used only for exception reporting
type Row struct {
	Source string            `json:"source"`
	Values map[string]string `json:"values"`
}

// Value returns the raw value for a field, trimmed of surrounding whitespace
func (r Row) Value(field string) string {
	return strings.TrimSpace(r.Values[field])
}

// KeyTuple is a row's unique-key value tuple, in unique-key field order
type KeyTuple []string

// keyTupleSep is a separator that cannot appear in normalized field values
const keyTupleSep = "\x1f"

// String returns a canonical encoding of the tuple, usable as a map key
func (k KeyTuple) String() string {
	return strings.Join(k, keyTupleSep)
}

// Display returns a human-readable rendering for logs and exception details
func (k KeyTuple) Display() string {
	return strings.Join(k, "|")
}

// ValidRow is a row that passed validation: its normalized (and derived)
// values, its unique-key tuple and, once assigned, its external ID
type ValidRow struct {
	Row        Row               `json:"row"`
	Values     map[string]string `json:"values"`
	Key        KeyTuple          `json:"key"`
	ExternalID string            `json:"external_id,omitempty"`
}
