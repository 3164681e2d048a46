// Package fingerprint produces deterministic SHA-256 digests for export
// artifacts and manifests. Equal content always yields an equal digest, so
// two runs can be compared byte-for-byte by comparing hashes.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
)

// Bytes hashes raw artifact content
func Bytes(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Generate creates a deterministic fingerprint for structured data.
// The fingerprint is a SHA256 hash of the canonicalized JSON.
func Generate(data map[string]any) string {
	return GenerateWithExclusions(data, nil)
}

// GenerateWithExclusions creates a fingerprint excluding specified fields.
// The excludeFields set contains dot-notation paths to exclude (e.g.,
// "run_id", "started_at"). Top-level fields are matched directly; nested
// paths are matched hierarchically. Run-scoped metadata is excluded this
// way so the content hash only covers the deterministic core.
func GenerateWithExclusions(data map[string]any, excludeFields map[string]bool) string {
	canonical := canonicalize(data, excludeFields, "")
	hash := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(hash[:])
}

// GenerateFromJSON creates a fingerprint from raw JSON
func GenerateFromJSON(data json.RawMessage, excludeFields map[string]bool) (string, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return "", err
	}
	return GenerateWithExclusions(m, excludeFields), nil
}

// canonicalize creates a deterministic string representation by sorting map
// keys and recursively processing nested structures. currentPath tracks the
// dot-notation path for exclusion matching.
func canonicalize(data any, excludeFields map[string]bool, currentPath string) string {
	switch v := data.(type) {
	case map[string]any:
		return canonicalizeMap(v, excludeFields, currentPath)
	case []any:
		return canonicalizeArray(v, excludeFields, currentPath)
	default:
		// Primitives use JSON encoding
		b, _ := json.Marshal(v)
		return string(b)
	}
}

func canonicalizeMap(m map[string]any, excludeFields map[string]bool, currentPath string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("{")
	first := true
	for _, k := range keys {
		fieldPath := k
		if currentPath != "" {
			fieldPath = currentPath + "." + k
		}
		if excludeFields[fieldPath] {
			continue
		}
		if !first {
			sb.WriteString(",")
		}
		first = false
		kb, _ := json.Marshal(k)
		sb.Write(kb)
		sb.WriteString(":")
		sb.WriteString(canonicalize(m[k], excludeFields, fieldPath))
	}
	sb.WriteString("}")
	return sb.String()
}

func canonicalizeArray(a []any, excludeFields map[string]bool, currentPath string) string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, item := range a {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(canonicalize(item, excludeFields, currentPath))
	}
	sb.WriteString("]")
	return sb.String()
}
