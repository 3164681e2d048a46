package normalizers

import (
	"fmt"
	"strings"

	"github.com/Ramsey-B/fern/pkg/models"
)

// EnumResolver maps raw literals through a synonym table to a fixed set of
// canonical codes. Resolution is idempotent: canonical codes always resolve
// to themselves.
type EnumResolver struct {
	synonyms map[string]string
	fallback *string
}

// NewEnumResolver builds a resolver from a registry synonym table
func NewEnumResolver(table models.EnumTable) *EnumResolver {
	synonyms := make(map[string]string)
	for code, spellings := range table.Values {
		synonyms[normalizeLiteral(code)] = code
		for _, s := range spellings {
			synonyms[normalizeLiteral(s)] = code
		}
	}
	return &EnumResolver{synonyms: synonyms, fallback: table.Default}
}

// Resolve maps a raw literal to its canonical code. Unmapped literals fail
// unless the table declares a default.
func (r *EnumResolver) Resolve(raw string) (string, error) {
	if code, ok := r.synonyms[normalizeLiteral(raw)]; ok {
		return code, nil
	}
	if r.fallback != nil {
		return *r.fallback, nil
	}
	return "", fmt.Errorf("%q is not a recognized value", raw)
}

func normalizeLiteral(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
