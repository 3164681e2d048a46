package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func TestNormalizePhone(t *testing.T) {
	t.Run("strips separators", func(t *testing.T) {
		got, err := NormalizePhone("+1 (555) 123-4567")
		require.NoError(t, err)
		assert.Equal(t, "+15551234567", got)
	})

	t.Run("converts 00 dialing prefix", func(t *testing.T) {
		got, err := NormalizePhone("0044 20 7946 0958")
		require.NoError(t, err)
		assert.Equal(t, "+442079460958", got)
	})

	t.Run("rejects letters", func(t *testing.T) {
		_, err := NormalizePhone("555-CALL-NOW")
		assert.Error(t, err)
	})

	t.Run("rejects too few digits", func(t *testing.T) {
		_, err := NormalizePhone("12345")
		assert.Error(t, err)
	})

	t.Run("rejects too many digits", func(t *testing.T) {
		_, err := NormalizePhone("1234567890123456")
		assert.Error(t, err)
	})

	t.Run("idempotent on canonical form", func(t *testing.T) {
		first, err := NormalizePhone("(555) 123.4567")
		require.NoError(t, err)
		second, err := NormalizePhone(first)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestNormalizeEmail(t *testing.T) {
	t.Run("lowercases and trims", func(t *testing.T) {
		got, err := NormalizeEmail("  John.Smith@Example.COM ")
		require.NoError(t, err)
		assert.Equal(t, "john.smith@example.com", got)
	})

	t.Run("rejects missing at sign", func(t *testing.T) {
		_, err := NormalizeEmail("john.smith.example.com")
		assert.Error(t, err)
	})

	t.Run("rejects multiple at signs", func(t *testing.T) {
		_, err := NormalizeEmail("john@smith@example.com")
		assert.Error(t, err)
	})

	t.Run("rejects empty local part", func(t *testing.T) {
		_, err := NormalizeEmail("@example.com")
		assert.Error(t, err)
	})

	t.Run("rejects domain without dot", func(t *testing.T) {
		_, err := NormalizeEmail("john@localhost")
		assert.Error(t, err)
	})

	t.Run("idempotent on canonical form", func(t *testing.T) {
		first, err := NormalizeEmail("John@Example.com")
		require.NoError(t, err)
		second, err := NormalizeEmail(first)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestNormalizeInteger(t *testing.T) {
	t.Run("strips leading zeros", func(t *testing.T) {
		got, err := NormalizeInteger("0042")
		require.NoError(t, err)
		assert.Equal(t, "42", got)
	})

	t.Run("handles negatives", func(t *testing.T) {
		got, err := NormalizeInteger("-7")
		require.NoError(t, err)
		assert.Equal(t, "-7", got)
	})

	t.Run("rejects non-numeric", func(t *testing.T) {
		_, err := NormalizeInteger("seven")
		assert.Error(t, err)
	})

	t.Run("rejects fractions", func(t *testing.T) {
		_, err := NormalizeInteger("3.5")
		assert.Error(t, err)
	})
}

func TestDateNormalizer(t *testing.T) {
	normalize := NewDateNormalizer([]string{"01/02/2006", "Jan 2, 2006"})

	t.Run("parses slash layout", func(t *testing.T) {
		got, err := normalize("03/14/2024")
		require.NoError(t, err)
		assert.Equal(t, "2024-03-14", got)
	})

	t.Run("parses month name layout", func(t *testing.T) {
		got, err := normalize("Mar 14, 2024")
		require.NoError(t, err)
		assert.Equal(t, "2024-03-14", got)
	})

	t.Run("accepts canonical form even when not configured", func(t *testing.T) {
		got, err := normalize("2024-03-14")
		require.NoError(t, err)
		assert.Equal(t, "2024-03-14", got)
	})

	t.Run("rejects unrecognized layout", func(t *testing.T) {
		_, err := normalize("14.03.2024")
		assert.Error(t, err)
	})

	t.Run("idempotent", func(t *testing.T) {
		first, err := normalize("03/14/2024")
		require.NoError(t, err)
		second, err := normalize(first)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestBooleanNormalizer(t *testing.T) {
	normalize := NewBooleanNormalizer([]string{"yes", "y", "1"}, []string{"no", "n", "0"})

	t.Run("maps truthy spellings", func(t *testing.T) {
		for _, raw := range []string{"yes", "Y", "1", "TRUE"} {
			got, err := normalize(raw)
			require.NoError(t, err, raw)
			assert.Equal(t, BoolTrue, got, raw)
		}
	})

	t.Run("maps falsy spellings", func(t *testing.T) {
		for _, raw := range []string{"no", "N", "0", "False"} {
			got, err := normalize(raw)
			require.NoError(t, err, raw)
			assert.Equal(t, BoolFalse, got, raw)
		}
	})

	t.Run("rejects unmapped spellings", func(t *testing.T) {
		_, err := normalize("maybe")
		assert.Error(t, err)
	})
}

func TestSet(t *testing.T) {
	t.Run("seeds built-in normalizers", func(t *testing.T) {
		s := NewSet()
		for _, name := range []string{"trim", "lowercase", "uppercase", "phone", "email", "integer"} {
			assert.True(t, s.Has(name), name)
		}
	})

	t.Run("apply unknown normalizer fails", func(t *testing.T) {
		s := NewSet()
		_, err := s.Apply("x", "does-not-exist")
		assert.Error(t, err)
	})

	t.Run("registered normalizer is applied", func(t *testing.T) {
		s := NewSet()
		s.Register("shout", func(v string) (string, error) { return v + "!", nil })
		got, err := s.Apply("hi", "shout")
		require.NoError(t, err)
		assert.Equal(t, "hi!", got)
	})
}

func TestEnumResolver(t *testing.T) {
	table := models.EnumTable{
		Values: map[string][]string{
			"active":   {"enabled", "on"},
			"inactive": {"disabled", "off"},
		},
	}
	resolver := NewEnumResolver(table)

	t.Run("maps synonyms to canonical code", func(t *testing.T) {
		got, err := resolver.Resolve("Enabled")
		require.NoError(t, err)
		assert.Equal(t, "active", got)
	})

	t.Run("canonical codes resolve to themselves", func(t *testing.T) {
		got, err := resolver.Resolve("active")
		require.NoError(t, err)
		assert.Equal(t, "active", got)
	})

	t.Run("unmapped literal fails without default", func(t *testing.T) {
		_, err := resolver.Resolve("paused")
		assert.Error(t, err)
	})

	t.Run("unmapped literal uses declared default", func(t *testing.T) {
		fallback := "inactive"
		withDefault := NewEnumResolver(models.EnumTable{
			Values:  table.Values,
			Default: &fallback,
		})
		got, err := withDefault.Resolve("paused")
		require.NoError(t, err)
		assert.Equal(t, "inactive", got)
	})
}
