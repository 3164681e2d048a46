// Package normalizers provides the field normalization functions applied
// during row validation. Every normalizer is pure and idempotent:
// normalize(normalize(x)) == normalize(x), which lets the validator apply
// normalization speculatively without tracking whether a value is already
// clean.
package normalizers

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Normalizer converts a raw value to its canonical form, or fails when the
// input cannot be parsed
type Normalizer func(string) (string, error)

// Set holds the named normalizers available to a single registry. Sets are
// built per run so two runs never share configured state.
type Set struct {
	byName map[string]Normalizer
}

// NewSet creates a set seeded with the built-in normalizers
func NewSet() *Set {
	s := &Set{byName: make(map[string]Normalizer)}
	s.Register("trim", Trim)
	s.Register("lowercase", Lowercase)
	s.Register("uppercase", Uppercase)
	s.Register("phone", NormalizePhone)
	s.Register("email", NormalizeEmail)
	s.Register("integer", NormalizeInteger)
	return s
}

// Register adds a normalizer to the set
func (s *Set) Register(name string, fn Normalizer) {
	s.byName[name] = fn
}

// Get retrieves a normalizer by name
func (s *Set) Get(name string) (Normalizer, bool) {
	fn, ok := s.byName[name]
	return fn, ok
}

// Has reports whether a normalizer with the given name is registered
func (s *Set) Has(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// Apply applies a named normalizer to a value
func (s *Set) Apply(value, name string) (string, error) {
	fn, ok := s.byName[name]
	if !ok {
		return "", fmt.Errorf("unknown normalizer %q", name)
	}
	return fn(value)
}

// Built-in normalizers

// Trim removes leading and trailing whitespace
func Trim(v string) (string, error) {
	return strings.TrimSpace(v), nil
}

// Lowercase converts to lowercase
func Lowercase(v string) (string, error) {
	return strings.ToLower(v), nil
}

// Uppercase converts to uppercase
func Uppercase(v string) (string, error) {
	return strings.ToUpper(v), nil
}

// NormalizePhone coerces a phone number to a single international-dialing
// canonical form: "+" followed by 7 to 15 digits. Separators and a leading
// "00" dialing prefix are accepted; anything else fails.
func NormalizePhone(v string) (string, error) {
	trimmed := strings.TrimSpace(v)
	hasPlus := strings.HasPrefix(trimmed, "+")

	var digits strings.Builder
	for _, r := range trimmed {
		switch {
		case unicode.IsDigit(r):
			digits.WriteRune(r)
		case r == '+' || r == '-' || r == '.' || r == '(' || r == ')' || unicode.IsSpace(r):
			// separator, skip
		default:
			return "", fmt.Errorf("phone %q contains invalid character %q", v, r)
		}
	}

	num := digits.String()
	if !hasPlus && strings.HasPrefix(num, "00") {
		num = num[2:]
	}
	if len(num) < 7 || len(num) > 15 {
		return "", fmt.Errorf("phone %q has %d digits, expected 7 to 15", v, len(num))
	}
	return "+" + num, nil
}

// NormalizeEmail lowercases and trims an email address, rejecting values
// without exactly one "@", with an empty local part, or whose domain lacks a
// label separator. No top-level-domain check beyond structure.
func NormalizeEmail(v string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(v))

	at := strings.Count(email, "@")
	if at != 1 {
		return "", fmt.Errorf("email %q must contain exactly one @", v)
	}
	local, domain, _ := strings.Cut(email, "@")
	if local == "" {
		return "", fmt.Errorf("email %q has an empty local part", v)
	}
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return "", fmt.Errorf("email %q has an invalid domain %q", v, domain)
	}
	return email, nil
}

// NormalizeInteger canonicalizes an integer literal to base-10 with no
// leading zeros or plus sign
func NormalizeInteger(v string) (string, error) {
	trimmed := strings.TrimSpace(v)
	n, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return "", fmt.Errorf("%q is not an integer", v)
	}
	return strconv.FormatInt(n, 10), nil
}

// DateLayout is the canonical calendar representation emitted by date
// normalizers
const DateLayout = "2006-01-02"

// NewDateNormalizer builds a normalizer that parses any of the accepted
// layouts into the canonical calendar form. The canonical layout is always
// accepted, which keeps the normalizer idempotent.
func NewDateNormalizer(layouts []string) Normalizer {
	accepted := make([]string, 0, len(layouts)+1)
	accepted = append(accepted, DateLayout)
	for _, l := range layouts {
		if l != DateLayout {
			accepted = append(accepted, l)
		}
	}

	return func(v string) (string, error) {
		trimmed := strings.TrimSpace(v)
		for _, layout := range accepted {
			if t, err := time.Parse(layout, trimmed); err == nil {
				return t.Format(DateLayout), nil
			}
		}
		return "", fmt.Errorf("date %q does not match any accepted layout", v)
	}
}

// Canonical boolean spellings
const (
	BoolTrue  = "true"
	BoolFalse = "false"
)

// NewBooleanNormalizer builds a normalizer mapping the configured truthy and
// falsy spellings (case-insensitive) to the two canonical values. The
// canonical spellings themselves are always accepted.
func NewBooleanNormalizer(truthy, falsy []string) Normalizer {
	mapped := make(map[string]string, len(truthy)+len(falsy)+2)
	mapped[BoolTrue] = BoolTrue
	mapped[BoolFalse] = BoolFalse
	for _, t := range truthy {
		mapped[strings.ToLower(strings.TrimSpace(t))] = BoolTrue
	}
	for _, f := range falsy {
		mapped[strings.ToLower(strings.TrimSpace(f))] = BoolFalse
	}

	return func(v string) (string, error) {
		canonical, ok := mapped[strings.ToLower(strings.TrimSpace(v))]
		if !ok {
			return "", fmt.Errorf("%q is not a recognized boolean spelling", v)
		}
		return canonical, nil
	}
}
