package externalid

import (
	"fmt"
	"strings"
)

// Placeholders returns the field names referenced by an ID template, in
// order of first use. Templates use {field} substitution.
func Placeholders(template string) ([]string, error) {
	var fields []string
	seen := make(map[string]bool)

	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			if strings.IndexByte(rest, '}') >= 0 {
				return nil, fmt.Errorf("template %q has an unmatched '}'", template)
			}
			break
		}
		rest = rest[open+1:]
		close := strings.IndexByte(rest, '}')
		if close < 0 {
			return nil, fmt.Errorf("template %q has an unmatched '{'", template)
		}
		name := strings.TrimSpace(rest[:close])
		if name == "" {
			return nil, fmt.Errorf("template %q has an empty placeholder", template)
		}
		if !seen[name] {
			seen[name] = true
			fields = append(fields, name)
		}
		rest = rest[close+1:]
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("template %q references no fields", template)
	}
	return fields, nil
}

// render substitutes {field} placeholders with the row's normalized values
func render(template string, values map[string]string) string {
	var sb strings.Builder
	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			sb.WriteString(rest)
			break
		}
		sb.WriteString(rest[:open])
		rest = rest[open+1:]
		close := strings.IndexByte(rest, '}')
		name := strings.TrimSpace(rest[:close])
		sb.WriteString(values[name])
		rest = rest[close+1:]
	}
	return sb.String()
}
