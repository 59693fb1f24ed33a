package render

import (
	"strings"

	"github.com/goliatone/go-formstate/internal/paths"
	"github.com/goliatone/go-formstate/pkg/schema"
)

// FieldSubset narrows the fields drawn for a form. Include keeps fields at or
// below any listed path; Exclude drops them afterwards. An empty subset keeps
// every field.
type FieldSubset struct {
	Include []string
	Exclude []string
}

// Empty reports whether the subset filters nothing.
func (s FieldSubset) Empty() bool {
	return len(normaliseTokens(s.Include)) == 0 && len(normaliseTokens(s.Exclude)) == 0
}

// ApplySubset returns the fields matching subset, preserving order.
func ApplySubset(fields []schema.Field, subset FieldSubset) []schema.Field {
	if subset.Empty() {
		return fields
	}
	include := normaliseTokens(subset.Include)
	exclude := normaliseTokens(subset.Exclude)

	out := make([]schema.Field, 0, len(fields))
	for _, field := range fields {
		if len(include) > 0 && !withinAny(field.Path, include) {
			continue
		}
		if withinAny(field.Path, exclude) {
			continue
		}
		out = append(out, field)
	}
	return out
}

func withinAny(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if paths.IsWithin(path, prefix) {
			return true
		}
	}
	return false
}

func normaliseTokens(values []string) []string {
	var out []string
	for _, value := range values {
		if token := paths.Normalize(strings.TrimSpace(value)); token != "" {
			out = append(out, token)
		}
	}
	return out
}
