package schema

import (
	"context"
	"strings"

	"github.com/goliatone/go-formstate/internal/paths"
)

// FormKey is the error-map key used for issues that are not attached to a
// field.
const FormKey = ""

// Issue is a single validation failure reported by a schema.
type Issue struct {
	Path    []string `json:"path,omitempty"`
	Message string   `json:"message"`
}

// Key returns the dotted path of the issue.
func (i Issue) Key() string {
	return paths.JoinSegments(i.Path)
}

// Result is the outcome of a safe parse: either a parsed value or an ordered
// list of issues.
type Result struct {
	Value  any     `json:"value,omitempty"`
	Issues []Issue `json:"issues,omitempty"`
}

// OK reports whether the parse produced no issues.
func (r Result) OK() bool {
	return len(r.Issues) == 0
}

// SafeParser validates a nested record. Implementations never return an error;
// failures are reported as issues.
type SafeParser interface {
	SafeParse(ctx context.Context, value map[string]any) Result
}

// ParserFunc adapts a function to SafeParser.
type ParserFunc func(ctx context.Context, value map[string]any) Result

// SafeParse implements SafeParser.
func (fn ParserFunc) SafeParse(ctx context.Context, value map[string]any) Result {
	if fn == nil {
		return Result{Value: value}
	}
	return fn(ctx, value)
}

// Field describes a leaf input a schema expects.
type Field struct {
	Path     string `json:"path"`
	Title    string `json:"title,omitempty"`
	Type     string `json:"type,omitempty"`
	Format   string `json:"format,omitempty"`
	Required bool   `json:"required,omitempty"`
}

// Label returns the title when set, otherwise the last path segment.
func (f Field) Label() string {
	if title := strings.TrimSpace(f.Title); title != "" {
		return title
	}
	segments := paths.Split(f.Path)
	if len(segments) == 0 {
		return f.Path
	}
	return segments[len(segments)-1]
}

// Describer is implemented by parsers that can enumerate their fields.
type Describer interface {
	Fields() []Field
}

// ErrorMap translates issues into a flattened error mapping keyed by dotted
// path. Issues without a path land under FormKey. When several issues share a
// path the first one is kept. Blank messages are ignored.
func ErrorMap(issues []Issue) map[string]string {
	out := make(map[string]string, len(issues))
	for _, issue := range issues {
		message := strings.TrimSpace(issue.Message)
		if message == "" {
			continue
		}
		key := issue.Key()
		if _, exists := out[key]; exists {
			continue
		}
		out[key] = message
	}
	return out
}

// Paths returns the distinct dotted paths referenced by issues, in order.
func Paths(issues []Issue) []string {
	if len(issues) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(issues))
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		key := issue.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}
