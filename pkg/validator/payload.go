package validator

import (
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formstate/internal/paths"
	"github.com/goliatone/go-formstate/pkg/schema"
)

// ErrorMapping splits a server error payload into field messages keyed by
// dotted path and form-level messages.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// Apply reports the mapping through ctx as manual errors. Each field gets its
// first message; form-level messages are joined under schema.FormKey.
func (m ErrorMapping) Apply(ctx SubmitContext) {
	if ctx == nil {
		return
	}
	for path, messages := range m.Fields {
		if len(messages) > 0 {
			ctx.SetError(path, messages[0])
		}
	}
	if len(m.Form) > 0 {
		ctx.SetError(schema.FormKey, strings.Join(m.Form, " "))
	}
}

// MapErrorPayload resolves the keys of a backend error payload (JSON
// pointers, "$.body.owner.email", "owner[email]") against the known field
// paths. Keys that match no field, including the usual non-field keys, land
// in Form so no message is lost.
func MapErrorPayload(fields []schema.Field, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}
	if len(payload) == 0 {
		mapping.Fields = nil
		return mapping
	}

	known := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		path := strings.TrimSpace(field.Path)
		if path == "" {
			continue
		}
		segments := paths.Split(path)
		for end := 1; end <= len(segments); end++ {
			known[paths.JoinSegments(segments[:end])] = struct{}{}
		}
	}

	keys := make([]string, 0, len(payload))
	for raw := range payload {
		keys = append(keys, raw)
	}
	sort.Strings(keys)

	for _, raw := range keys {
		normalized := normalizeMessages(payload[raw])
		if len(normalized) == 0 {
			continue
		}
		path, ok := resolvePayloadPath(raw, known)
		if !ok {
			mapping.Form = append(mapping.Form, normalized...)
			continue
		}
		mapping.Fields[path] = append(mapping.Fields[path], normalized...)
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

func resolvePayloadPath(raw string, known map[string]struct{}) (string, bool) {
	if isFormLevelKey(raw) {
		return "", false
	}
	segments := payloadSegments(raw)
	if len(segments) == 0 {
		return "", false
	}

	best := ""
	for _, variant := range [][]string{
		segments,
		dropWrappers(segments),
		dropIndexes(segments),
		dropIndexes(dropWrappers(segments)),
	} {
		for end := len(variant); end > 0; end-- {
			candidate := paths.JoinSegments(variant[:end])
			if _, ok := known[candidate]; ok {
				if len(paths.Split(candidate)) > len(paths.Split(best)) {
					best = candidate
				}
				break
			}
		}
	}
	return best, best != ""
}

func payloadSegments(raw string) []string {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimLeft(clean, "#$./")
	if clean == "" {
		return nil
	}
	if strings.Contains(clean, "/") {
		return paths.FromPointer(clean)
	}
	return paths.Split(paths.Normalize(clean))
}

var payloadWrappers = map[string]struct{}{
	"body":       {},
	"request":    {},
	"payload":    {},
	"data":       {},
	"attributes": {},
}

func dropWrappers(segments []string) []string {
	out := segments
	for len(out) > 0 {
		if _, ok := payloadWrappers[strings.ToLower(out[0])]; !ok {
			break
		}
		out = out[1:]
	}
	return out
}

func dropIndexes(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		out = append(out, segment)
	}
	return out
}

func normalizeMessages(messages []string) []string {
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "__all__", "non_field_errors", "non-field-errors":
		return true
	}
	return false
}
