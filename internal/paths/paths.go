package paths

import (
	"strings"
)

// Delimiter separates segments in a dotted path.
const Delimiter = "."

// Join appends child segments to parent, skipping empty parents so top-level
// keys do not gain a leading delimiter.
func Join(parent string, children ...string) string {
	out := parent
	for _, child := range children {
		if out == "" {
			out = child
			continue
		}
		out = out + Delimiter + child
	}
	return out
}

// JoinSegments joins a full segment list with the delimiter.
func JoinSegments(segments []string) string {
	return strings.Join(segments, Delimiter)
}

// Split breaks a dotted path into its segments. An empty path has no segments.
func Split(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, Delimiter)
}

// IsWithin reports whether path equals prefix or lives below it.
func IsWithin(path, prefix string) bool {
	if path == prefix {
		return true
	}
	if prefix == "" {
		return false
	}
	return strings.HasPrefix(path, prefix+Delimiter)
}

// Related reports whether one of the paths contains the other.
func Related(a, b string) bool {
	return IsWithin(a, b) || IsWithin(b, a)
}

// FromPointer converts a JSON pointer ("/owner/email", "#/tags/0") into path
// segments, decoding the ~1 and ~0 escapes.
func FromPointer(pointer string) []string {
	trimmed := strings.TrimSpace(pointer)
	trimmed = strings.TrimPrefix(trimmed, "#")
	trimmed = strings.TrimPrefix(trimmed, "/")
	if trimmed == "" {
		return nil
	}
	parts := strings.Split(trimmed, "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		out = append(out, part)
	}
	return out
}

// Normalize turns the naming conventions HTML forms use for nested inputs
// ("owner[email]", "tags[0]", "owner.email") into a dotted path. Surrounding
// whitespace and stray delimiters are dropped.
func Normalize(name string) string {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return ""
	}
	replacer := strings.NewReplacer("[", Delimiter, "]", "")
	clean = replacer.Replace(clean)

	parts := strings.Split(clean, Delimiter)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if segment := strings.TrimSpace(part); segment != "" {
			out = append(out, segment)
		}
	}
	return JoinSegments(out)
}
