package httpform

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-formstate/internal/paths"
	"github.com/goliatone/go-formstate/pkg/schema"
)

// DefaultMaxMemory bounds the in-memory part of multipart bodies.
const DefaultMaxMemory = 10 << 20

var (
	// ErrUnsupportedMediaType is returned for bodies that are not form encoded.
	ErrUnsupportedMediaType = errors.New("httpform: unsupported media type")
	// ErrParseForm wraps failures reading the request body.
	ErrParseForm = errors.New("httpform: parse form")
)

// ParseRequest reads a urlencoded or multipart body into raw form values.
func ParseRequest(r *http.Request) (url.Values, error) {
	contentType := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMediaType, contentType)
	}

	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParseForm, err)
		}
		return r.PostForm, nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(DefaultMaxMemory); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParseForm, err)
		}
		if r.MultipartForm == nil {
			return url.Values{}, nil
		}
		return url.Values(r.MultipartForm.Value), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, mediaType)
}

// Decode maps raw form values onto the schema fields. Input names use either
// dotted ("owner.email") or bracket ("owner[email]") notation; names that do
// not resolve to a field are dropped. Values are coerced by field type and
// unparseable input is kept as a string so the schema reports it; blank
// numeric input is treated as absent. Boolean
// fields missing from the body decode to false, matching unchecked boxes.
func Decode(values url.Values, fields []schema.Field) map[string]any {
	byPath := make(map[string]schema.Field, len(fields))
	for _, field := range fields {
		byPath[field.Path] = field
	}

	out := make(map[string]any, len(fields))
	for name, raw := range values {
		path := paths.Normalize(name)
		field, ok := byPath[path]
		if !ok || len(raw) == 0 {
			continue
		}
		if value, ok := coerce(field, raw); ok {
			out[path] = value
		}
	}
	for _, field := range fields {
		if _, seen := out[field.Path]; !seen && field.Type == "boolean" {
			out[field.Path] = false
		}
	}
	return out
}

func coerce(field schema.Field, raw []string) (any, bool) {
	if field.Type == "array" {
		items := make([]any, 0, len(raw))
		for _, item := range raw {
			items = append(items, item)
		}
		return items, true
	}

	last := raw[len(raw)-1]
	value := strings.TrimSpace(last)
	switch field.Type {
	case "integer":
		if value == "" {
			return nil, false
		}
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n, true
		}
	case "number":
		if value == "" {
			return nil, false
		}
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f, true
		}
	case "boolean":
		switch strings.ToLower(value) {
		case "on", "true", "1", "yes":
			return true, true
		case "", "off", "false", "0", "no":
			return false, true
		}
	default:
		return last, true
	}
	return value, true
}
