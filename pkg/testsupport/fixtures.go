package testsupport

import (
	"bytes"
	"context"
	"embed"
	"io"
	"path"
	"testing"

	"github.com/goliatone/go-formstate/pkg/schema/openapi"
)

//go:embed testdata/*.yaml
var fixtures embed.FS

// Fixture returns the bytes of a bundled fixture ("signup.yaml").
func Fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := fixtures.ReadFile(path.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return data
}

// MustLoadParser builds an OpenAPI-backed parser from a bundled YAML schema.
// signup.yaml describes email, password, newsletter and a nested profile.
func MustLoadParser(t *testing.T, name string) *openapi.Parser {
	t.Helper()
	parser, err := openapi.FromYAML(Fixture(t, name))
	if err != nil {
		t.Fatalf("load schema %s: %v", name, err)
	}
	return parser
}

// MustLoadOperation builds a parser from the request body of operationID in
// a bundled OpenAPI document.
func MustLoadOperation(t *testing.T, name, operationID string) *openapi.Parser {
	t.Helper()
	parser, err := openapi.FromOperation(Context(), Fixture(t, name), operationID)
	if err != nil {
		t.Fatalf("load operation %s from %s: %v", operationID, name, err)
	}
	return parser
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CaptureRender runs render against a buffer and returns what it wrote.
func CaptureRender(t *testing.T, render func(io.Writer) error) string {
	t.Helper()

	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}
