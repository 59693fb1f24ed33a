package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun_RenderWritesForm(t *testing.T) {
	out := filepath.Join(t.TempDir(), "form.html")
	logger := slog.New(slog.DiscardHandler)

	if err := run(context.Background(), logger, filepath.Join("testdata", "form.yaml"), "render", "", out); err != nil {
		t.Fatalf("run: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	html := string(data)
	for _, fragment := range []string{
		`<h2>Contact us</h2>`,
		`<label for="field-message">Message *</label>`,
		`type="checkbox"`,
	} {
		if !strings.Contains(html, fragment) {
			t.Errorf("output missing %q\n%s", fragment, html)
		}
	}
}

func TestRun_UnknownMode(t *testing.T) {
	err := run(context.Background(), slog.New(slog.DiscardHandler), filepath.Join("testdata", "form.yaml"), "bogus", "", "")
	if err == nil || !strings.Contains(err.Error(), "unknown mode") {
		t.Fatalf("expected unknown mode error, got %v", err)
	}
}
