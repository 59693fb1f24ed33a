package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/testsupport"
	"github.com/goliatone/go-formstate/pkg/validator"
)

type stubDriver struct {
	inputs       []string
	confirm      []bool
	passwords    []string
	inputErr     error
	infoMessages []string
	prompts      []string
	inputPos     int
	confirmPos   int
	passPos      int
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	s.prompts = append(s.prompts, cfg.Message)
	if s.inputErr != nil {
		return "", s.inputErr
	}
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Password(_ context.Context, cfg InputConfig) (string, error) {
	s.prompts = append(s.prompts, cfg.Message)
	if s.passPos >= len(s.passwords) {
		return "", errors.New("no password scripted")
	}
	val := s.passwords[s.passPos]
	s.passPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	s.prompts = append(s.prompts, cfg.Message)
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func newRunner(t *testing.T, driver *stubDriver, onSubmit validator.SubmitFunc[map[string]any], opts ...Option) *Runner[map[string]any] {
	t.Helper()
	parser := testsupport.MustLoadParser(t, "signup.yaml")
	form, err := validator.New(validator.Config[map[string]any]{
		Schema:   parser,
		OnSubmit: onSubmit,
	}, validator.WithName("signup"))
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}
	r, err := New(form, parser.Fields(), append([]Option{WithPromptDriver(driver)}, opts...)...)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	return r
}

func TestRun_SubmitsCollectedValues(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"ada@example.com", "36", "Ada"},
		confirm:   []bool{true},
		passwords: []string{"correct horse"},
	}
	var got map[string]any
	r := newRunner(t, driver, func(_ context.Context, data map[string]any, _ validator.SubmitContext) error {
		got = data
		return nil
	})

	if err := r.Run(testsupport.Context()); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := map[string]any{
		"email":      "ada@example.com",
		"newsletter": true,
		"password":   "correct horse",
		"profile":    map[string]any{"age": int64(36), "name": "Ada"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("submission mismatch (-want +got):\n%s", diff)
	}
	wantPrompts := []string{"Email *", "newsletter", "password *", "age", "Full name *"}
	if diff := cmp.Diff(wantPrompts, driver.prompts); diff != "" {
		t.Fatalf("prompts mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Submitted."}, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_RepromptsInvalidFields(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"nope", "ada@example.com", "", "Ada"},
		confirm:   []bool{false},
		passwords: []string{"short", "correct horse"},
	}
	r := newRunner(t, driver, nil)

	if err := r.Run(testsupport.Context()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(driver.infoMessages) != 3 {
		t.Fatalf("expected two field errors and a confirmation, got %q", driver.infoMessages)
	}
	if !strings.HasPrefix(driver.infoMessages[0], "! Email: ") {
		t.Fatalf("unexpected first message %q", driver.infoMessages[0])
	}
	if !strings.HasPrefix(driver.infoMessages[1], "! password: ") {
		t.Fatalf("unexpected second message %q", driver.infoMessages[1])
	}
	if driver.inputPos != 4 || driver.passPos != 2 {
		t.Fatalf("expected every scripted answer consumed, inputs=%d passwords=%d", driver.inputPos, driver.passPos)
	}
}

func TestRun_StopsAfterMaxAttempts(t *testing.T) {
	driver := &stubDriver{inputs: []string{"a", "b"}}
	r := newRunner(t, driver, nil, WithMaxAttempts(2))

	err := r.Run(testsupport.Context())
	if !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
}

func TestRun_Aborted(t *testing.T) {
	driver := &stubDriver{inputErr: ErrAborted}
	r := newRunner(t, driver, nil)

	if err := r.Run(testsupport.Context()); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestRun_CallbackErrorIsReported(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"ada@example.com", "", "Ada"},
		confirm:   []bool{false},
		passwords: []string{"correct horse"},
	}
	r := newRunner(t, driver, func(_ context.Context, _ map[string]any, form validator.SubmitContext) error {
		form.SetError("email", "already registered")
		return errors.New("conflict")
	})

	err := r.Run(testsupport.Context())
	if err == nil || errors.Is(err, validator.ErrInvalid) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if diff := cmp.Diff([]string{"! Email: already registered"}, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
}

func TestTranslateSurveyErr(t *testing.T) {
	other := errors.New("boom")
	if got := translateSurveyErr(other); got != other {
		t.Fatalf("expected passthrough, got %v", got)
	}
}
