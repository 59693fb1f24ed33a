package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/validator"
)

// Runner fills a form interactively. Each field is prompted in order; its
// answer goes through the field binding (input, then blur) so the form
// reports errors exactly as it would for any other frontend.
type Runner[T any] struct {
	form   *validator.Validator[T]
	fields []schema.Field
	cfg    config
}

// New constructs a Runner for form. Without WithPromptDriver it prompts on
// the terminal through survey.
func New[T any](form *validator.Validator[T], fields []schema.Field, opts ...Option) (*Runner[T], error) {
	if form == nil {
		return nil, errors.New("tui: form is required")
	}
	cfg := config{
		maxAttempts: DefaultMaxAttempts,
		logger:      slog.New(slog.DiscardHandler),
		theme:       Theme{ErrorPrefix: "! "},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.driver == nil {
		cfg.driver = NewSurveyDriver(nil)
	}
	return &Runner[T]{form: form, fields: fields, cfg: cfg}, nil
}

// Run prompts every field, then submits. Fields still failing after submit
// are prompted again until the form is accepted, a field runs out of
// attempts or the submit callback fails.
func (r *Runner[T]) Run(ctx context.Context) error {
	for _, field := range r.fields {
		if err := r.ask(ctx, field); err != nil {
			return err
		}
	}

	for round := 1; ; round++ {
		err := r.form.Submit(ctx)
		if err == nil {
			return r.info(ctx, r.cfg.theme.InfoPrefix+"Submitted.")
		}
		if !errors.Is(err, validator.ErrInvalid) || round >= r.cfg.maxAttempts {
			r.report(ctx)
			return err
		}

		errs := r.form.Errors()
		if msg := errs[schema.FormKey]; msg != "" {
			if ierr := r.info(ctx, r.cfg.theme.ErrorPrefix+msg); ierr != nil {
				return ierr
			}
		}
		retried := false
		for _, field := range r.fields {
			if errs[field.Path] == "" {
				continue
			}
			retried = true
			if err := r.ask(ctx, field); err != nil {
				return err
			}
		}
		if !retried {
			return err
		}
	}
}

func (r *Runner[T]) ask(ctx context.Context, field schema.Field) error {
	for attempt := 1; ; attempt++ {
		binding := r.form.Field(field.Path, nil)

		value, ok, err := r.prompt(ctx, field, binding)
		if err != nil {
			return err
		}
		if ok {
			binding.OnInput(value)
		}
		binding.OnBlur()

		msg := r.form.Error(field.Path)
		if msg == "" {
			return nil
		}
		r.cfg.logger.Debug("tui: field rejected", "form", r.form.Name(), "field", field.Path, "attempt", attempt)
		if err := r.info(ctx, r.cfg.theme.ErrorPrefix+field.Label()+": "+msg); err != nil {
			return err
		}
		if attempt >= r.cfg.maxAttempts {
			return fmt.Errorf("%w: %s", ErrTooManyAttempts, field.Path)
		}
	}
}

// prompt asks for one value. ok is false when the answer should leave the
// stored value untouched (blank numeric input).
func (r *Runner[T]) prompt(ctx context.Context, field schema.Field, binding validator.FieldBinding) (any, bool, error) {
	message := field.Label()
	if field.Required {
		message += " *"
	}

	switch {
	case field.Type == "boolean":
		current, _ := binding.Value.(bool)
		answer, err := r.cfg.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: current})
		return answer, err == nil, err
	case strings.EqualFold(field.Format, "password"):
		answer, err := r.cfg.driver.Password(ctx, InputConfig{Message: message})
		return answer, err == nil, err
	}

	current := ""
	if binding.Value != nil {
		current = fmt.Sprint(binding.Value)
	}
	answer, err := r.cfg.driver.Input(ctx, InputConfig{Message: message, Default: current})
	if err != nil {
		return nil, false, err
	}

	trimmed := strings.TrimSpace(answer)
	switch field.Type {
	case "integer":
		if trimmed == "" {
			return nil, false, nil
		}
		if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return n, true, nil
		}
		return trimmed, true, nil
	case "number":
		if trimmed == "" {
			return nil, false, nil
		}
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return f, true, nil
		}
		return trimmed, true, nil
	}
	return answer, true, nil
}

func (r *Runner[T]) report(ctx context.Context) {
	errs := r.form.Errors()
	for _, field := range r.fields {
		if msg := errs[field.Path]; msg != "" {
			_ = r.info(ctx, r.cfg.theme.ErrorPrefix+field.Label()+": "+msg)
		}
	}
	if msg := errs[schema.FormKey]; msg != "" {
		_ = r.info(ctx, r.cfg.theme.ErrorPrefix+msg)
	}
}

func (r *Runner[T]) info(ctx context.Context, msg string) error {
	return r.cfg.driver.Info(ctx, msg)
}
