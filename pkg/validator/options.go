package validator

import (
	"log/slog"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formstate/pkg/flat"
)

// Outcome classifies how a submission attempt ended.
type Outcome string

const (
	// OutcomeAccepted means the callback ran and returned nil (or there was
	// no callback and the form was valid).
	OutcomeAccepted Outcome = "accepted"
	// OutcomeRejected means another submission was still in flight.
	OutcomeRejected Outcome = "rejected_in_flight"
	// OutcomeInvalid means displayed errors blocked the submission.
	OutcomeInvalid Outcome = "invalid"
	// OutcomeFailed means decoding failed or the callback returned an error
	// or panicked.
	OutcomeFailed Outcome = "failed"
)

// Observer receives submission and validation events, typically to feed
// metrics. Implementations must be safe for concurrent use and must not call
// back into the validator.
type Observer interface {
	SubmitObserved(form string, outcome Outcome, elapsed time.Duration)
	ValidationObserved(form string, issues int)
}

// Option configures a Validator.
type Option func(*options)

type options struct {
	name           string
	logger         *slog.Logger
	observer       Observer
	flattener      *flat.Flattener
	policy         *bluemonday.Policy
	submitTimeout  time.Duration
	resetOnSuccess bool
	tagName        string
}

func defaultOptions() options {
	return options{
		name:      "form",
		logger:    slog.New(slog.DiscardHandler),
		flattener: flat.Shared(),
		policy:    bluemonday.StrictPolicy(),
		tagName:   "json",
	}
}

// WithName labels the form in logs and observer events.
func WithName(name string) Option {
	return func(o *options) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			o.name = trimmed
		}
	}
}

// WithLogger sets the logger used for debug output. Defaults to a discard
// logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver registers an observer for submit and validation events.
func WithObserver(observer Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithFlattener overrides the memoising flattener. Defaults to flat.Shared.
func WithFlattener(f *flat.Flattener) Option {
	return func(o *options) {
		if f != nil {
			o.flattener = f
		}
	}
}

// WithMessagePolicy sets the bluemonday policy applied to manually set error
// messages. A nil policy stores messages untouched. Defaults to the strict
// policy, which drops all markup.
func WithMessagePolicy(policy *bluemonday.Policy) Option {
	return func(o *options) {
		o.policy = policy
	}
}

// WithSubmitTimeout bounds the context handed to the submit callback. The
// form stays in the submitting state until the callback returns, so a
// callback that ignores its context still blocks further submissions.
func WithSubmitTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.submitTimeout = d
		}
	}
}

// WithResetOnSuccess resets the form after the submit callback returns nil.
func WithResetOnSuccess() Option {
	return func(o *options) {
		o.resetOnSuccess = true
	}
}

// WithTagName selects the struct tag used when decoding submissions into the
// target type. Defaults to "json".
func WithTagName(tag string) Option {
	return func(o *options) {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			o.tagName = trimmed
		}
	}
}
