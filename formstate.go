package formstate

import (
	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/validator"
)

// Validator aliases validator.Validator so callers can stay on the root
// package for the common path.
type Validator[T any] = validator.Validator[T]

// Config describes a form: schema, defaults and submit callback.
type Config[T any] = validator.Config[T]

// SubmitFunc receives the decoded submission.
type SubmitFunc[T any] = validator.SubmitFunc[T]

// SubmitContext is the set of mutators available to submit callbacks.
type SubmitContext = validator.SubmitContext

// Option configures a Validator.
type Option = validator.Option

// Attrs holds element attributes for bindings.
type Attrs = validator.Attrs

// Snapshot is a point-in-time copy of form state.
type Snapshot = validator.Snapshot

// Field describes a leaf input a schema expects.
type Field = schema.Field

// New creates a form validator. It fails only when cfg.Schema is nil.
func New[T any](cfg Config[T], options ...Option) (*Validator[T], error) {
	return validator.New(cfg, options...)
}
