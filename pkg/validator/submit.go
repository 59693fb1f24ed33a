package validator

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/goliatone/go-formstate/pkg/flat"
	"github.com/goliatone/go-formstate/pkg/schema"
)

// Submit runs the submit flow: it rejects concurrent submissions, marks every
// value path and every failing path touched, blocks on displayed errors,
// decodes the nested record into T and invokes the submit callback. The
// submitting flag is cleared once the callback returns, fails or panics.
//
// Returned errors: ErrSubmitInProgress, *InvalidError (matches ErrInvalid),
// ErrDecode, *PanicError, or the callback's own error wrapped.
func (v *Validator[T]) Submit(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := v.opts.logger.With("form", v.opts.name)

	v.mu.Lock()
	if v.submitting {
		v.mu.Unlock()
		logger.Debug("submit rejected, previous submission in flight")
		v.observe(OutcomeRejected, 0)
		return ErrSubmitInProgress
	}

	result := v.parseLocked()
	keys := sortedKeys(v.values)
	keys = append(keys, schema.Paths(result.Issues)...)
	v.touchLocked(keys, true)

	if errs := v.errorsLocked(); len(errs) > 0 {
		v.mu.Unlock()
		v.notify()
		logger.Debug("submit blocked by errors", "errors", len(errs))
		v.observe(OutcomeInvalid, 0)
		return &InvalidError{Errors: errs}
	}

	if v.onSubmit == nil {
		v.mu.Unlock()
		v.notify()
		v.observe(OutcomeAccepted, 0)
		return nil
	}

	v.submitting = true
	// A private copy: the callback may keep or mutate it.
	nested := flat.Unflatten(v.values)
	v.mu.Unlock()
	v.notify()

	started := time.Now()
	err := v.invoke(ctx, nested)
	elapsed := time.Since(started)

	v.mu.Lock()
	v.submitting = false
	v.mu.Unlock()

	if err != nil {
		v.notify()
		logger.Debug("submit failed", "error", err, "elapsed", elapsed)
		v.observe(OutcomeFailed, elapsed)
		return err
	}

	if v.opts.resetOnSuccess {
		v.Reset()
	} else {
		v.notify()
	}
	logger.Debug("submit accepted", "elapsed", elapsed)
	v.observe(OutcomeAccepted, elapsed)
	return nil
}

func (v *Validator[T]) invoke(ctx context.Context, nested map[string]any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			v.opts.logger.Warn("submit callback panicked", "form", v.opts.name, "panic", r)
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	data, err := v.decode(nested)
	if err != nil {
		return err
	}

	if v.opts.submitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.opts.submitTimeout)
		defer cancel()
	}

	if err := v.onSubmit(ctx, data, v); err != nil {
		return fmt.Errorf("validator: submit callback: %w", err)
	}
	return nil
}

func (v *Validator[T]) decode(nested map[string]any) (T, error) {
	var out T
	if target, ok := any(&out).(*map[string]any); ok {
		*target = nested
		return out, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		TagName:          v.opts.tagName,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if err := decoder.Decode(nested); err != nil {
		return out, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return out, nil
}

func (v *Validator[T]) observe(outcome Outcome, elapsed time.Duration) {
	if v.opts.observer != nil {
		v.opts.observer.SubmitObserved(v.opts.name, outcome, elapsed)
	}
}
