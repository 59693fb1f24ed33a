package validator

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrSchemaRequired is returned by New when the config carries no schema.
	ErrSchemaRequired = errors.New("validator: schema is required")
	// ErrSubmitInProgress is returned when a submission is attempted while a
	// previous one has not settled. The submit callback is not invoked.
	ErrSubmitInProgress = errors.New("validator: submission in flight")
	// ErrInvalid is matched by InvalidError so callers can use errors.Is.
	ErrInvalid = errors.New("validator: form is invalid")
	// ErrDecode wraps failures decoding the submitted record into the target
	// type.
	ErrDecode = errors.New("validator: decode submission")
)

// InvalidError reports that a submission was blocked by displayed errors. The
// errors are also visible through Validator.Errors; this type only carries a
// copy for convenience.
type InvalidError struct {
	Errors map[string]string
}

func (e *InvalidError) Error() string {
	if e == nil || len(e.Errors) == 0 {
		return ErrInvalid.Error()
	}
	keys := make([]string, 0, len(e.Errors))
	for key := range e.Errors {
		if key == "" {
			key = "(form)"
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return fmt.Sprintf("%s: %s", ErrInvalid.Error(), strings.Join(keys, ", "))
}

// Is matches ErrInvalid.
func (e *InvalidError) Is(target error) bool {
	return target == ErrInvalid
}

// PanicError is returned when the submit callback panics. The form leaves the
// submitting state before the error is returned.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("validator: submit callback panicked: %v", e.Value)
}
