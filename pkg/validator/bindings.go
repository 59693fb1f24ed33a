package validator

import (
	"context"
	"fmt"
)

// Attrs holds element attributes for a binding. Boolean true renders as a
// bare attribute, false and nil are omitted by renderers.
type Attrs map[string]any

// Merge returns a copy of a with every entry of b applied on top.
func (a Attrs) Merge(b Attrs) Attrs {
	out := make(Attrs, len(a)+len(b))
	for key, value := range a {
		out[key] = value
	}
	for key, value := range b {
		out[key] = value
	}
	return out
}

// FieldBinding connects one input element to a path in the form state.
type FieldBinding struct {
	Name    string
	Value   any
	Error   string
	Touched bool
	Attrs   Attrs

	input func(any)
	blur  func()
}

// OnInput writes the new value and clears the field's manual error. It does
// not mark the field touched, so schema errors for untouched fields stay
// hidden while the user types.
func (f FieldBinding) OnInput(value any) {
	if f.input != nil {
		f.input(value)
	}
}

// OnBlur marks the field touched.
func (f FieldBinding) OnBlur() {
	if f.blur != nil {
		f.blur()
	}
}

// FormBinding connects a form element to the validator.
type FormBinding struct {
	Attrs Attrs

	submit func(context.Context) error
}

// OnSubmit runs the validator's submit flow.
func (f FormBinding) OnSubmit(ctx context.Context) error {
	if f.submit == nil {
		return nil
	}
	return f.submit(ctx)
}

// Field returns the binding for path. props are passed through to Attrs;
// the binding's own name, value and aria-invalid entries take precedence.
func (v *Validator[T]) Field(path string, props Attrs) FieldBinding {
	v.mu.Lock()
	value, hasValue := v.values[path]
	errMsg := v.errorsLocked()[path]
	touched := v.touched[path]
	v.mu.Unlock()

	own := Attrs{"name": path}
	if hasValue && value != nil {
		own["value"] = fmt.Sprint(value)
	}
	if errMsg != "" {
		own["aria-invalid"] = "true"
	}

	return FieldBinding{
		Name:    path,
		Value:   value,
		Error:   errMsg,
		Touched: touched,
		Attrs:   props.Merge(own),
		input: func(next any) {
			v.input(path, next)
		},
		blur: func() {
			v.SetTouched(path, true)
		},
	}
}

// Form returns the binding for the form element. Native browser validation is
// disabled so the schema stays the single source of errors.
func (v *Validator[T]) Form(props Attrs) FormBinding {
	return FormBinding{
		Attrs:  props.Merge(Attrs{"novalidate": true}),
		submit: v.Submit,
	}
}

func (v *Validator[T]) input(path string, value any) {
	v.mu.Lock()
	v.writeValuesLocked(map[string]any{path: value})
	v.clearManualLocked(path)
	v.mu.Unlock()
	v.notify()
}
