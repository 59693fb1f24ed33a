package validator

import (
	"context"
	"fmt"
	"html"
	"sort"
	"sync"

	"github.com/mohae/deepcopy"

	"github.com/goliatone/go-formstate/internal/paths"
	"github.com/goliatone/go-formstate/pkg/flat"
	"github.com/goliatone/go-formstate/pkg/schema"
)

// SubmitFunc receives the decoded submission and a context for mutating the
// form (for example to attach server-side errors or reset it).
type SubmitFunc[T any] func(ctx context.Context, data T, form SubmitContext) error

// SubmitContext is the set of mutators available to a submit callback.
type SubmitContext interface {
	Reset()
	SetValue(path string, value any)
	SetValues(values map[string]any)
	SetError(path, message string)
	SetErrors(errs map[string]any)
	SetTouched(path string, touched bool)
}

// Config describes a form: its schema, default values and submit callback.
type Config[T any] struct {
	Schema   schema.SafeParser
	Defaults map[string]any
	OnSubmit SubmitFunc[T]
}

// Validator holds the state of one form. Values, touched flags and manual
// errors are stored flat and replaced on every change, never mutated in
// place. Errors are derived on read: the nested record is validated against
// the schema, issues are kept for touched paths only, and manual errors are
// laid on top.
//
// Manual errors win over schema errors for the same path and are cleared when
// that path is edited.
//
// Validator is safe for concurrent use. Subscribers and the submit callback
// run without internal locks held.
type Validator[T any] struct {
	opts     options
	parser   schema.SafeParser
	onSubmit SubmitFunc[T]
	defaults map[string]any

	mu         sync.Mutex
	values     map[string]any
	touched    map[string]bool
	manual     map[string]string
	submitting bool

	version       uint64
	parsed        schema.Result
	parsedVersion uint64
	parsedOK      bool

	subscribers map[int]func(Snapshot)
	nextSub     int
}

var _ SubmitContext = (*Validator[map[string]any])(nil)

// New constructs a Validator from cfg.
func New[T any](cfg Config[T], options ...Option) (*Validator[T], error) {
	if cfg.Schema == nil {
		return nil, ErrSchemaRequired
	}

	opts := defaultOptions()
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&opts)
	}

	snapshot, _ := deepcopy.Copy(cfg.Defaults).(map[string]any)
	defaults := flat.Flatten(snapshot)
	v := &Validator[T]{
		opts:        opts,
		parser:      cfg.Schema,
		onSubmit:    cfg.OnSubmit,
		defaults:    defaults,
		values:      defaults,
		touched:     map[string]bool{},
		manual:      map[string]string{},
		subscribers: make(map[int]func(Snapshot)),
	}
	return v, nil
}

// Name returns the form name used in logs and metrics.
func (v *Validator[T]) Name() string {
	return v.opts.name
}

// Values returns the nested record. The result is shared with the flattener
// cache and must be treated as read-only.
func (v *Validator[T]) Values() map[string]any {
	v.mu.Lock()
	values := v.values
	v.mu.Unlock()
	return v.opts.flattener.Unflatten(values)
}

// FlatValues returns a copy of the flattened values.
func (v *Validator[T]) FlatValues() map[string]any {
	v.mu.Lock()
	defer v.mu.Unlock()
	return copyMap(v.values)
}

// Value returns the flattened value stored at path.
func (v *Validator[T]) Value(path string) (any, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	value, ok := v.values[path]
	return value, ok
}

// Errors returns the displayed errors keyed by dotted path.
func (v *Validator[T]) Errors() map[string]string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.errorsLocked()
}

// Error returns the displayed error for path, or "".
func (v *Validator[T]) Error(path string) string {
	return v.Errors()[path]
}

// Touched returns a copy of the touched set.
func (v *Validator[T]) Touched() map[string]bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return copyMap(v.touched)
}

// IsTouched reports whether path has been touched.
func (v *Validator[T]) IsTouched(path string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.touched[path]
}

// IsSubmitting reports whether a submit callback is in flight.
func (v *Validator[T]) IsSubmitting() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.submitting
}

// IsValid reports whether no error is displayed.
func (v *Validator[T]) IsValid() bool {
	return len(v.Errors()) == 0
}

// IsDirty reports whether any field has been touched.
func (v *Validator[T]) IsDirty() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.touched) > 0
}

// SetValue writes value at path, marks the path touched and clears its
// manual error. Map and slice values are flattened below path.
func (v *Validator[T]) SetValue(path string, value any) {
	v.mu.Lock()
	updates := flat.Flatten(map[string]any{path: value})
	v.writeValuesLocked(updates)
	v.touchLocked(append(sortedKeys(updates), path), true)
	v.clearManualLocked(path)
	v.mu.Unlock()
	v.notify()
}

// SetValues merges a nested or flat record into the values, marking every
// supplied path touched and clearing their manual errors. Paths not present
// in values are left alone.
func (v *Validator[T]) SetValues(values map[string]any) {
	if len(values) == 0 {
		return
	}
	v.mu.Lock()
	updates := flat.Flatten(values)
	v.writeValuesLocked(updates)
	keys := sortedKeys(updates)
	v.touchLocked(keys, true)
	v.clearManualLocked(keys...)
	v.mu.Unlock()
	v.notify()
}

// SetError attaches a manual error to path and marks it touched. An empty
// message removes the manual error.
func (v *Validator[T]) SetError(path, message string) {
	v.mu.Lock()
	v.touchLocked([]string{path}, true)
	v.setManualLocked(path, message)
	v.mu.Unlock()
	v.notify()
}

// SetErrors attaches manual errors from a nested or flat record. Non-string
// messages are formatted with fmt.Sprint; nil and empty messages clear the
// manual error for their path.
func (v *Validator[T]) SetErrors(errs map[string]any) {
	if len(errs) == 0 {
		return
	}
	updates := flat.Flatten(errs)
	keys := sortedKeys(updates)

	v.mu.Lock()
	v.touchLocked(keys, true)
	for _, key := range keys {
		v.setManualLocked(key, messageOf(updates[key]))
	}
	v.mu.Unlock()
	v.notify()
}

// SetTouched marks or unmarks path as touched.
func (v *Validator[T]) SetTouched(path string, touched bool) {
	v.mu.Lock()
	v.touchLocked([]string{path}, touched)
	v.mu.Unlock()
	v.notify()
}

// Reset restores the default values and clears touched flags, manual errors
// and the submitting flag.
func (v *Validator[T]) Reset() {
	v.mu.Lock()
	v.values = v.defaults
	v.version++
	v.touched = map[string]bool{}
	v.manual = map[string]string{}
	v.submitting = false
	v.mu.Unlock()
	v.notify()
}

// Subscribe registers fn to receive a snapshot after every state change. fn
// is called once immediately with the current state. The returned function
// removes the subscription.
func (v *Validator[T]) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	v.mu.Lock()
	id := v.nextSub
	v.nextSub++
	v.subscribers[id] = fn
	v.mu.Unlock()

	fn(v.Snapshot())

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			delete(v.subscribers, id)
			v.mu.Unlock()
		})
	}
}

func (v *Validator[T]) notify() {
	v.mu.Lock()
	if len(v.subscribers) == 0 {
		v.mu.Unlock()
		return
	}
	ids := make([]int, 0, len(v.subscribers))
	for id := range v.subscribers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Snapshot), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, v.subscribers[id])
	}
	snap := v.snapshotLocked()
	v.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// writeValuesLocked merges flat updates into a fresh values map. Existing
// paths that are ancestors or descendants of an updated path are dropped so
// the nested view has a single owner for every path.
func (v *Validator[T]) writeValuesLocked(updates map[string]any) {
	next := make(map[string]any, len(v.values)+len(updates))
	for key, value := range v.values {
		if conflicts(key, updates) {
			continue
		}
		next[key] = value
	}
	for key, value := range updates {
		next[key] = value
	}
	v.values = next
	v.version++
}

func conflicts(key string, updates map[string]any) bool {
	if _, ok := updates[key]; ok {
		return false
	}
	for path := range updates {
		if paths.Related(key, path) {
			return true
		}
	}
	return false
}

func (v *Validator[T]) touchLocked(keys []string, touched bool) {
	next := copyMap(v.touched)
	for _, key := range keys {
		if touched {
			next[key] = true
		} else {
			delete(next, key)
		}
	}
	v.touched = next
}

func (v *Validator[T]) clearManualLocked(keys ...string) {
	changed := false
	for _, key := range keys {
		if _, ok := v.manual[key]; ok {
			changed = true
			break
		}
	}
	if !changed {
		return
	}
	next := copyMap(v.manual)
	for _, key := range keys {
		delete(next, key)
	}
	v.manual = next
}

func (v *Validator[T]) setManualLocked(path, message string) {
	message = v.sanitize(message)
	next := copyMap(v.manual)
	if message == "" {
		delete(next, path)
	} else {
		next[path] = message
	}
	v.manual = next
}

func (v *Validator[T]) sanitize(message string) string {
	if v.opts.policy == nil {
		return message
	}
	// Entities are decoded before sanitizing so encoded markup is stripped
	// too. The policy's own escaping is then undone once; templates escape on
	// render.
	return html.UnescapeString(v.opts.policy.Sanitize(html.UnescapeString(message)))
}

// parseLocked validates the current values, reusing the last result while
// the values are unchanged.
func (v *Validator[T]) parseLocked() schema.Result {
	if v.parsedOK && v.parsedVersion == v.version {
		return v.parsed
	}
	nested := v.opts.flattener.Unflatten(v.values)
	result := v.parser.SafeParse(context.Background(), nested)
	v.parsed = result
	v.parsedVersion = v.version
	v.parsedOK = true
	if v.opts.observer != nil {
		v.opts.observer.ValidationObserved(v.opts.name, len(result.Issues))
	}
	return result
}

func (v *Validator[T]) errorsLocked() map[string]string {
	result := v.parseLocked()
	out := make(map[string]string)
	for path, message := range schema.ErrorMap(result.Issues) {
		if v.touched[path] {
			out[path] = message
		}
	}
	for path, message := range v.manual {
		out[path] = message
	}
	return out
}

func messageOf(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case error:
		return typed.Error()
	default:
		return fmt.Sprint(typed)
	}
}

func copyMap[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func sortedKeys[V any](in map[string]V) []string {
	keys := make([]string, 0, len(in))
	for key := range in {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
