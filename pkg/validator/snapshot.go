package validator

import (
	"github.com/goccy/go-json"
)

// Snapshot is a consistent view of the form state.
type Snapshot struct {
	Values       map[string]any    `json:"values"`
	Errors       map[string]string `json:"errors"`
	Touched      map[string]bool   `json:"touched"`
	IsSubmitting bool              `json:"isSubmitting"`
	IsValid      bool              `json:"isValid"`
	IsDirty      bool              `json:"isDirty"`
}

// JSON encodes the snapshot.
func (s Snapshot) JSON() ([]byte, error) {
	return json.Marshal(s)
}

// Snapshot reads every piece of state under a single lock.
func (v *Validator[T]) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

func (v *Validator[T]) snapshotLocked() Snapshot {
	errs := v.errorsLocked()
	return Snapshot{
		Values:       v.opts.flattener.Unflatten(v.values),
		Errors:       errs,
		Touched:      copyMap(v.touched),
		IsSubmitting: v.submitting,
		IsValid:      len(errs) == 0,
		IsDirty:      len(v.touched) > 0,
	}
}
