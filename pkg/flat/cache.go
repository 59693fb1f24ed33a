package flat

import (
	"reflect"
	"sync/atomic"
	"unsafe"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity is the number of entries each Flattener cache keeps.
const DefaultCapacity = 100

// Func is the signature shared by Flatten and Unflatten.
type Func func(map[string]any) map[string]any

// Stats counts cache lookups for one direction of a Flattener.
type Stats struct {
	Hits   uint64
	Misses uint64
}

// Option configures a Flattener.
type Option func(*config)

type config struct {
	capacity  int
	flatten   Func
	unflatten Func
}

// WithCapacity overrides the per-direction cache capacity. Non-positive values
// keep the default.
func WithCapacity(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.capacity = n
		}
	}
}

// WithFlattenFunc replaces the function memoised for Flatten calls.
func WithFlattenFunc(fn Func) Option {
	return func(cfg *config) {
		if fn != nil {
			cfg.flatten = fn
		}
	}
}

// WithUnflattenFunc replaces the function memoised for Unflatten calls.
func WithUnflattenFunc(fn Func) Option {
	return func(cfg *config) {
		if fn != nil {
			cfg.unflatten = fn
		}
	}
}

// Flattener memoises Flatten and Unflatten in two LRU caches keyed by the
// identity of the input map. Structurally equal but distinct maps are
// separate entries, and a cached map must not be mutated afterwards: the
// cache would keep returning the result computed for its old contents.
//
// Flattener is safe for concurrent use.
type Flattener struct {
	flatten   *memo
	unflatten *memo
}

// NewFlattener constructs a Flattener with the provided options.
func NewFlattener(options ...Option) *Flattener {
	cfg := &config{
		capacity:  DefaultCapacity,
		flatten:   Flatten,
		unflatten: Unflatten,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}
	return &Flattener{
		flatten:   newMemo(cfg.flatten, cfg.capacity),
		unflatten: newMemo(cfg.unflatten, cfg.capacity),
	}
}

var shared = NewFlattener()

// Shared returns the process-wide Flattener used when callers do not supply
// their own.
func Shared() *Flattener {
	return shared
}

// Flatten returns the flattened form of target, reusing the cached result
// when the same map was flattened before.
func (f *Flattener) Flatten(target map[string]any) map[string]any {
	return f.flatten.do(target)
}

// Unflatten returns the nested form of target, reusing the cached result when
// the same map was unflattened before.
func (f *Flattener) Unflatten(target map[string]any) map[string]any {
	return f.unflatten.do(target)
}

// Stats reports cache hits and misses for each direction.
func (f *Flattener) Stats() (flatten, unflatten Stats) {
	return f.flatten.stats(), f.unflatten.stats()
}

// Len reports the number of cached entries for each direction.
func (f *Flattener) Len() (flatten, unflatten int) {
	return f.flatten.cache.Len(), f.unflatten.cache.Len()
}

// Purge drops every cached entry. Counters are kept.
func (f *Flattener) Purge() {
	f.flatten.cache.Purge()
	f.unflatten.cache.Purge()
}

type entry struct {
	// source pins the input map so its address cannot be reused by a
	// different map while the entry is cached.
	source map[string]any
	result map[string]any
}

type memo struct {
	fn     Func
	cache  *lru.Cache[unsafe.Pointer, entry]
	hits   atomic.Uint64
	misses atomic.Uint64
}

func newMemo(fn Func, capacity int) *memo {
	// lru.New only fails for non-positive sizes.
	cache, _ := lru.New[unsafe.Pointer, entry](capacity)
	return &memo{fn: fn, cache: cache}
}

func (m *memo) do(target map[string]any) map[string]any {
	if target == nil {
		return m.fn(nil)
	}
	key := identity(target)
	if cached, ok := m.cache.Get(key); ok {
		m.hits.Add(1)
		return cached.result
	}
	m.misses.Add(1)
	result := m.fn(target)
	m.cache.Add(key, entry{source: target, result: result})
	return result
}

func (m *memo) stats() Stats {
	return Stats{Hits: m.hits.Load(), Misses: m.misses.Load()}
}

func identity(target map[string]any) unsafe.Pointer {
	return reflect.ValueOf(target).UnsafePointer()
}
