// Package flat converts nested records (map[string]any trees with []any
// lists) into single-level maps keyed by dotted paths and back. Form state is
// stored flat so individual fields can be addressed by path; validators see
// the nested shape.
//
// Flattener adds identity-keyed LRU memoisation on top of the pure functions.
// Callers that build a fresh map on every call gain nothing from it; callers
// that keep immutable snapshots (as the validator does) skip recomputation on
// every read.
package flat
