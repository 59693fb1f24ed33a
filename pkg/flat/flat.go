package flat

import (
	"sort"
	"strconv"

	"github.com/goliatone/go-formstate/internal/paths"
)

// Delimiter joins path segments in flattened records. Keys that already
// contain the delimiter are not escaped, so such records do not round-trip.
const Delimiter = paths.Delimiter

// Flatten converts a nested record into a single-level map keyed by dotted
// paths. Nested maps and slices are walked; slice elements use their index as
// the segment. Empty maps and slices are kept as leaves so they survive a
// round trip.
func Flatten(target map[string]any) map[string]any {
	out := make(map[string]any, len(target))
	for key, value := range target {
		flattenInto(out, key, value)
	}
	return out
}

func flattenInto(dst map[string]any, path string, node any) {
	switch typed := node.(type) {
	case map[string]any:
		if len(typed) == 0 {
			dst[path] = typed
			return
		}
		for key, value := range typed {
			flattenInto(dst, paths.Join(path, key), value)
		}
	case []any:
		if len(typed) == 0 {
			dst[path] = typed
			return
		}
		for idx, value := range typed {
			flattenInto(dst, paths.Join(path, strconv.Itoa(idx)), value)
		}
	default:
		dst[path] = node
	}
}

// Unflatten rebuilds the nested record described by a flattened map. Below
// the top level, a group of numeric segments becomes a slice only when the
// indices run densely from 0; sparse indices stay map keys so no empty slots
// appear. Paths are applied in sorted order, so when a leaf collides with a
// deeper path ("a" and "a.b") the deeper path wins. The input and any maps or
// slices it holds are never modified.
func Unflatten(target map[string]any) map[string]any {
	out := make(map[string]any, len(target))
	if len(target) == 0 {
		return out
	}

	keys := make([]string, 0, len(target))
	for key := range target {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	root := &branch{children: make(map[string]any, len(target))}
	for _, key := range keys {
		segments := paths.Split(key)
		if len(segments) == 0 {
			root.children[key] = target[key]
			continue
		}
		root.set(segments, target[key])
	}

	for key, child := range root.children {
		out[key] = materialize(child)
	}
	return out
}

// branch is an interior node built by Unflatten. Leaves are stored as is.
type branch struct {
	children map[string]any
}

func (b *branch) set(segments []string, value any) {
	head := segments[0]
	if len(segments) == 1 {
		b.children[head] = value
		return
	}
	child, ok := b.children[head].(*branch)
	if !ok {
		child = expand(b.children[head])
		b.children[head] = child
	}
	child.set(segments[1:], value)
}

// expand turns a leaf that a deeper path descends into into a branch. Map
// and slice leaves are copied one level so the caller's containers stay
// untouched; other leaves are replaced.
func expand(leaf any) *branch {
	switch typed := leaf.(type) {
	case map[string]any:
		children := make(map[string]any, len(typed))
		for key, value := range typed {
			children[key] = value
		}
		return &branch{children: children}
	case []any:
		children := make(map[string]any, len(typed))
		for idx, value := range typed {
			children[strconv.Itoa(idx)] = value
		}
		return &branch{children: children}
	}
	return &branch{children: make(map[string]any)}
}

func materialize(node any) any {
	b, ok := node.(*branch)
	if !ok {
		return node
	}
	if isDense(b.children) {
		list := make([]any, len(b.children))
		for key, child := range b.children {
			idx, _ := sliceIndex(key)
			list[idx] = materialize(child)
		}
		return list
	}
	m := make(map[string]any, len(b.children))
	for key, child := range b.children {
		m[key] = materialize(child)
	}
	return m
}

// isDense reports whether children are keyed exactly 0..n-1.
func isDense(children map[string]any) bool {
	if len(children) == 0 {
		return false
	}
	for key := range children {
		idx, ok := sliceIndex(key)
		if !ok || idx >= len(children) {
			return false
		}
	}
	return true
}

func sliceIndex(segment string) (int, bool) {
	if segment == "" || segment[0] < '0' || segment[0] > '9' {
		return 0, false
	}
	if len(segment) > 1 && segment[0] == '0' {
		return 0, false
	}
	idx, err := strconv.Atoi(segment)
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}
