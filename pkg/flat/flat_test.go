package flat_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/flat"
)

func TestFlatten_NestedRecord(t *testing.T) {
	input := map[string]any{
		"email": "ada@example.com",
		"owner": map[string]any{
			"name": "Ada",
			"address": map[string]any{
				"city": "London",
			},
		},
		"tags":  []any{"a", "b"},
		"empty": map[string]any{},
		"none":  []any{},
	}

	want := map[string]any{
		"email":              "ada@example.com",
		"owner.name":         "Ada",
		"owner.address.city": "London",
		"tags.0":             "a",
		"tags.1":             "b",
		"empty":              map[string]any{},
		"none":               []any{},
	}

	if diff := cmp.Diff(want, flat.Flatten(input)); diff != "" {
		t.Fatalf("flatten mismatch (-want +got):\n%s", diff)
	}
}

func TestUnflatten_BuildsMapsAndSlices(t *testing.T) {
	input := map[string]any{
		"owner.name":  "Ada",
		"items.0.sku": "A-1",
		"items.1.sku": "B-2",
		"matrix.0.0":  1,
		"matrix.0.1":  2,
		"codes.007":   "kept as key",
		"plain":       true,
	}

	want := map[string]any{
		"owner": map[string]any{"name": "Ada"},
		"items": []any{
			map[string]any{"sku": "A-1"},
			map[string]any{"sku": "B-2"},
		},
		"matrix": []any{[]any{1, 2}},
		"codes":  map[string]any{"007": "kept as key"},
		"plain":  true,
	}

	if diff := cmp.Diff(want, flat.Unflatten(input)); diff != "" {
		t.Fatalf("unflatten mismatch (-want +got):\n%s", diff)
	}
}

func TestUnflatten_DeeperPathWinsOverLeaf(t *testing.T) {
	got := flat.Unflatten(map[string]any{
		"a":   1,
		"a.b": 2,
	})
	want := map[string]any{"a": map[string]any{"b": 2}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("collision mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTrip(t *testing.T) {
	records := []map[string]any{
		{},
		{"a": 1},
		{"a": map[string]any{"b": map[string]any{"c": "d"}}, "e": false},
		{"list": []any{map[string]any{"x": 1.5}, nil, "s"}, "empty": map[string]any{}},
		{"signup": map[string]any{"email": "", "password": "secret", "tags": []any{}}},
	}

	for _, record := range records {
		if diff := cmp.Diff(record, flat.Unflatten(flat.Flatten(record))); diff != "" {
			t.Fatalf("unflatten(flatten(x)) mismatch (-want +got):\n%s", diff)
		}

		flattened := flat.Flatten(record)
		again := flat.Flatten(flat.Unflatten(flattened))
		if diff := cmp.Diff(keys(flattened), keys(again)); diff != "" {
			t.Fatalf("flatten(unflatten(x)) key mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestUnflatten_SparseIndexesStayKeys(t *testing.T) {
	cases := []map[string]any{
		{"tags.2": "x"},
		{"tags.0": "a", "tags.2": "c"},
		{"items.1.sku": "B-2", "owner.name": "Ada"},
		{"matrix.0.3": 1, "matrix.1.0": 2},
	}

	for _, flattened := range cases {
		again := flat.Flatten(flat.Unflatten(flattened))
		if diff := cmp.Diff(flattened, again); diff != "" {
			t.Fatalf("flatten(unflatten(%v)) mismatch (-want +got):\n%s", flattened, diff)
		}
	}

	want := map[string]any{"tags": map[string]any{"2": "x"}}
	if diff := cmp.Diff(want, flat.Unflatten(map[string]any{"tags.2": "x"})); diff != "" {
		t.Fatalf("sparse unflatten mismatch (-want +got):\n%s", diff)
	}
}

func TestUnflatten_DoesNotModifyInput(t *testing.T) {
	leaf := map[string]any{"x": 1}
	list := []any{"a"}
	input := map[string]any{
		"a":      leaf,
		"a.y":    2,
		"list":   list,
		"list.1": "b",
	}

	got := flat.Unflatten(input)

	if diff := cmp.Diff(map[string]any{"x": 1}, leaf); diff != "" {
		t.Fatalf("leaf map modified (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"a"}, list); diff != "" {
		t.Fatalf("leaf slice modified (-want +got):\n%s", diff)
	}
	want := map[string]any{
		"a":    map[string]any{"x": 1, "y": 2},
		"list": []any{"a", "b"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merge mismatch (-want +got):\n%s", diff)
	}
}

func TestFlatten_NilInput(t *testing.T) {
	if got := flat.Flatten(nil); len(got) != 0 || got == nil {
		t.Fatalf("expected empty non-nil map, got %#v", got)
	}
	if got := flat.Unflatten(nil); len(got) != 0 || got == nil {
		t.Fatalf("expected empty non-nil map, got %#v", got)
	}
}

func keys(m map[string]any) map[string]bool {
	out := make(map[string]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}
