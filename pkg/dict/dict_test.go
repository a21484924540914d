// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package dict

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestLookupRoundTrip is spec.md §8 invariant 1: dict.LookupName(dict.IDOf(v))
// == v for every value ever assigned, for arbitrary strings and insertion
// orders (including repeats, which must resolve to the same id every time).
func TestLookupRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		values := rapid.SliceOfN(rapid.String(), 1, 50).Draw(t, "values")

		d := New(0)
		seen := make(map[string]int)
		for _, v := range values {
			id, isNew := d.IDOf(v)
			if prior, ok := seen[v]; ok {
				if isNew {
					t.Fatalf("value %q re-assigned a new id on repeat insert", v)
				}
				if id != prior {
					t.Fatalf("value %q got id %d on repeat, want stable id %d", v, id, prior)
				}
			} else {
				seen[v] = id
			}
			if got := d.LookupName(id); got != v {
				t.Fatalf("LookupName(%d) = %q, want %q", id, got, v)
			}
			lookedUp, ok := d.LookupID(v)
			if !ok || lookedUp != id {
				t.Fatalf("LookupID(%q) = (%d, %v), want (%d, true)", v, lookedUp, ok, id)
			}
		}
	})
}

// TestLookupIDUnknownValueMisses is the boundary behavior companion to the
// round-trip property: a value never assigned must report ok=false rather
// than panicking or returning a zero id indistinguishable from a real one.
func TestLookupIDUnknownValueMisses(t *testing.T) {
	require := require.New(t)

	d := New(0)
	_, _ = d.IDOf("a")

	_, ok := d.LookupID("never-seen")
	require.False(ok)
}

// TestSnapshotIsStableAcrossLaterWrites covers the dictionary's documented
// append-only snapshot contract: values assigned before Snapshot keep their
// ids and names even as the live dictionary keeps growing.
func TestSnapshotIsStableAcrossLaterWrites(t *testing.T) {
	require := require.New(t)

	d := New(0)
	idA, _ := d.IDOf("a")
	idB, _ := d.IDOf("b")
	snap := d.Snapshot()

	d.IDOf("c")

	require.Equal("a", snap.LookupName(idA))
	require.Equal("b", snap.LookupName(idB))
	require.Equal(2, snap.Cardinality())
}
