// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package filter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chronoscale/chronos/pkg/bitmap"
)

// fourRowContext implements Context over the literal fixture
// [{k:a},{k:b},{k:c},{k:d}] that spec.md §8 scenario S2 filters.
type fourRowContext struct {
	idx *bitmap.Index
	ids map[string]int
}

func newFourRowContext() *fourRowContext {
	idx := bitmap.NewIndex(4)
	ids := map[string]int{"a": 0, "b": 1, "c": 2, "d": 3}
	for val, id := range ids {
		idx.Add(id, uint32(id))
		_ = val
	}
	return &fourRowContext{idx: idx, ids: ids}
}

func (c *fourRowContext) BitmapIndex(column string) (*bitmap.Index, bool) {
	if column != "k" {
		return nil, false
	}
	return c.idx, true
}

func (c *fourRowContext) LookupID(column, val string) (int, bool) {
	if column != "k" {
		return 0, false
	}
	id, ok := c.ids[val]
	return id, ok
}

func (c *fourRowContext) StringValuesAt(column string, rowID uint32) []string {
	for val, id := range c.ids {
		if uint32(id) == rowID {
			return []string{val}
		}
	}
	return nil
}

func (c *fourRowContext) NumRows() int { return 4 }

// TestFilterCNF is spec.md §8 scenario S2: and(or(k=a,k=b), not(k=c)) over
// [{k:a},{k:b},{k:c},{k:d}] must select exactly rows {0,1}.
func TestFilterCNF(t *testing.T) {
	require := require.New(t)

	ctx := newFourRowContext()
	f := And{Children: []DimFilter{
		Or{Children: []DimFilter{
			Selector{Column: "k", Value: "a"},
			Selector{Column: "k", Value: "b"},
		}},
		Not{Child: Selector{Column: "k", Value: "c"}},
	}}

	result, err := ToCNF(f).Compile(ctx)
	require.NoError(err)

	for rowID := uint32(0); rowID < 4; rowID++ {
		want := rowID == 0 || rowID == 1
		require.Equal(want, result.Matches(rowID), "row %d", rowID)
	}
}

// TestBitmapResultAgreesWithResidualEvaluation is spec.md §8 invariant 2:
// bitmap(f).contains(r) && residual(f)(r) == evaluate(f, r) — a compiled
// Result's Matches must agree with directly evaluating the filter against
// each row by its string value, for every combinator this package exposes.
func TestBitmapResultAgreesWithResidualEvaluation(t *testing.T) {
	require := require.New(t)
	ctx := newFourRowContext()

	cases := []DimFilter{
		Selector{Column: "k", Value: "a"},
		Not{Child: Selector{Column: "k", Value: "a"}},
		And{Children: []DimFilter{Selector{Column: "k", Value: "a"}, Not{Child: Selector{Column: "k", Value: "b"}}}},
		Or{Children: []DimFilter{Selector{Column: "k", Value: "a"}, Selector{Column: "k", Value: "c"}}},
	}
	vals := map[uint32]string{0: "a", 1: "b", 2: "c", 3: "d"}

	for _, f := range cases {
		result, err := ToCNF(f).Compile(ctx)
		require.NoError(err)
		for rowID, val := range vals {
			require.Equal(evaluateRecursive(f, val), result.Matches(rowID), "filter %#v row %d", f, rowID)
		}
	}
}

func evaluateRecursive(f DimFilter, val string) bool {
	switch ff := f.(type) {
	case Selector:
		return val == ff.Value
	case Not:
		return !evaluateRecursive(ff.Child, val)
	case And:
		for _, c := range ff.Children {
			if !evaluateRecursive(c, val) {
				return false
			}
		}
		return true
	case Or:
		for _, c := range ff.Children {
			if evaluateRecursive(c, val) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
