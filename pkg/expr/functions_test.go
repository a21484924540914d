// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package expr

import (
	"testing"

	"github.com/google/cel-go/cel"
	"github.com/stretchr/testify/require"
)

// TestBetweenIsInclusiveOnBothEnds and the empty-range case are spec.md §8's
// boundary behaviors for the `between` CEL extension function.
func TestBetweenIsInclusiveOnBothEnds(t *testing.T) {
	require := require.New(t)

	expr, err := Compile("between(x, 1.0, 10.0)", TypeBinding{"x": cel.DoubleType})
	require.NoError(err)

	lo, err := expr.Eval(NumericBinding{"x": 1.0})
	require.NoError(err)
	require.Equal(true, lo)

	hi, err := expr.Eval(NumericBinding{"x": 10.0})
	require.NoError(err)
	require.Equal(true, hi)

	out, err := expr.Eval(NumericBinding{"x": 10.0001})
	require.NoError(err)
	require.Equal(false, out)
}

func TestBetweenEmptyRangeAlwaysFalse(t *testing.T) {
	require := require.New(t)

	expr, err := Compile("between(x, 5.0, 5.0 - 0.0001)", TypeBinding{"x": cel.DoubleType})
	require.NoError(err)

	for _, x := range []float64{-1, 0, 5, 5.0001, 100} {
		out, err := expr.Eval(NumericBinding{"x": x})
		require.NoError(err)
		require.Equal(false, out, "between with an empty range must reject x=%v", x)
	}
}

// TestIPv4InRejectsNonIPv4ByMatchingFalse is spec.md §8's boundary behavior:
// ipv4_in never raises on a malformed address, it simply does not match.
func TestIPv4InRejectsNonIPv4ByMatchingFalse(t *testing.T) {
	require := require.New(t)

	expr, err := Compile(`ipv4_in(addr, "10.0.0.0/8")`, TypeBinding{"addr": cel.StringType})
	require.NoError(err)

	for _, addr := range []string{"not-an-ip", "::1", "10.0.0.0/33", ""} {
		out, err := expr.Eval(NumericBinding{"addr": addr})
		require.NoError(err, "address %q must not raise", addr)
		require.Equal(false, out, "address %q must not match", addr)
	}

	match, err := expr.Eval(NumericBinding{"addr": "10.1.2.3"})
	require.NoError(err)
	require.Equal(true, match)
}
