// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package postagg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArithmeticEvaluatesAgainstRowFields(t *testing.T) {
	require := require.New(t)

	pa, err := Arithmetic("avg_latency", "total_latency / count", []string{"total_latency", "count"})
	require.NoError(err)
	require.Equal("avg_latency", pa.Name)
	require.Empty(pa.Inputs)

	got, err := pa.Eval(map[string]any{"total_latency": 120.0, "count": 4.0})
	require.NoError(err)
	require.InDelta(30.0, got, 1e-9)
}

func TestArithmeticMissingFieldYieldsNull(t *testing.T) {
	require := require.New(t)

	pa, err := Arithmetic("ratio", "a / b", []string{"a", "b"})
	require.NoError(err)

	got, err := pa.Eval(map[string]any{"a": 10.0})
	require.NoError(err)
	require.Nil(got)
}

func TestArithmeticCompileError(t *testing.T) {
	require := require.New(t)

	_, err := Arithmetic("bad", "a +* b", []string{"a", "b"})
	require.Error(err)
}
