// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package filter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestNewInRejectsZeroValues is spec.md §8's boundary behavior: `in` with no
// candidate values must fail at construction, not compile to a filter that
// silently matches nothing.
func TestNewInRejectsZeroValues(t *testing.T) {
	require := require.New(t)

	_, err := NewIn("k")
	require.Error(err)
}

func TestNewInAcceptsAtLeastOneValue(t *testing.T) {
	require := require.New(t)

	f, err := NewIn("k", "a")
	require.NoError(err)
	require.Equal([]string{"a"}, f.Values)
}
