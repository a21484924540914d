// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package index

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chronoscale/chronos/pkg/aggregation"
	"github.com/chronoscale/chronos/pkg/chronoserr"
	"github.com/chronoscale/chronos/pkg/row"
	"github.com/chronoscale/chronos/pkg/segment"
)

// TestMaxRowCountRejectsNextAddButKeepsPriorState is spec.md §8's boundary
// behavior: an incremental index at MaxRowCount fails the next add with
// ResourceExhausted while leaving every previously ingested row intact.
func TestMaxRowCountRejectsNextAddButKeepsPriorState(t *testing.T) {
	require := require.New(t)

	idx := New(Config{
		Metrics:      []aggregation.Factory{aggregation.CountFactory{MetricName: "c"}},
		Granularity:  segment.Minute,
		MaxRowCount:  2,
		RollupEnabled: false,
	})

	day := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := idx.Add(row.New(day, map[string]any{"k": "a"}))
	require.NoError(err)
	_, err = idx.Add(row.New(day, map[string]any{"k": "b"}))
	require.NoError(err)
	require.Equal(2, idx.Size())

	_, err = idx.Add(row.New(day, map[string]any{"k": "c"}))
	require.Error(err)
	require.Equal(chronoserr.ResourceExhausted, chronoserr.KindOf(err))

	require.Equal(2, idx.Size())
	require.Equal(2, idx.IngestedRows())
}
