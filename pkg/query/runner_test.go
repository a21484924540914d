// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chronoscale/chronos/pkg/aggregation"
	"github.com/chronoscale/chronos/pkg/index"
	"github.com/chronoscale/chronos/pkg/row"
	"github.com/chronoscale/chronos/pkg/segment"
)

// TestTimeseriesCount is spec.md §8 scenario S1: three rows bucketed by
// MINUTE granularity, counted with no dimensions (timeseries is groupBy's
// zero-dimension special case).
func TestTimeseriesCount(t *testing.T) {
	require := require.New(t)

	idx := index.New(index.Config{
		Metrics:     []aggregation.Factory{aggregation.CountFactory{MetricName: "c"}},
		Granularity: segment.Minute,
	})

	day := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	add := func(offset time.Duration, k string) {
		_, err := idx.Add(row.New(day.Add(offset), map[string]any{"k": k}))
		require.NoError(err)
	}
	add(10*time.Second, "a")
	add(20*time.Second, "b")
	add(time.Minute+5*time.Second, "a")

	spec := Spec{
		Kind:        KindTimeseries,
		Interval:    segment.TimeInterval{StartMs: day.UnixMilli(), EndMs: day.AddDate(0, 0, 1).UnixMilli()},
		Granularity: segment.Minute,
		Aggregators: []aggregation.Factory{aggregation.CountFactory{MetricName: "c"}},
	}

	seq, err := GroupByRunner{}.Run(spec, []segment.Adapter{idx})
	require.NoError(err)
	defer seq.Close()

	var rows []map[string]any
	for {
		r, ok, err := seq.Next()
		require.NoError(err)
		if !ok {
			break
		}
		rows = append(rows, r.(map[string]any))
	}

	require.Len(rows, 2)
	require.Equal(day.UnixMilli(), rows[0]["timestamp"])
	require.Equal(int64(2), rows[0]["c"])
	require.Equal(day.Add(time.Minute).UnixMilli(), rows[1]["timestamp"])
	require.Equal(int64(1), rows[1]["c"])
}

// TestEmptyIntervalReturnsEmptySequence covers spec.md §8's boundary
// behavior: an interval containing no rows yields an empty sequence, not
// an error.
func TestEmptyIntervalReturnsEmptySequence(t *testing.T) {
	require := require.New(t)

	idx := index.New(index.Config{
		Metrics:     []aggregation.Factory{aggregation.CountFactory{MetricName: "c"}},
		Granularity: segment.Minute,
	})
	day := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := idx.Add(row.New(day, map[string]any{"k": "a"}))
	require.NoError(err)

	spec := Spec{
		Kind:        KindTimeseries,
		Interval:    segment.TimeInterval{StartMs: day.AddDate(1, 0, 0).UnixMilli(), EndMs: day.AddDate(1, 0, 1).UnixMilli()},
		Granularity: segment.Minute,
		Aggregators: []aggregation.Factory{aggregation.CountFactory{MetricName: "c"}},
	}

	seq, err := GroupByRunner{}.Run(spec, []segment.Adapter{idx})
	require.NoError(err)
	defer seq.Close()

	_, ok, err := seq.Next()
	require.NoError(err)
	require.False(ok)
}
