// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package index

import (
	"fmt"

	"github.com/chronoscale/chronos/pkg/segment"
)

// MetricReader is a reusable, point-in-time bound reader over one
// IncrementalIndex: SetRow rebinds it to a different row number without
// reallocating, the same shape as history_reader_v3.go's
// SetTx/SetTxNum-bound HistoryReaderV3. trace turns on per-read logging for
// debugging rollup behavior.
type MetricReader struct {
	idx   *IncrementalIndex
	row   int
	trace bool
}

func NewMetricReader(idx *IncrementalIndex) *MetricReader {
	return &MetricReader{idx: idx}
}

func (mr *MetricReader) SetRow(row int)     { mr.row = row }
func (mr *MetricReader) GetRow() int        { return mr.row }
func (mr *MetricReader) SetTrace(trace bool) { mr.trace = trace }

func (mr *MetricReader) String() string {
	return fmt.Sprintf("row:%d", mr.row)
}

// Metric reads metric index m at the currently bound row.
func (mr *MetricReader) Metric(m int) (any, error) {
	v, err := mr.idx.GetMetricValue(mr.row, m)
	if mr.trace {
		fmt.Printf("MetricReader.Metric(row=%d, m=%d) => %v, err=%v\n", mr.row, m, v, err)
	}
	return v, err
}

// TimeColumn returns the bucket timestamp of the currently bound row.
func (mr *MetricReader) TimeColumn() int64 {
	mr.idx.mu.RLock()
	defer mr.idx.mu.RUnlock()
	if mr.row < 0 || mr.row >= len(mr.idx.timestamps) {
		return 0
	}
	return mr.idx.timestamps[mr.row]
}

// DimensionIDs returns the sorted dictionary-id vector for dimension d at
// the currently bound row.
func (mr *MetricReader) DimensionIDs(d string) []int {
	mr.idx.mu.RLock()
	defer mr.idx.mu.RUnlock()
	if mr.row < 0 || mr.row >= len(mr.idx.dimIDs) {
		return nil
	}
	return mr.idx.dimIDs[mr.row][d]
}

// Granularity exposes the index's configured bucket granularity so callers
// can build a segment.Cursor-compatible scan without reaching into cfg.
func (idx *IncrementalIndex) Granularity() segment.Granularity { return idx.cfg.Granularity }

// Dimensions exposes the configured dimension column names in order.
func (idx *IncrementalIndex) Dimensions() []string { return idx.cfg.Dimensions }

// MetricNames exposes the configured aggregator factories' names in order.
func (idx *IncrementalIndex) MetricNames() []string {
	out := make([]string, len(idx.cfg.Metrics))
	for i, f := range idx.cfg.Metrics {
		out[i] = f.Name()
	}
	return out
}
