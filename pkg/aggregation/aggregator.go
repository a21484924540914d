// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

// Package aggregation implements the on-heap Aggregator and off-heap
// BufferAggregator protocol of spec.md §4.5: partial aggregate state,
// combine, finalize, and the concrete families (count, sum/min/max,
// histogram, hyperloglog, theta, quantile, variance/covariance/kurtosis,
// relay, set).
package aggregation

import (
	"github.com/chronoscale/chronos/pkg/segment"
	"github.com/chronoscale/chronos/pkg/value"
)

// ColumnSource is the minimal column-selector surface an Aggregator needs to
// read the current row. segment.Cursor satisfies this interface
// structurally, so aggregators can be driven directly by a query cursor or
// by any lightweight adapter the incremental index uses at ingestion time.
type ColumnSource interface {
	FloatSelector(column string) (segment.FloatSelector, error)
	LongSelector(column string) (segment.LongSelector, error)
	DoubleSelector(column string) (segment.DoubleSelector, error)
	ObjectSelector(column string) (segment.ObjectSelector, error)
}

// Aggregator holds on-heap partial aggregate state for one group.
type Aggregator interface {
	Aggregate(src ColumnSource) error
	Get() any
	GetFloat() (float32, bool)
	GetLong() (int64, bool)
	GetDouble() (float64, bool)
	Reset()
	Close() error
}

// BufferAggregator holds state as a span of bytes at (buf, pos); the engine
// guarantees exclusive access to each (group, aggregator) slot during an
// update, so implementations need no internal locking.
type BufferAggregator interface {
	Init(buf []byte, pos int)
	Aggregate(buf []byte, pos int, src ColumnSource) error
	Get(buf []byte, pos int) any
	Float(buf []byte, pos int) (float32, bool)
	Long(buf []byte, pos int) (int64, bool)
	Double(buf []byte, pos int) (float64, bool)
}

// Combiner is the associative binary function that merges two aggregator
// states of the same factory.
type Combiner interface {
	Combine(a, b any) any
}

// Factory builds Aggregators/BufferAggregators for one configured metric and
// knows how to combine, finalize, and cache-key its own states.
type Factory interface {
	Name() string
	Fields() []string
	ResultType() value.Desc
	New() Aggregator
	// NewBuffer returns nil when this factory has no off-heap form (e.g.
	// variable-size sketch states); callers must fall back to the on-heap
	// form in that case.
	NewBuffer() BufferAggregator
	MaxIntermediateSize() int
	Comparator() func(a, b any) int
	Combiner() Combiner
	Finalize(state any) any
	CacheKey() []byte
	// GetMergingFactory widens this factory to merge with other, or returns
	// a NotMergeable error (spec.md §4.5 "Combiner mergeability").
	GetMergingFactory(other Factory) (Factory, error)
}
