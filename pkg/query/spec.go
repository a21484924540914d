// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package query

import (
	"github.com/chronoscale/chronos/pkg/aggregation"
	"github.com/chronoscale/chronos/pkg/expr"
	"github.com/chronoscale/chronos/pkg/filter"
	"github.com/chronoscale/chronos/pkg/segment"
)

// Kind names one of the runner shapes a ToolChest dispatches on, per
// spec.md §4.6's Design Note on tool-chest/runner composition.
type Kind string

const (
	KindTimeseries      Kind = "timeseries"
	KindGroupBy         Kind = "groupBy"
	KindSegmentMetadata Kind = "segmentMetadata"
)

// PostAggregator computes a derived output field from a row's aggregator
// values. Inputs names the aggregator fields this post-aggregator reads in
// their raw, pre-Finalize form (e.g. a *aggregation.ThetaSketch rather than
// its float64 estimate) — the runner holds exactly those fields back from
// Factory.Finalize until every PostAggregator has run, then finalizes them
// for display, matching how a sketch aggregator feeding a sketch-typed
// post-aggregator is never flattened to a number before the post-aggregator
// gets to read it (spec.md §9 postagg family).
type PostAggregator struct {
	Name   string
	Inputs []string
	Eval   func(row map[string]any) (any, error)
}

// Spec is the fully-resolved, engine-native query a ToolChest runs;
// SQL/JSON front ends translate into this shape during Lifecycle.Plan.
type Spec struct {
	Kind             Kind
	DataSources      []string
	Interval         segment.TimeInterval
	Granularity      segment.Granularity
	Filter           filter.DimFilter
	Dimensions       []string
	VirtualColumns   []segment.VirtualColumn
	Aggregators      []aggregation.Factory
	PostAggregators  []PostAggregator
	Having           *expr.Expression
	Descending       bool
	Limit            int

	// SkipFinalize leaves aggregator state as Get()'s raw intermediate value
	// instead of calling Factory.Finalize; set by the broker when scattering
	// to historicals, which must merge intermediate states across nodes
	// before a single Finalize at the top (spec.md §4.5's "finalize happens
	// once, after every partial is combined" rule).
	SkipFinalize bool

	// BySegment finalizes each adapter's own groups independently instead
	// of merging same-key groups across adapters, returning one
	// BySegmentResult per adapter (spec.md §9's bySegment pass-through).
	BySegment bool
}
