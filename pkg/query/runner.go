// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package query

import (
	"sort"
	"strconv"
	"strings"

	"github.com/chronoscale/chronos/pkg/aggregation"
	"github.com/chronoscale/chronos/pkg/chronoserr"
	"github.com/chronoscale/chronos/pkg/expr"
	"github.com/chronoscale/chronos/pkg/segment"
)

// Runner executes one Spec against a set of local Adapters and produces a
// ResultSequence. GroupByRunner covers both KindGroupBy (Dimensions != nil)
// and KindTimeseries (Dimensions == nil, so every bucket has exactly one
// group) — spec.md's Design Note treats timeseries as groupBy's
// zero-dimension special case, matching the teacher's own "one state
// machine, many call sites" preference for collapsing near-duplicate code
// paths (e.g. history_reader_v3.go's tx/txNum dual entry points sharing one
// body).
type GroupByRunner struct{}

type groupState struct {
	bucketMs int64
	dimVals  []string
	aggs     []aggregation.Aggregator
}

// Run drives one or more Adapters' cursors through the configured filter,
// granularity buckets, and aggregator set, merging same-key groups across
// adapters in place (the local, single-process analogue of the broker's
// cross-node merge in pkg/broker).
func (GroupByRunner) Run(spec Spec, adapters []segment.Adapter) (ResultSequence, error) {
	if spec.BySegment {
		return runBySegment(spec, adapters)
	}

	groups := map[string]*groupState{}
	order := []string{}

	for _, ad := range adapters {
		seq, err := ad.MakeCursors(spec.Filter, spec.Interval, spec.VirtualColumns, spec.Granularity, spec.Descending)
		if err != nil {
			return nil, err
		}
		if err := consumeCursors(seq, spec, groups, &order); err != nil {
			seq.Close()
			return nil, err
		}
		if err := seq.Close(); err != nil {
			return nil, err
		}
	}

	rows, err := finalizeGroups(spec, groups, order)
	if err != nil {
		return nil, err
	}
	return newSliceSequence(rows), nil
}

// finalizeGroups turns accumulated per-key group state into output rows:
// aggregator finalize (deferred for any field a post-aggregator reads raw),
// post-aggregator evaluation, having-filter, sort, and limit. Shared by the
// cross-adapter merge path and runBySegment's per-adapter path so both
// finalize identically.
func finalizeGroups(spec Spec, groups map[string]*groupState, order []string) ([]map[string]any, error) {
	postInputs := map[string]bool{}
	for _, pa := range spec.PostAggregators {
		for _, in := range pa.Inputs {
			postInputs[in] = true
		}
	}

	rows := make([]map[string]any, 0, len(order))
	for _, key := range order {
		g := groups[key]
		row := map[string]any{"timestamp": g.bucketMs}
		for i, d := range spec.Dimensions {
			row[d] = g.dimVals[i]
		}
		for i, f := range spec.Aggregators {
			raw := g.aggs[i].Get()
			if spec.SkipFinalize || postInputs[f.Name()] {
				row[f.Name()] = raw
			} else {
				row[f.Name()] = f.Finalize(raw)
			}
		}
		for _, pa := range spec.PostAggregators {
			v, err := pa.Eval(row)
			if err != nil {
				return nil, err
			}
			row[pa.Name] = v
		}
		if !spec.SkipFinalize {
			for _, f := range spec.Aggregators {
				if postInputs[f.Name()] {
					row[f.Name()] = f.Finalize(row[f.Name()])
				}
			}
		}
		if spec.Having != nil {
			ok, err := evalHaving(spec.Having, row)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		rows = append(rows, row)
	}

	sortRows(rows, spec)
	if spec.Limit > 0 && len(rows) > spec.Limit {
		rows = rows[:spec.Limit]
	}
	return rows, nil
}

func consumeCursors(seq segment.CursorSequence, spec Spec, groups map[string]*groupState, order *[]string) error {
	for {
		cur, ok, err := seq.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		for cur.Advance() {
			dimVals := make([]string, len(spec.Dimensions))
			for i, d := range spec.Dimensions {
				sel, err := cur.DimensionSelector(d)
				if err != nil {
					return err
				}
				ids := sel.Row()
				if len(ids) == 0 {
					dimVals[i] = ""
				} else {
					dimVals[i] = sel.LookupName(ids[0])
				}
			}
			key := groupKey(cur.Time(), dimVals)
			g, exists := groups[key]
			if !exists {
				g = &groupState{bucketMs: cur.Time(), dimVals: dimVals, aggs: make([]aggregation.Aggregator, len(spec.Aggregators))}
				for i, f := range spec.Aggregators {
					g.aggs[i] = f.New()
				}
				groups[key] = g
				*order = append(*order, key)
			}
			for i := range spec.Aggregators {
				if err := g.aggs[i].Aggregate(cur); err != nil {
					return err
				}
			}
		}
		if err := cur.Err(); err != nil {
			return err
		}
	}
}

func groupKey(bucketMs int64, dimVals []string) string {
	var sb strings.Builder
	sb.WriteString(strconv.FormatInt(bucketMs, 10))
	for _, v := range dimVals {
		sb.WriteByte('\x1f')
		sb.WriteString(v)
	}
	return sb.String()
}

func sortRows(rows []map[string]any, spec Spec) {
	sort.SliceStable(rows, func(i, j int) bool {
		ti, _ := rows[i]["timestamp"].(int64)
		tj, _ := rows[j]["timestamp"].(int64)
		if ti != tj {
			if spec.Descending {
				return ti > tj
			}
			return ti < tj
		}
		return false
	})
}

func evalHaving(e *expr.Expression, row map[string]any) (bool, error) {
	v, err := e.Eval(expr.NumericBinding(row))
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, chronoserr.New(chronoserr.IllegalArgument, "having expression must evaluate to bool, got %T", v)
	}
	return b, nil
}

// sliceSequence adapts an in-memory row slice to ResultSequence.
type sliceSequence struct {
	rows   []map[string]any
	pos    int
	closed bool
}

func newSliceSequence(rows []map[string]any) *sliceSequence { return &sliceSequence{rows: rows} }

func (s *sliceSequence) Next() (any, bool, error) {
	if s.closed || s.pos >= len(s.rows) {
		return nil, false, nil
	}
	row := s.rows[s.pos]
	s.pos++
	return row, true, nil
}

func (s *sliceSequence) Close() error {
	s.closed = true
	return nil
}
