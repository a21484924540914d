// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package query

import "github.com/chronoscale/chronos/pkg/segment"

// BySegmentResult is one adapter's own finalized result set, returned
// unmerged when Spec.BySegment is set. SegmentIndex is the adapter's
// position in the Spec-resolved adapter list (pkg/segment.Adapter carries
// no identifier of its own; the broker layer, which does track segment
// identity per node, attaches the real segment id alongside this when it
// fans a bySegment query out across historicals).
type BySegmentResult struct {
	SegmentIndex int
	Interval     segment.TimeInterval
	Results      []map[string]any
}

// runBySegment finalizes each adapter's groups independently instead of
// merging same-key groups across adapters — spec.md §9's "bySegment
// pass-through", which exists so a caller (typically a broker debugging a
// query, or a caller that wants to re-merge with its own combine logic) can
// see each segment's own partial result set rather than an
// already-combined total.
func runBySegment(spec Spec, adapters []segment.Adapter) (ResultSequence, error) {
	out := make([]map[string]any, 0, len(adapters))

	for i, ad := range adapters {
		groups := map[string]*groupState{}
		order := []string{}

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

		rows, err := finalizeGroups(spec, groups, order)
		if err != nil {
			return nil, err
		}

		out = append(out, map[string]any{
			"segment": BySegmentResult{
				SegmentIndex: i,
				Interval:     spec.Interval,
				Results:      rows,
			},
		})
	}

	return newSliceSequence(out), nil
}
