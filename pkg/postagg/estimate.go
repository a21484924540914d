// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package postagg

import (
	"github.com/axiomhq/hyperloglog"
	"github.com/chronoscale/chronos/pkg/aggregation"
	"github.com/chronoscale/chronos/pkg/chronoserr"
	"github.com/chronoscale/chronos/pkg/query"
)

// sketchEstimate reads whichever sketch type a field holds in its raw
// (un-finalized) form and returns its cardinality estimate, so Estimate
// works uniformly whether the field is theta- or hyperUnique-typed.
func sketchEstimate(state any) (float64, error) {
	switch s := state.(type) {
	case *aggregation.ThetaSketch:
		return s.Estimate(), nil
	case *hyperloglog.Sketch:
		return float64(s.Estimate()), nil
	case float64:
		// already finalized elsewhere (e.g. broker re-running the same
		// post-aggregator on a previously-merged row); pass through.
		return s, nil
	default:
		return 0, chronoserr.New(chronoserr.IllegalArgument, "estimate post-aggregator: field holds %T, not a sketch", state)
	}
}

// Estimate builds the "estimate" post-aggregator (spec.md §9): the
// cardinality estimate of a theta- or hyperUnique-typed aggregator field.
func Estimate(name, field string) query.PostAggregator {
	return query.PostAggregator{
		Name:   name,
		Inputs: []string{field},
		Eval: func(row map[string]any) (any, error) {
			return sketchEstimate(row[field])
		},
	}
}
