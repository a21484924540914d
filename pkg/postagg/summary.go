// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package postagg

import (
	"github.com/chronoscale/chronos/pkg/aggregation"
	"github.com/chronoscale/chronos/pkg/chronoserr"
	"github.com/chronoscale/chronos/pkg/query"
)

// ThetaSummary is the "summary" post-aggregator's output shape: a
// human-readable snapshot of a theta sketch, for debugging query plans
// without exposing the sketch's retained hash set.
type ThetaSummary struct {
	Estimate float64
	K        int
}

// Summary builds the "summary" post-aggregator (spec.md §9): a diagnostic
// view of a theta-sketch-typed field, not meant to be combined further.
func Summary(name, field string) query.PostAggregator {
	return query.PostAggregator{
		Name:   name,
		Inputs: []string{field},
		Eval: func(row map[string]any) (any, error) {
			sk, ok := row[field].(*aggregation.ThetaSketch)
			if !ok || sk == nil {
				return nil, chronoserr.New(chronoserr.IllegalArgument, "summary post-aggregator: field %q holds %T, not a theta sketch", field, row[field])
			}
			return ThetaSummary{Estimate: sk.Estimate(), K: sk.K}, nil
		},
	}
}
