// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package postagg

import (
	"github.com/chronoscale/chronos/pkg/chronoserr"
	"github.com/chronoscale/chronos/pkg/query"
)

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// Predict builds the "predict" post-aggregator (spec.md §9): a single-step
// linear extrapolation, valueField + rateField*steps, of an already-
// computed value and per-bucket rate of change (e.g. a difference
// arithmetic post-aggregator across two adjacent buckets). It is
// deliberately not a regression: anything requiring a fitted model belongs
// upstream, outside the query engine.
func Predict(name, valueField, rateField string, steps float64) query.PostAggregator {
	return query.PostAggregator{
		Name: name,
		Eval: func(row map[string]any) (any, error) {
			v, ok := numeric(row[valueField])
			if !ok {
				return nil, chronoserr.New(chronoserr.IllegalArgument, "predict post-aggregator: field %q holds %T, not numeric", valueField, row[valueField])
			}
			r, ok := numeric(row[rateField])
			if !ok {
				return nil, chronoserr.New(chronoserr.IllegalArgument, "predict post-aggregator: field %q holds %T, not numeric", rateField, row[rateField])
			}
			return v + r*steps, nil
		},
	}
}
