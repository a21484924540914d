// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package postagg

import (
	"github.com/chronoscale/chronos/pkg/aggregation"
	"github.com/chronoscale/chronos/pkg/chronoserr"
	"github.com/chronoscale/chronos/pkg/query"
)

// SetOp is a theta-sketch set operation (spec.md §9 "set-op" post-
// aggregator family).
type SetOp string

const (
	SetUnion     SetOp = "UNION"
	SetIntersect SetOp = "INTERSECT"
	SetNot       SetOp = "NOT"
)

// SetOpEstimate builds the "set-op" post-aggregator: combines two or more
// theta-sketch-typed fields under op and returns the resulting cardinality
// estimate. Only ThetaSketch exposes the exported CombineTheta (union); it
// deliberately keeps its retained-hash internals unexported, so intersect
// and not are computed via inclusion-exclusion over each input's own
// Estimate() plus the union's Estimate() rather than a true hash-set
// intersection — the same approximation trick Estimate-only sketch APIs
// force on any caller outside the aggregation package itself.
func SetOpEstimate(name string, op SetOp, fields []string) query.PostAggregator {
	return query.PostAggregator{
		Name:   name,
		Inputs: append([]string(nil), fields...),
		Eval: func(row map[string]any) (any, error) {
			sketches := make([]*aggregation.ThetaSketch, len(fields))
			for i, f := range fields {
				sk, ok := row[f].(*aggregation.ThetaSketch)
				if !ok || sk == nil {
					return nil, chronoserr.New(chronoserr.IllegalArgument, "set-op post-aggregator: field %q holds %T, not a theta sketch", f, row[f])
				}
				sketches[i] = sk
			}
			switch op {
			case SetUnion:
				return unionEstimate(sketches), nil
			case SetIntersect:
				return intersectEstimate(sketches), nil
			case SetNot:
				if len(sketches) < 2 {
					return nil, chronoserr.New(chronoserr.IllegalArgument, "set-op NOT needs at least 2 fields, got %d", len(sketches))
				}
				return notEstimate(sketches[0], sketches[1:]), nil
			default:
				return nil, chronoserr.New(chronoserr.IllegalArgument, "unknown set-op %q", op)
			}
		},
	}
}

func unionEstimate(sketches []*aggregation.ThetaSketch) float64 {
	return union(sketches).Estimate()
}

func union(sketches []*aggregation.ThetaSketch) *aggregation.ThetaSketch {
	var out *aggregation.ThetaSketch
	for _, sk := range sketches {
		out = aggregation.CombineTheta(out, sk)
	}
	return out
}

// intersectEstimate applies inclusion-exclusion pairwise: |A∩B| ≈
// |A|+|B|-|A∪B|, folded left to right across more than two sketches. This
// is the textbook approximation when only Estimate() (not the raw retained
// set) is available for each operand.
func intersectEstimate(sketches []*aggregation.ThetaSketch) float64 {
	if len(sketches) == 0 {
		return 0
	}
	acc := sketches[0]
	accEstimate := acc.Estimate()
	for _, sk := range sketches[1:] {
		u := aggregation.CombineTheta(acc, sk)
		accEstimate = accEstimate + sk.Estimate() - u.Estimate()
		if accEstimate < 0 {
			accEstimate = 0
		}
		acc = u
	}
	return accEstimate
}

// notEstimate approximates |a - (b1 ∪ b2 ∪ ...)| as |a| - |a ∩ union(b)|.
func notEstimate(a *aggregation.ThetaSketch, bs []*aggregation.ThetaSketch) float64 {
	b := union(bs)
	ab := intersectEstimate([]*aggregation.ThetaSketch{a, b})
	out := a.Estimate() - ab
	if out < 0 {
		return 0
	}
	return out
}
