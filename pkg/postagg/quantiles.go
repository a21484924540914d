// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package postagg

import (
	"strconv"

	"github.com/DataDog/sketches-go/ddsketch"
	"github.com/chronoscale/chronos/pkg/chronoserr"
	"github.com/chronoscale/chronos/pkg/query"
)

func sketchOf(state any) (*ddsketch.DDSketch, error) {
	sk, ok := state.(*ddsketch.DDSketch)
	if !ok || sk == nil {
		return nil, chronoserr.New(chronoserr.IllegalArgument, "quantiles post-aggregator: field holds %T, not a quantiles sketch", state)
	}
	return sk, nil
}

// Quantile builds a single-value "quantiles" post-aggregator (spec.md §9):
// the value at probability p (in [0,1]) of a quantiles-sketch-typed field.
func Quantile(name, field string, p float64) query.PostAggregator {
	return query.PostAggregator{
		Name:   name,
		Inputs: []string{field},
		Eval: func(row map[string]any) (any, error) {
			sk, err := sketchOf(row[field])
			if err != nil {
				return nil, err
			}
			return sk.GetValueAtQuantile(p)
		},
	}
}

// Quantiles builds the multi-value form, returning the value at every
// requested probability keyed by its string form (e.g. "0.5", "0.99").
func Quantiles(name, field string, probabilities []float64) query.PostAggregator {
	return query.PostAggregator{
		Name:   name,
		Inputs: []string{field},
		Eval: func(row map[string]any) (any, error) {
			sk, err := sketchOf(row[field])
			if err != nil {
				return nil, err
			}
			out := make(map[string]float64, len(probabilities))
			for _, p := range probabilities {
				v, err := sk.GetValueAtQuantile(p)
				if err != nil {
					return nil, chronoserr.Wrap(chronoserr.Internal, err)
				}
				out[formatProbability(p)] = v
			}
			return out, nil
		},
	}
}

func formatProbability(p float64) string {
	return strconv.FormatFloat(p, 'g', -1, 64)
}
