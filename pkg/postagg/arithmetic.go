// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package postagg

import (
	"github.com/google/cel-go/cel"

	"github.com/chronoscale/chronos/pkg/expr"
	"github.com/chronoscale/chronos/pkg/query"
)

// Arithmetic compiles source (e.g. "clicks / impressions") against
// pkg/expr's CEL-backed expression language and evaluates it per row, the
// baseline post-aggregator spec.md §4.5 describes before the sketch/set-op/
// summary family pkg/postagg adds on top. fields are declared as dyn-typed
// identifiers since a post-aggregator's inputs are whatever aggregator or
// other post-aggregator output fields source references, not a fixed
// schema known ahead of evaluation.
func Arithmetic(name, source string, fields []string) (query.PostAggregator, error) {
	types := make(expr.TypeBinding, len(fields))
	for _, f := range fields {
		types[f] = cel.DynType
	}
	compiled, err := expr.Compile(source, types)
	if err != nil {
		return query.PostAggregator{}, err
	}
	return query.PostAggregator{
		Name: name,
		Eval: func(row map[string]any) (any, error) {
			return compiled.Eval(expr.NumericBinding(row))
		},
	}, nil
}
