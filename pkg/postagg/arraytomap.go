// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package postagg

import (
	"github.com/chronoscale/chronos/pkg/chronoserr"
	"github.com/chronoscale/chronos/pkg/query"
)

// ArrayToMap builds the "array-to-map" post-aggregator (spec.md §9): turns
// a flat array field of alternating key, value, key, value, ... entries
// into a map, for dimensions stored as a packed multi-value array (e.g. a
// flattened "tag=value" column) that a downstream consumer wants keyed.
func ArrayToMap(name, field string) query.PostAggregator {
	return query.PostAggregator{
		Name:   name,
		Inputs: []string{field},
		Eval: func(row map[string]any) (any, error) {
			arr, ok := row[field].([]any)
			if !ok {
				return nil, chronoserr.New(chronoserr.IllegalArgument, "array-to-map post-aggregator: field %q holds %T, not an array", field, row[field])
			}
			if len(arr)%2 != 0 {
				return nil, chronoserr.New(chronoserr.IllegalArgument, "array-to-map post-aggregator: field %q has odd length %d, expected key/value pairs", field, len(arr))
			}
			out := make(map[string]any, len(arr)/2)
			for i := 0; i < len(arr); i += 2 {
				key, ok := arr[i].(string)
				if !ok {
					return nil, chronoserr.New(chronoserr.IllegalArgument, "array-to-map post-aggregator: key at index %d is %T, not a string", i, arr[i])
				}
				out[key] = arr[i+1]
			}
			return out, nil
		},
	}
}
