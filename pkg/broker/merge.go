// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package broker

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/btree"

	"github.com/chronoscale/chronos/pkg/aggregation"
)

// RowKeyFn extracts the group-by key (timestamp + dimension values) a row
// carries, used to find its matching partner across nodes during merge.
type RowKeyFn func(row map[string]any) string

// DimensionsKeyFn builds the canonical RowKeyFn for a groupBy/timeseries
// query: bucket timestamp plus every dimension value, in the same order
// the runner emitted them.
func DimensionsKeyFn(dimensions []string) RowKeyFn {
	return func(row map[string]any) string {
		var sb strings.Builder
		fmt.Fprintf(&sb, "%v", row["timestamp"])
		for _, d := range dimensions {
			sb.WriteByte('\x1f')
			fmt.Fprintf(&sb, "%v", row[d])
		}
		return sb.String()
	}
}

// AggregationQueryBinaryFn builds the in-place row combiner spec.md §4.7
// names: given two partial rows sharing the same group key, it combines
// each configured aggregator's intermediate state via that aggregator's
// own Combiner, mutating and returning the left row. Non-aggregator fields
// (timestamp, dimension values) are assumed identical across a and b and
// are left as whichever a already holds.
func AggregationQueryBinaryFn(factories []aggregation.Factory) func(a, b map[string]any) map[string]any {
	return func(a, b map[string]any) map[string]any {
		for _, f := range factories {
			name := f.Name()
			av, aok := a[name]
			bv, bok := b[name]
			switch {
			case aok && bok:
				a[name] = f.Combiner().Combine(av, bv)
			case bok:
				a[name] = bv
			}
		}
		return a
	}
}

// mergeEntry is one group's accumulated row, ordered by key in the btree
// so Ascend visits groups in a stable, deterministic order
// regardless of which node's row arrived first — the same google/btree
// Item pattern history_reader_v3.go uses for its storageItem ordering.
type mergeEntry struct {
	key string
	row map[string]any
}

func (e *mergeEntry) Less(than btree.Item) bool {
	return e.key < than.(*mergeEntry).key
}

// btreeDegree matches history_reader_v3.go's own btree.New(16) call.
const btreeDegree = 16

// MergeSequences drains every source sequence into a key-ordered btree,
// combining rows that share a key via combine, and returns the merged
// rows as a single in-memory slice. The btree (rather than a plain map)
// gives peers' results a stable merge order without a separate sort pass
// over potentially millions of groups, and is the bounded multi-way merge
// structure spec.md's Design Note calls for.
func MergeSequences(sources []sequenceLike, keyFn RowKeyFn, combine func(a, b map[string]any) map[string]any) ([]map[string]any, error) {
	tr := btree.New(btreeDegree)

	for _, src := range sources {
		for {
			raw, ok, err := src.Next()
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			row, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			key := keyFn(row)
			probe := &mergeEntry{key: key}
			if found := tr.Get(probe); found != nil {
				existing := found.(*mergeEntry)
				existing.row = combine(existing.row, row)
			} else {
				tr.ReplaceOrInsert(&mergeEntry{key: key, row: row})
			}
		}
	}

	out := make([]map[string]any, 0, tr.Len())
	tr.Ascend(func(i btree.Item) bool {
		out = append(out, i.(*mergeEntry).row)
		return true
	})
	return out, nil
}

// sequenceLike is the minimal Next() shape MergeSequences needs;
// satisfied structurally by both *rowStream and pkg/query.ResultSequence,
// so this package never imports pkg/query just for the interface name.
type sequenceLike interface {
	Next() (any, bool, error)
}

// sortByTimestamp orders merged rows the same way pkg/query's runner does,
// for callers that bypass ScatterGatherRunner and merge rows directly.
func sortByTimestamp(rows []map[string]any, descending bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		ti := numericTimestamp(rows[i]["timestamp"])
		tj := numericTimestamp(rows[j]["timestamp"])
		if descending {
			return ti > tj
		}
		return ti < tj
	})
}

func numericTimestamp(v any) float64 {
	switch t := v.(type) {
	case int64:
		return float64(t)
	case float64:
		return t
	default:
		return 0
	}
}
