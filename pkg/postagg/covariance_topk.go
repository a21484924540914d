// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package postagg

import "sort"

// CovarianceTopK is the covariance top-k post-processor spec.md §9 calls
// for: unlike the row-scoped PostAggregator family above, ranking by a
// covariance/pearson field needs every group's row at once, so it operates
// on the runner's full result slice rather than one row's Eval closure.
// field is expected to hold a CovarianceFactory- or PearsonFactory-finalized
// float64 (see pkg/aggregation's variance.go); rows missing or holding a
// non-numeric value for field sort last.
func CovarianceTopK(rows []map[string]any, field string, k int, descending bool) []map[string]any {
	ranked := make([]map[string]any, len(rows))
	copy(ranked, rows)

	sort.SliceStable(ranked, func(i, j int) bool {
		vi, oki := numeric(ranked[i][field])
		vj, okj := numeric(ranked[j][field])
		if !oki {
			return false
		}
		if !okj {
			return true
		}
		if descending {
			return vi > vj
		}
		return vi < vj
	})

	if k > 0 && k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked
}
