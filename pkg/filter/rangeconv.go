// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package filter

import "sort"

// StringRange is a closed/open range on a string dimension: [Lower, Upper)
// with configurable open/closed ends, matching the shape the SQL planner's
// BETWEEN/comparison rewrite rules would hand to the filter compiler.
type StringRange struct {
	Column                   string
	Lower, Upper             *string
	LowerStrict, UpperStrict bool
}

// RangesToFilter emits the narrowest equivalent filter for a list of ranges
// on the same column: equal single-point ranges collapse into one `in`
// filter; everything else becomes an `or` of `bound` filters (spec.md §4.3
// "Range-of-strings conversion").
func RangesToFilter(column string, ranges []StringRange) DimFilter {
	if len(ranges) == 0 {
		return None{}
	}
	var points []string
	var rest []StringRange
	for _, r := range ranges {
		if isPointRange(r) {
			points = append(points, *r.Lower)
		} else {
			rest = append(rest, r)
		}
	}
	var clauses []DimFilter
	if len(points) > 0 {
		sort.Strings(points)
		in, _ := NewIn(column, points...)
		clauses = append(clauses, in)
	}
	for _, r := range rest {
		clauses = append(clauses, Bound{
			Column:      column,
			Lower:       r.Lower,
			Upper:       r.Upper,
			LowerStrict: r.LowerStrict,
			UpperStrict: r.UpperStrict,
		})
	}
	if len(clauses) == 1 {
		return clauses[0]
	}
	return Or{Children: clauses}.Optimize()
}

func isPointRange(r StringRange) bool {
	return r.Lower != nil && r.Upper != nil && *r.Lower == *r.Upper && !r.LowerStrict && !r.UpperStrict
}
