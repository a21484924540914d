// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package value

import "math"

// CompareFloat64 implements total-order comparison for float/double kinds:
// NaNs sort last, -0 and +0 compare equal.
func CompareFloat64(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	}
	if a == 0 && b == 0 {
		return 0 // -0 == +0
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// CompareLong implements signed comparison for the long kind.
func CompareLong(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// CompareString implements natural lexicographic order with null-first
// placement: nil sorts before any non-nil string, including "".
func CompareString(a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	default:
		return 0
	}
}

// Equals implements the legacy "coerce both sides to double" equality rule
// (spec.md's documented source-level quirk): comparing across Kinds loses
// precision for int64 magnitudes beyond 2^53. Kept for expressions that must
// match historical CEL '==' semantics.
func Equals(aKind, bKind Kind, aVal, bVal any) bool {
	if aKind == String || bKind == String {
		as, aok := aVal.(string)
		bs, bok := bVal.(string)
		return aok && bok && as == bs
	}
	af, aok := toFloat64(aVal)
	bf, bok := toFloat64(bVal)
	if !aok || !bok {
		return false
	}
	return CompareFloat64(af, bf) == 0
}

// NumericallyEquals is the precision-preserving alternative: when both
// operands are integral it compares as int64, avoiding the double-coercion
// precision loss documented as an Open Question in spec.md.
func NumericallyEquals(aVal, bVal any) bool {
	ai, aIsInt := toInt64(aVal)
	bi, bIsInt := toInt64(bVal)
	if aIsInt && bIsInt {
		return ai == bi
	}
	af, aok := toFloat64(aVal)
	bf, bok := toFloat64(bVal)
	return aok && bok && CompareFloat64(af, bf) == 0
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	default:
		return 0, false
	}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
