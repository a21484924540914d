// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package aggregation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func populationVarianceOf(xs []float64) *VarianceState {
	s := &VarianceState{}
	for _, x := range xs {
		s.addUnivariate(x)
	}
	return s
}

// TestVarianceCombinerAssociativityFixture is spec.md §8 scenario S4:
// [1,2,3,4,5,6] split into [1,2],[3,4],[5,6], combined pairwise, must finalize
// to variance 3.5. With mean 3.5 the squared deviations sum to 17.5, so the
// sample variance 17.5/(n-1) is 3.5 and the population variance 17.5/n is 35/12.
func TestVarianceCombinerAssociativityFixture(t *testing.T) {
	require := require.New(t)

	a := populationVarianceOf([]float64{1, 2})
	b := populationVarianceOf([]float64{3, 4})
	c := populationVarianceOf([]float64{5, 6})

	combined := CombineVariance(CombineVariance(a, b), c)
	require.InDelta(3.5, combined.SampleVariance(), 1e-9)
	require.InDelta(35.0/12.0, combined.PopulationVariance(), 1e-9)

	// Associativity: grouping must not matter.
	otherGrouping := CombineVariance(a, CombineVariance(b, c))
	require.InDelta(combined.PopulationVariance(), otherGrouping.PopulationVariance(), 1e-9)

	whole := populationVarianceOf([]float64{1, 2, 3, 4, 5, 6})
	require.InDelta(whole.PopulationVariance(), combined.PopulationVariance(), 1e-9)
}

// TestVarianceCombinerAssociativityProperty is spec.md §8 invariant 3:
// combine(A.over(s1), A.over(s2)) == A.over(s1++s2) for any partition of any
// value stream, generated with rapid rather than a fixed fixture.
func TestVarianceCombinerAssociativityProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		xs := rapid.SliceOfN(rapid.Float64Range(-1e6, 1e6), 2, 200).Draw(t, "xs")
		split := rapid.IntRange(1, len(xs)-1).Draw(t, "split")

		whole := populationVarianceOf(xs)
		parts := CombineVariance(populationVarianceOf(xs[:split]), populationVarianceOf(xs[split:]))

		if whole.Count != parts.Count {
			t.Fatalf("count mismatch: whole=%d parts=%d", whole.Count, parts.Count)
		}
		if !nearlyEqual(whole.PopulationVariance(), parts.PopulationVariance(), 1e-6) {
			t.Fatalf("variance mismatch for split %d of %v: whole=%v parts=%v",
				split, xs, whole.PopulationVariance(), parts.PopulationVariance())
		}
	})
}

// TestVarianceNumericStabilityAcrossPermutations is spec.md §8 invariant 7:
// variance (and kurtosis) computed by accumulating the same multiset of
// values in different orders must agree to within a 1e-9 relative error,
// i.e. Welford's algorithm is order-independent up to floating point noise.
func TestVarianceNumericStabilityAcrossPermutations(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		xs := rapid.SliceOfN(rapid.Float64Range(-1e3, 1e3), 3, 64).Draw(t, "xs")

		baseline := populationVarianceOf(xs)
		baseVar := baseline.PopulationVariance()
		baseKurt := baseline.Kurtosis()

		perm := rapid.Permutation(xs).Draw(t, "perm")
		shuffled := populationVarianceOf(perm)

		if !nearlyEqual(baseVar, shuffled.PopulationVariance(), 1e-9) {
			t.Fatalf("variance not order-independent: base=%v shuffled=%v", baseVar, shuffled.PopulationVariance())
		}
		if !math.IsNaN(baseKurt) && !nearlyEqual(baseKurt, shuffled.Kurtosis(), 1e-9) {
			t.Fatalf("kurtosis not order-independent: base=%v shuffled=%v", baseKurt, shuffled.Kurtosis())
		}
	})
}

// nearlyEqual compares a and b to within a relative tolerance, falling back
// to an absolute comparison near zero where relative error is meaningless.
func nearlyEqual(a, b, tolerance float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	diff := math.Abs(a - b)
	if diff < tolerance {
		return true
	}
	largest := math.Max(math.Abs(a), math.Abs(b))
	return diff <= largest*tolerance
}
