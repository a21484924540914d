// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package aggregation

import (
	"math"

	"github.com/chronoscale/chronos/pkg/value"
)

// ApproxHistogram is an equi-width online histogram over [Lower, Upper] with
// a fixed bucket Resolution; values outside the clamp range are counted in
// the first or last bucket (spec.md §4.5 "approximate histogram").
type ApproxHistogram struct {
	Lower, Upper float64
	Resolution   int
	Buckets      []float64 // counts per bucket
	Min, Max     float64
	Count        int64
	missing      bool
}

func newApproxHistogram(lower, upper float64, resolution int) *ApproxHistogram {
	return &ApproxHistogram{
		Lower:      lower,
		Upper:      upper,
		Resolution: resolution,
		Buckets:    make([]float64, resolution),
		Min:        math.Inf(1),
		Max:        math.Inf(-1),
		missing:    true,
	}
}

func (h *ApproxHistogram) offer(v float64) {
	h.Count++
	if h.missing || v < h.Min {
		h.Min = v
	}
	if h.missing || v > h.Max {
		h.Max = v
	}
	h.missing = false
	width := (h.Upper - h.Lower) / float64(h.Resolution)
	if width <= 0 {
		return
	}
	idx := int((v - h.Lower) / width)
	if idx < 0 {
		idx = 0
	}
	if idx >= h.Resolution {
		idx = h.Resolution - 1
	}
	h.Buckets[idx]++
}

// CombineHistogram folds b's bucket counts into a rebucketed copy spanning
// the union of both ranges at the widened resolution (GetMergingFactory's
// "resolution=max, lower=min, upper=max" rule, spec.md §4.5).
func CombineHistogram(a, b *ApproxHistogram) *ApproxHistogram {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	lower := math.Min(a.Lower, b.Lower)
	upper := math.Max(a.Upper, b.Upper)
	resolution := a.Resolution
	if b.Resolution > resolution {
		resolution = b.Resolution
	}
	out := newApproxHistogram(lower, upper, resolution)
	for _, h := range []*ApproxHistogram{a, b} {
		width := (h.Upper - h.Lower) / float64(h.Resolution)
		for i, c := range h.Buckets {
			if c == 0 {
				continue
			}
			mid := h.Lower + width*(float64(i)+0.5)
			out.Count += int64(c)
			outWidth := (out.Upper - out.Lower) / float64(out.Resolution)
			idx := 0
			if outWidth > 0 {
				idx = int((mid - out.Lower) / outWidth)
				if idx < 0 {
					idx = 0
				}
				if idx >= out.Resolution {
					idx = out.Resolution - 1
				}
			}
			out.Buckets[idx] += c
		}
		if !h.missing {
			if h.Min < out.Min {
				out.Min = h.Min
			}
			if h.Max > out.Max {
				out.Max = h.Max
			}
			out.missing = false
		}
	}
	return out
}

// HistogramFactory builds approximate-histogram aggregators.
type HistogramFactory struct {
	MetricName            string
	FieldName             string
	Resolution            int
	LowerLimit, UpperLimit float64
}

func (f HistogramFactory) Name() string    { return f.MetricName }
func (f HistogramFactory) Fields() []string { return []string{f.FieldName} }
func (f HistogramFactory) ResultType() value.Desc {
	return value.ComplexDesc(value.ComplexApproxHistogram)
}
func (f HistogramFactory) New() Aggregator {
	return &histogramAgg{f: f, h: newApproxHistogram(f.LowerLimit, f.UpperLimit, f.Resolution)}
}
func (f HistogramFactory) NewBuffer() BufferAggregator { return nil } // variable bucket count; on-heap only
func (f HistogramFactory) MaxIntermediateSize() int    { return 8*f.Resolution + 48 }
func (f HistogramFactory) Comparator() func(a, b any) int {
	return func(a, b any) int { return compareInt64(a.(*ApproxHistogram).Count, b.(*ApproxHistogram).Count) }
}
func (f HistogramFactory) Combiner() Combiner     { return histogramCombiner{} }
func (f HistogramFactory) Finalize(state any) any { return state }
func (f HistogramFactory) CacheKey() []byte {
	return cacheKey("histogram", f.MetricName, f.FieldName)
}

// GetMergingFactory widens resolution/lower/upper per spec.md §4.5: resolution
// takes the max of the two, lower the min, upper the max.
func (f HistogramFactory) GetMergingFactory(other Factory) (Factory, error) {
	o, ok := other.(HistogramFactory)
	if !ok {
		return nil, notMergeable("histogram", other.Name())
	}
	merged := f
	if o.Resolution > merged.Resolution {
		merged.Resolution = o.Resolution
	}
	if o.LowerLimit < merged.LowerLimit {
		merged.LowerLimit = o.LowerLimit
	}
	if o.UpperLimit > merged.UpperLimit {
		merged.UpperLimit = o.UpperLimit
	}
	return merged, nil
}

type histogramAgg struct {
	f HistogramFactory
	h *ApproxHistogram
}

func (a *histogramAgg) Aggregate(src ColumnSource) error {
	v, ok, err := readAsDouble(src, a.f.FieldName, value.Double)
	if err != nil || !ok {
		return err
	}
	a.h.offer(v)
	return nil
}
func (a *histogramAgg) Get() any { return a.h }
func (a *histogramAgg) GetFloat() (float32, bool) {
	return float32(a.h.Count), a.h.Count > 0
}
func (a *histogramAgg) GetLong() (int64, bool)     { return a.h.Count, a.h.Count > 0 }
func (a *histogramAgg) GetDouble() (float64, bool) { return float64(a.h.Count), a.h.Count > 0 }
func (a *histogramAgg) Reset() {
	a.h = newApproxHistogram(a.f.LowerLimit, a.f.UpperLimit, a.f.Resolution)
}
func (a *histogramAgg) Close() error { return nil }

type histogramCombiner struct{}

func (histogramCombiner) Combine(a, b any) any {
	ah, aok := a.(*ApproxHistogram)
	bh, bok := b.(*ApproxHistogram)
	if !aok {
		return b
	}
	if !bok {
		return a
	}
	return CombineHistogram(ah, bh)
}
