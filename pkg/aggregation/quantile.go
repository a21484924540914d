// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package aggregation

import (
	"github.com/DataDog/sketches-go/ddsketch"
	"github.com/chronoscale/chronos/pkg/value"
)

const defaultQuantileRelativeAccuracy = 0.01

// QuantileSketchFactory builds DDSketch-backed quantile aggregators (spec.md
// §4.5's "quantiles" sketch family / §9 postagg quantile post-processor).
type QuantileSketchFactory struct {
	MetricName      string
	FieldName       string
	RelativeAccuracy float64
}

func (f QuantileSketchFactory) Name() string    { return f.MetricName }
func (f QuantileSketchFactory) Fields() []string { return []string{f.FieldName} }
func (f QuantileSketchFactory) ResultType() value.Desc {
	return value.ComplexDesc(value.ComplexQuantilesSketch)
}
func (f QuantileSketchFactory) accuracy() float64 {
	if f.RelativeAccuracy > 0 {
		return f.RelativeAccuracy
	}
	return defaultQuantileRelativeAccuracy
}
func (f QuantileSketchFactory) New() Aggregator {
	sk, _ := ddsketch.NewDefaultDDSketch(f.accuracy())
	return &quantileAgg{f: f, sk: sk}
}
func (f QuantileSketchFactory) NewBuffer() BufferAggregator { return nil } // DDSketch bucket count is variable
func (f QuantileSketchFactory) MaxIntermediateSize() int    { return 32 * 1024 }
func (f QuantileSketchFactory) Comparator() func(a, b any) int {
	return func(a, b any) int {
		am, _ := medianOf(a)
		bm, _ := medianOf(b)
		return compareFloat64Any(am, bm)
	}
}
func (f QuantileSketchFactory) Combiner() Combiner { return quantileCombiner{} }
func (f QuantileSketchFactory) Finalize(state any) any {
	return state
}
func (f QuantileSketchFactory) CacheKey() []byte {
	return cacheKey("quantilesSketch", f.MetricName, f.FieldName)
}
func (f QuantileSketchFactory) GetMergingFactory(other Factory) (Factory, error) {
	o, ok := other.(QuantileSketchFactory)
	if !ok {
		return nil, notMergeable("quantilesSketch", other.Name())
	}
	if o.accuracy() < f.accuracy() {
		return o, nil
	}
	return f, nil
}

func medianOf(state any) (float64, error) {
	sk, ok := state.(*ddsketch.DDSketch)
	if !ok || sk == nil {
		return 0, nil
	}
	return sk.GetValueAtQuantile(0.5)
}

type quantileAgg struct {
	f  QuantileSketchFactory
	sk *ddsketch.DDSketch
}

func (a *quantileAgg) Aggregate(src ColumnSource) error {
	v, ok, err := readAsDouble(src, a.f.FieldName, value.Double)
	if err != nil || !ok {
		return err
	}
	a.sk.Add(v)
	return nil
}
func (a *quantileAgg) Get() any { return a.sk }
func (a *quantileAgg) GetFloat() (float32, bool) {
	m, err := medianOf(a.sk)
	return float32(m), err == nil
}
func (a *quantileAgg) GetLong() (int64, bool) {
	m, err := medianOf(a.sk)
	return int64(m), err == nil
}
func (a *quantileAgg) GetDouble() (float64, bool) {
	m, err := medianOf(a.sk)
	return m, err == nil
}
func (a *quantileAgg) Reset() {
	sk, _ := ddsketch.NewDefaultDDSketch(a.f.accuracy())
	a.sk = sk
}
func (a *quantileAgg) Close() error { return nil }

type quantileCombiner struct{}

func (quantileCombiner) Combine(a, b any) any {
	as, aok := a.(*ddsketch.DDSketch)
	bs, bok := b.(*ddsketch.DDSketch)
	if !aok {
		return b
	}
	if !bok {
		return a
	}
	_ = as.MergeWith(bs)
	return as
}
