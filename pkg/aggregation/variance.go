// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package aggregation

import (
	"math"

	"github.com/chronoscale/chronos/pkg/value"
)

// VarianceState is the numerically stable two-pass online accumulator of
// spec.md §4.5: count, mean, and the second central moment m2 (Welford's
// algorithm), extended with mean_y/c2 for bivariate covariance/pearson and
// m3/m4 for kurtosis. All four metric types share this one state shape so
// their combine formulas (parallel-update / Chan-Golub-LeVeque, and Pébay's
// extension for higher moments) live in one place.
type VarianceState struct {
	Count int64
	Mean  float64
	M2    float64

	// bivariate (covariance/pearson)
	MeanY float64
	M2Y   float64 // sum of (y_i - meanY)^2, tracked alongside M2 for x
	C2    float64 // sum of (x_i - meanX)(y_i - meanY)

	// higher moments (kurtosis)
	M3, M4 float64
}

func (s *VarianceState) addUnivariate(x float64) {
	s.Count++
	delta := x - s.Mean
	deltaN := delta / float64(s.Count)
	deltaN2 := deltaN * deltaN
	term1 := delta * deltaN * float64(s.Count-1)
	s.Mean += deltaN
	s.M4 += term1*deltaN2*float64(s.Count*s.Count-3*s.Count+3) + 6*deltaN2*s.M2 - 4*deltaN*s.M3
	s.M3 += term1*deltaN*float64(s.Count-2) - 3*deltaN*s.M2
	s.M2 += term1
}

func (s *VarianceState) addBivariate(x, y float64) {
	s.Count++
	dxOld := x - s.Mean
	s.Mean += dxOld / float64(s.Count)
	dyOld := y - s.MeanY
	s.MeanY += dyOld / float64(s.Count)
	s.C2 += dxOld * (y - s.MeanY)
	s.M2 += dxOld * (x - s.Mean)
	s.M2Y += dyOld * (y - s.MeanY)
}

// CombineVariance merges two independently accumulated states using the
// Chan/Golub/LeVeque parallel-update formula, extended to m3/m4 per Pébay.
func CombineVariance(a, b *VarianceState) *VarianceState {
	if a.Count == 0 {
		return b
	}
	if b.Count == 0 {
		return a
	}
	na, nb := float64(a.Count), float64(b.Count)
	n := na + nb
	delta := b.Mean - a.Mean
	delta2 := delta * delta
	mean := a.Mean + delta*nb/n

	m2 := a.M2 + b.M2 + delta2*na*nb/n

	m3 := a.M3 + b.M3 +
		delta*delta2*na*nb*(na-nb)/(n*n) +
		3*delta*(na*b.M2-nb*a.M2)/n

	m4 := a.M4 + b.M4 +
		delta2*delta2*na*nb*(na*na-na*nb+nb*nb)/(n*n*n) +
		6*delta2*(na*na*b.M2+nb*nb*a.M2)/(n*n) +
		4*delta*(na*b.M3-nb*a.M3)/n

	deltaY := b.MeanY - a.MeanY
	meanY := a.MeanY + deltaY*nb/n
	c2 := a.C2 + b.C2 + delta*deltaY*na*nb/n
	m2y := a.M2Y + b.M2Y + deltaY*deltaY*na*nb/n

	return &VarianceState{Count: a.Count + b.Count, Mean: mean, M2: m2, MeanY: meanY, M2Y: m2y, C2: c2, M3: m3, M4: m4}
}

// PopulationVariance returns sum((x-mean)^2)/n.
func (s *VarianceState) PopulationVariance() float64 {
	if s.Count == 0 {
		return math.NaN()
	}
	return s.M2 / float64(s.Count)
}

// SampleVariance returns sum((x-mean)^2)/(n-1).
func (s *VarianceState) SampleVariance() float64 {
	if s.Count < 2 {
		return math.NaN()
	}
	return s.M2 / float64(s.Count-1)
}

func (s *VarianceState) Covariance() float64 {
	if s.Count == 0 {
		return math.NaN()
	}
	return s.C2 / float64(s.Count)
}

func (s *VarianceState) Pearson() float64 {
	if s.M2 <= 0 || s.M2Y <= 0 {
		return math.NaN()
	}
	return s.C2 / math.Sqrt(s.M2*s.M2Y)
}

// Kurtosis returns the excess kurtosis: n*m4/m2^2 - 3.
func (s *VarianceState) Kurtosis() float64 {
	if s.M2 == 0 {
		return math.NaN()
	}
	n := float64(s.Count)
	return n*s.M4/(s.M2*s.M2) - 3
}

// VarianceFactory builds variance/population-variance aggregators.
type VarianceFactory struct {
	MetricName string
	FieldName  string
	Population bool
}

func (f VarianceFactory) Name() string          { return f.MetricName }
func (f VarianceFactory) Fields() []string       { return []string{f.FieldName} }
func (f VarianceFactory) ResultType() value.Desc { return value.ComplexDesc(value.ComplexVariance) }
func (f VarianceFactory) New() Aggregator        { return &varianceAgg{f: f, state: &VarianceState{}} }
func (f VarianceFactory) NewBuffer() BufferAggregator { return nil } // variable-size-friendly but kept on-heap for simplicity; see DESIGN.md
func (f VarianceFactory) MaxIntermediateSize() int    { return 48 }
func (f VarianceFactory) Comparator() func(a, b any) int {
	return func(a, b any) int { return compareFloat64Any(finalizeVariance(f, a), finalizeVariance(f, b)) }
}
func (f VarianceFactory) Combiner() Combiner { return varianceCombiner{} }
func (f VarianceFactory) Finalize(state any) any {
	return finalizeVariance(f, state)
}
func (f VarianceFactory) CacheKey() []byte {
	return cacheKey("variance", f.MetricName, f.FieldName, boolStr(f.Population))
}
func (f VarianceFactory) GetMergingFactory(other Factory) (Factory, error) {
	o, ok := other.(VarianceFactory)
	if !ok {
		return nil, notMergeable("variance", other.Name())
	}
	return o, nil
}

func finalizeVariance(f VarianceFactory, state any) any {
	s, ok := state.(*VarianceState)
	if !ok || s == nil {
		return math.NaN()
	}
	if f.Population {
		return s.PopulationVariance()
	}
	return s.SampleVariance()
}

func boolStr(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

type varianceAgg struct {
	f     VarianceFactory
	state *VarianceState
}

func (a *varianceAgg) Aggregate(src ColumnSource) error {
	v, ok, err := readAsDouble(src, a.f.FieldName, value.Double)
	if err != nil || !ok {
		return err
	}
	a.state.addUnivariate(v)
	return nil
}
func (a *varianceAgg) Get() any                 { return a.state }
func (a *varianceAgg) GetFloat() (float32, bool)  { return float32(a.state.PopulationVariance()), a.state.Count > 0 }
func (a *varianceAgg) GetLong() (int64, bool)     { return int64(a.state.PopulationVariance()), a.state.Count > 0 }
func (a *varianceAgg) GetDouble() (float64, bool) { return a.state.PopulationVariance(), a.state.Count > 0 }
func (a *varianceAgg) Reset()                     { a.state = &VarianceState{} }
func (a *varianceAgg) Close() error                { return nil }

type varianceCombiner struct{}

func (varianceCombiner) Combine(a, b any) any {
	as, aok := a.(*VarianceState)
	bs, bok := b.(*VarianceState)
	if !aok {
		return b
	}
	if !bok {
		return a
	}
	return CombineVariance(as, bs)
}

// KurtosisFactory builds kurtosis aggregators sharing VarianceState.
type KurtosisFactory struct {
	MetricName string
	FieldName  string
}

func (f KurtosisFactory) Name() string          { return f.MetricName }
func (f KurtosisFactory) Fields() []string       { return []string{f.FieldName} }
func (f KurtosisFactory) ResultType() value.Desc { return value.ComplexDesc(value.ComplexKurtosis) }
func (f KurtosisFactory) New() Aggregator {
	return &varianceAgg{f: VarianceFactory{MetricName: f.MetricName, FieldName: f.FieldName}, state: &VarianceState{}}
}
func (f KurtosisFactory) NewBuffer() BufferAggregator { return nil }
func (f KurtosisFactory) MaxIntermediateSize() int    { return 64 }
func (f KurtosisFactory) Comparator() func(a, b any) int {
	return func(a, b any) int { return compareFloat64Any(finalizeKurtosis(a), finalizeKurtosis(b)) }
}
func (f KurtosisFactory) Combiner() Combiner     { return varianceCombiner{} }
func (f KurtosisFactory) Finalize(state any) any { return finalizeKurtosis(state) }
func (f KurtosisFactory) CacheKey() []byte       { return cacheKey("kurtosis", f.MetricName, f.FieldName) }
func (f KurtosisFactory) GetMergingFactory(other Factory) (Factory, error) {
	if _, ok := other.(KurtosisFactory); !ok {
		return nil, notMergeable("kurtosis", other.Name())
	}
	return f, nil
}

func finalizeKurtosis(state any) any {
	s, ok := state.(*VarianceState)
	if !ok || s == nil {
		return math.NaN()
	}
	return s.Kurtosis()
}

// CovarianceFactory builds covariance and Pearson-correlation aggregators
// over a pair of fields, per spec.md §4.5's bivariate family.
type CovarianceFactory struct {
	MetricName       string
	FieldX, FieldY   string
	Pearson          bool
}

func (f CovarianceFactory) Name() string    { return f.MetricName }
func (f CovarianceFactory) Fields() []string { return []string{f.FieldX, f.FieldY} }
func (f CovarianceFactory) ResultType() value.Desc {
	if f.Pearson {
		return value.ComplexDesc(value.ComplexPearson)
	}
	return value.ComplexDesc(value.ComplexCovariance)
}
func (f CovarianceFactory) New() Aggregator             { return &covarianceAgg{f: f, state: &VarianceState{}} }
func (f CovarianceFactory) NewBuffer() BufferAggregator { return nil }
func (f CovarianceFactory) MaxIntermediateSize() int    { return 56 }
func (f CovarianceFactory) Comparator() func(a, b any) int {
	return func(a, b any) int { return compareFloat64Any(finalizeCovariance(f, a), finalizeCovariance(f, b)) }
}
func (f CovarianceFactory) Combiner() Combiner     { return varianceCombiner{} }
func (f CovarianceFactory) Finalize(state any) any { return finalizeCovariance(f, state) }
func (f CovarianceFactory) CacheKey() []byte {
	return cacheKey("covariance", f.MetricName, f.FieldX, f.FieldY, boolStr(f.Pearson))
}
func (f CovarianceFactory) GetMergingFactory(other Factory) (Factory, error) {
	o, ok := other.(CovarianceFactory)
	if !ok || o.Pearson != f.Pearson {
		return nil, notMergeable("covariance", other.Name())
	}
	return o, nil
}

func finalizeCovariance(f CovarianceFactory, state any) any {
	s, ok := state.(*VarianceState)
	if !ok || s == nil {
		return math.NaN()
	}
	if f.Pearson {
		return s.Pearson()
	}
	return s.Covariance()
}

type covarianceAgg struct {
	f     CovarianceFactory
	state *VarianceState
}

func (a *covarianceAgg) Aggregate(src ColumnSource) error {
	x, okX, err := readAsDouble(src, a.f.FieldX, value.Double)
	if err != nil || !okX {
		return err
	}
	y, okY, err := readAsDouble(src, a.f.FieldY, value.Double)
	if err != nil || !okY {
		return err
	}
	a.state.addBivariate(x, y)
	return nil
}
func (a *covarianceAgg) Get() any { return a.state }
func (a *covarianceAgg) GetFloat() (float32, bool) {
	return float32(finalizeCovariance(a.f, a.state).(float64)), a.state.Count > 0
}
func (a *covarianceAgg) GetLong() (int64, bool) {
	return int64(finalizeCovariance(a.f, a.state).(float64)), a.state.Count > 0
}
func (a *covarianceAgg) GetDouble() (float64, bool) {
	return finalizeCovariance(a.f, a.state).(float64), a.state.Count > 0
}
func (a *covarianceAgg) Reset()      { a.state = &VarianceState{} }
func (a *covarianceAgg) Close() error { return nil }
