// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package aggregation

import (
	"github.com/chronoscale/chronos/pkg/value"
)

// RelayState carries a value tagged with the row timestamp it was observed
// at, so first/last aggregators stay correct when partial results from
// different time buckets are combined out of order (spec.md §4.5's
// documented exception: relay is the one family whose combine is not a
// commutative reduction but a strict-order tie-break on timestamp).
type RelayState struct {
	TimestampMs int64
	Value       any
	Set         bool
}

// RelayFactory builds first/last-value aggregators over FieldName, reading
// the row timestamp from the reserved "__time" column.
type RelayFactory struct {
	MetricName string
	FieldName  string
	Kind       value.Kind
	First      bool // false selects "last"
}

func (f RelayFactory) Name() string          { return f.MetricName }
func (f RelayFactory) Fields() []string       { return []string{f.FieldName} }
func (f RelayFactory) ResultType() value.Desc { return value.Scalar(f.Kind) }
func (f RelayFactory) New() Aggregator        { return &relayAgg{f: f} }
func (f RelayFactory) NewBuffer() BufferAggregator { return nil } // timestamp+value pair not worth off-heap packing
func (f RelayFactory) MaxIntermediateSize() int    { return 24 }
func (f RelayFactory) Comparator() func(a, b any) int {
	return func(a, b any) int { return compareFloat64Any(relayValue(a), relayValue(b)) }
}
func (f RelayFactory) Combiner() Combiner { return relayCombiner{first: f.First} }
func (f RelayFactory) Finalize(state any) any {
	return relayValue(state)
}
func (f RelayFactory) CacheKey() []byte {
	name := "last"
	if f.First {
		name = "first"
	}
	return cacheKey(name, f.MetricName, f.FieldName)
}
func (f RelayFactory) GetMergingFactory(other Factory) (Factory, error) {
	o, ok := other.(RelayFactory)
	if !ok || o.First != f.First {
		return nil, notMergeable("relay", other.Name())
	}
	return f, nil
}

func relayValue(state any) any {
	s, ok := state.(*RelayState)
	if !ok || s == nil || !s.Set {
		return nil
	}
	return s.Value
}

type relayAgg struct {
	f     RelayFactory
	state RelayState
}

func (a *relayAgg) Aggregate(src ColumnSource) error {
	ts, err := currentRowTime(src)
	if err != nil {
		return err
	}
	v, ok, err := readRaw(src, a.f.FieldName, a.f.Kind)
	if err != nil || !ok {
		return err
	}
	if !a.state.Set || (a.f.First && ts < a.state.TimestampMs) || (!a.f.First && ts >= a.state.TimestampMs) {
		a.state = RelayState{TimestampMs: ts, Value: v, Set: true}
	}
	return nil
}
func (a *relayAgg) Get() any { return &a.state }
func (a *relayAgg) GetFloat() (float32, bool) {
	v, ok := toF64(a.state.Value)
	return float32(v), ok
}
func (a *relayAgg) GetLong() (int64, bool) {
	v, ok := toF64(a.state.Value)
	return int64(v), ok
}
func (a *relayAgg) GetDouble() (float64, bool) {
	return toF64(a.state.Value)
}
func (a *relayAgg) Reset()      { a.state = RelayState{} }
func (a *relayAgg) Close() error { return nil }

type relayCombiner struct{ first bool }

func (c relayCombiner) Combine(a, b any) any {
	as, aok := a.(*RelayState)
	bs, bok := b.(*RelayState)
	if !aok || !as.Set {
		return b
	}
	if !bok || !bs.Set {
		return a
	}
	if c.first {
		if bs.TimestampMs < as.TimestampMs {
			return bs
		}
		return as
	}
	if bs.TimestampMs >= as.TimestampMs {
		return bs
	}
	return as
}

// currentRowTime reads the row's bucket timestamp via the reserved "__time"
// long selector every ColumnSource implementation exposes.
func currentRowTime(src ColumnSource) (int64, error) {
	sel, err := src.LongSelector("__time")
	if err != nil {
		return 0, err
	}
	v, _ := sel.Long()
	return v, nil
}

func readRaw(src ColumnSource, field string, kind value.Kind) (any, bool, error) {
	switch kind {
	case value.Long:
		sel, err := src.LongSelector(field)
		if err != nil {
			return nil, false, err
		}
		v, ok := sel.Long()
		return v, ok, nil
	case value.Float:
		sel, err := src.FloatSelector(field)
		if err != nil {
			return nil, false, err
		}
		v, ok := sel.Float()
		return v, ok, nil
	case value.Double:
		sel, err := src.DoubleSelector(field)
		if err != nil {
			return nil, false, err
		}
		v, ok := sel.Double()
		return v, ok, nil
	default:
		sel, err := src.ObjectSelector(field)
		if err != nil {
			return nil, false, err
		}
		v := sel.Object()
		return v, v != nil, nil
	}
}
