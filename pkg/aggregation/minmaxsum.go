// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package aggregation

import (
	"encoding/binary"
	"math"

	"github.com/chronoscale/chronos/pkg/value"
)

// Op selects the reduction a SumMinMaxFactory performs.
type Op uint8

const (
	OpSum Op = iota
	OpMin
	OpMax
)

func (op Op) String() string {
	switch op {
	case OpSum:
		return "sum"
	case OpMin:
		return "min"
	case OpMax:
		return "max"
	default:
		return "?"
	}
}

// SumMinMaxFactory implements the generic (type-erased) and typed
// long/double/float sum/min/max families: trivial combine, null inputs
// skipped for min/max (sum treats null as 0 by reading 0 from a missing
// selector).
type SumMinMaxFactory struct {
	MetricName string
	FieldName  string
	Kind       value.Kind // Long, Double, or Float
	Op         Op
}

func (f SumMinMaxFactory) Name() string            { return f.MetricName }
func (f SumMinMaxFactory) Fields() []string         { return []string{f.FieldName} }
func (f SumMinMaxFactory) ResultType() value.Desc   { return value.Scalar(f.Kind) }
func (f SumMinMaxFactory) MaxIntermediateSize() int { return 8 }

func (f SumMinMaxFactory) New() Aggregator {
	return &sumMinMaxAgg{f: f, hasValue: false}
}

func (f SumMinMaxFactory) NewBuffer() BufferAggregator { return sumMinMaxBufferAgg{f: f} }

func (f SumMinMaxFactory) Comparator() func(a, b any) int {
	return func(a, b any) int { return compareFloat64Any(a, b) }
}

func (f SumMinMaxFactory) Combiner() Combiner { return sumMinMaxCombiner{op: f.Op} }

func (f SumMinMaxFactory) Finalize(state any) any { return state }

func (f SumMinMaxFactory) CacheKey() []byte {
	return cacheKey("summinmax", f.MetricName, f.FieldName, f.Kind.String(), f.Op.String())
}

func (f SumMinMaxFactory) GetMergingFactory(other Factory) (Factory, error) {
	o, ok := other.(SumMinMaxFactory)
	if !ok || o.Op != f.Op {
		return nil, notMergeable(f.Op.String(), other.Name())
	}
	return f, nil
}

type sumMinMaxAgg struct {
	f        SumMinMaxFactory
	val      float64
	hasValue bool
}

func (a *sumMinMaxAgg) Aggregate(src ColumnSource) error {
	v, ok, err := readAsDouble(src, a.f.FieldName, a.f.Kind)
	if err != nil {
		return err
	}
	if !ok {
		if a.f.Op == OpSum {
			return nil // null treated as identity for sum
		}
		return nil // min/max skip null inputs
	}
	switch {
	case !a.hasValue:
		a.val = v
	case a.f.Op == OpSum:
		a.val += v
	case a.f.Op == OpMin:
		a.val = math.Min(a.val, v)
	case a.f.Op == OpMax:
		a.val = math.Max(a.val, v)
	}
	a.hasValue = true
	return nil
}

func (a *sumMinMaxAgg) Get() any {
	switch a.f.Kind {
	case value.Long:
		return int64(a.val)
	case value.Float:
		return float32(a.val)
	default:
		return a.val
	}
}
func (a *sumMinMaxAgg) GetFloat() (float32, bool)  { return float32(a.val), a.hasValue }
func (a *sumMinMaxAgg) GetLong() (int64, bool)     { return int64(a.val), a.hasValue }
func (a *sumMinMaxAgg) GetDouble() (float64, bool) { return a.val, a.hasValue }
func (a *sumMinMaxAgg) Reset()                     { a.val, a.hasValue = 0, false }
func (a *sumMinMaxAgg) Close() error                { return nil }

func readAsDouble(src ColumnSource, field string, kind value.Kind) (float64, bool, error) {
	switch kind {
	case value.Long:
		sel, err := src.LongSelector(field)
		if err != nil {
			return 0, false, err
		}
		v, ok := sel.Long()
		return float64(v), ok, nil
	case value.Float:
		sel, err := src.FloatSelector(field)
		if err != nil {
			return 0, false, err
		}
		v, ok := sel.Float()
		return float64(v), ok, nil
	default:
		sel, err := src.DoubleSelector(field)
		if err != nil {
			return 0, false, err
		}
		v, ok := sel.Double()
		return v, ok, nil
	}
}

type sumMinMaxBufferAgg struct{ f SumMinMaxFactory }

func (b sumMinMaxBufferAgg) Init(buf []byte, pos int) {
	init := 0.0
	if b.f.Op == OpMin {
		init = math.Inf(1)
	} else if b.f.Op == OpMax {
		init = math.Inf(-1)
	}
	binary.LittleEndian.PutUint64(buf[pos:], math.Float64bits(init))
}

func (b sumMinMaxBufferAgg) Aggregate(buf []byte, pos int, src ColumnSource) error {
	v, ok, err := readAsDouble(src, b.f.FieldName, b.f.Kind)
	if err != nil || !ok {
		return err
	}
	cur := math.Float64frombits(binary.LittleEndian.Uint64(buf[pos:]))
	var next float64
	switch b.f.Op {
	case OpSum:
		next = cur + v
	case OpMin:
		next = math.Min(cur, v)
	default:
		next = math.Max(cur, v)
	}
	binary.LittleEndian.PutUint64(buf[pos:], math.Float64bits(next))
	return nil
}

func (b sumMinMaxBufferAgg) Get(buf []byte, pos int) any {
	v := math.Float64frombits(binary.LittleEndian.Uint64(buf[pos:]))
	switch b.f.Kind {
	case value.Long:
		return int64(v)
	case value.Float:
		return float32(v)
	default:
		return v
	}
}
func (b sumMinMaxBufferAgg) Float(buf []byte, pos int) (float32, bool) {
	return float32(math.Float64frombits(binary.LittleEndian.Uint64(buf[pos:]))), true
}
func (b sumMinMaxBufferAgg) Long(buf []byte, pos int) (int64, bool) {
	return int64(math.Float64frombits(binary.LittleEndian.Uint64(buf[pos:]))), true
}
func (b sumMinMaxBufferAgg) Double(buf []byte, pos int) (float64, bool) {
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[pos:])), true
}

type sumMinMaxCombiner struct{ op Op }

func (c sumMinMaxCombiner) Combine(a, b any) any {
	af, aok := toF64(a)
	bf, bok := toF64(b)
	if !aok {
		return b
	}
	if !bok {
		return a
	}
	switch c.op {
	case OpSum:
		return wrapLike(a, af+bf)
	case OpMin:
		return wrapLike(a, math.Min(af, bf))
	default:
		return wrapLike(a, math.Max(af, bf))
	}
}

func toF64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func wrapLike(example any, v float64) any {
	switch example.(type) {
	case int64:
		return int64(v)
	case float32:
		return float32(v)
	default:
		return v
	}
}

func compareFloat64Any(a, b any) int {
	af, _ := toF64(a)
	bf, _ := toF64(b)
	switch {
	case af < bf:
		return -1
	case af > bf:
		return 1
	default:
		return 0
	}
}
