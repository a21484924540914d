// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package aggregation

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/chronoscale/chronos/pkg/chronoserr"
	"github.com/chronoscale/chronos/pkg/value"
)

// CountFactory counts rows; combine adds.
type CountFactory struct {
	MetricName string
}

func (f CountFactory) Name() string          { return f.MetricName }
func (f CountFactory) Fields() []string      { return nil }
func (f CountFactory) ResultType() value.Desc { return value.Scalar(value.Long) }
func (f CountFactory) New() Aggregator       { return &countAgg{} }
func (f CountFactory) NewBuffer() BufferAggregator { return countBufferAgg{} }
func (f CountFactory) MaxIntermediateSize() int    { return 8 }
func (f CountFactory) Comparator() func(a, b any) int {
	return func(a, b any) int { return compareInt64(a.(int64), b.(int64)) }
}
func (f CountFactory) Combiner() Combiner { return countCombiner{} }
func (f CountFactory) Finalize(state any) any { return state }
func (f CountFactory) CacheKey() []byte {
	return cacheKey("count", f.MetricName)
}
func (f CountFactory) GetMergingFactory(other Factory) (Factory, error) {
	if _, ok := other.(CountFactory); !ok {
		return nil, notMergeable("count", other.Name())
	}
	return f, nil
}

type countAgg struct{ n int64 }

func (a *countAgg) Aggregate(src ColumnSource) error { a.n++; return nil }
func (a *countAgg) Get() any                         { return a.n }
func (a *countAgg) GetFloat() (float32, bool)         { return float32(a.n), true }
func (a *countAgg) GetLong() (int64, bool)            { return a.n, true }
func (a *countAgg) GetDouble() (float64, bool)        { return float64(a.n), true }
func (a *countAgg) Reset()                            { a.n = 0 }
func (a *countAgg) Close() error                      { return nil }

type countBufferAgg struct{}

func (countBufferAgg) Init(buf []byte, pos int) { binary.LittleEndian.PutUint64(buf[pos:], 0) }
func (countBufferAgg) Aggregate(buf []byte, pos int, src ColumnSource) error {
	v := binary.LittleEndian.Uint64(buf[pos:])
	binary.LittleEndian.PutUint64(buf[pos:], v+1)
	return nil
}
func (countBufferAgg) Get(buf []byte, pos int) any { return int64(binary.LittleEndian.Uint64(buf[pos:])) }
func (countBufferAgg) Float(buf []byte, pos int) (float32, bool) {
	return float32(binary.LittleEndian.Uint64(buf[pos:])), true
}
func (countBufferAgg) Long(buf []byte, pos int) (int64, bool) {
	return int64(binary.LittleEndian.Uint64(buf[pos:])), true
}
func (countBufferAgg) Double(buf []byte, pos int) (float64, bool) {
	return float64(binary.LittleEndian.Uint64(buf[pos:])), true
}

type countCombiner struct{}

func (countCombiner) Combine(a, b any) any { return a.(int64) + b.(int64) }

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cacheKey(tag string, parts ...string) []byte {
	h := xxhash.New()
	h.WriteString(tag)
	for _, p := range parts {
		h.WriteString("\x00")
		h.WriteString(p)
	}
	var out [8]byte
	binary.BigEndian.PutUint64(out[:], h.Sum64())
	return out[:]
}

func notMergeable(kind, otherName string) error {
	return chronoserr.New(chronoserr.NotMergeable, "cannot merge %s aggregator with %s", kind, otherName)
}
