// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package aggregation

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/chronoscale/chronos/pkg/chronoserr"
	"github.com/chronoscale/chronos/pkg/value"
)

// ThetaSketch is a K-Minimum-Values sketch: the K smallest distinct hashes
// seen so far, plus theta = (k+1)th smallest / maxUint64 once the sketch is
// full. No pack library implements theta sketches (DataDog/sketches-go is
// quantile-only, axiomhq/hyperloglog is HLL-only); see DESIGN.md for the
// standard-library justification of this hand-rolled KMV variant.
type ThetaSketch struct {
	K      int
	hashes []uint64 // sorted ascending, len <= K+1
	seen   map[uint64]struct{}
}

func newThetaSketch(k int) *ThetaSketch {
	return &ThetaSketch{K: k, seen: make(map[uint64]struct{}, k)}
}

func (t *ThetaSketch) offer(h uint64) {
	if _, dup := t.seen[h]; dup {
		return
	}
	if len(t.hashes) >= t.K+1 && h >= t.hashes[len(t.hashes)-1] {
		return // already larger than our retained horizon, would be evicted anyway
	}
	t.seen[h] = struct{}{}
	idx := sort.Search(len(t.hashes), func(i int) bool { return t.hashes[i] >= h })
	t.hashes = append(t.hashes, 0)
	copy(t.hashes[idx+1:], t.hashes[idx:])
	t.hashes[idx] = h
	if len(t.hashes) > t.K+1 {
		delete(t.seen, t.hashes[len(t.hashes)-1])
		t.hashes = t.hashes[:t.K+1]
	}
}

// MarshalBinary encodes K plus the sorted retained hashes; seen is dropped
// since it holds exactly the same keys as hashes and is rebuilt on
// UnmarshalBinary. hashes/seen are unexported, so this (rather than raw
// gob/reflection from outside the package) is how a caller outside
// pkg/aggregation — e.g. pkg/registry's complex-metric serde — round-trips
// a sketch, the same MarshalBinary/UnmarshalBinary shape
// axiomhq/hyperloglog's own Sketch already exposes.
func (t *ThetaSketch) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 8+8*len(t.hashes))
	binary.LittleEndian.PutUint64(buf[0:8], uint64(t.K))
	for i, h := range t.hashes {
		binary.LittleEndian.PutUint64(buf[8+8*i:16+8*i], h)
	}
	return buf, nil
}

// UnmarshalBinary is MarshalBinary's inverse.
func (t *ThetaSketch) UnmarshalBinary(data []byte) error {
	if len(data) < 8 || len(data)%8 != 0 {
		return chronoserr.New(chronoserr.ParseFailure, "theta sketch: malformed encoding, length %d", len(data))
	}
	t.K = int(binary.LittleEndian.Uint64(data[0:8]))
	n := (len(data) - 8) / 8
	t.hashes = make([]uint64, n)
	t.seen = make(map[uint64]struct{}, n)
	for i := 0; i < n; i++ {
		h := binary.LittleEndian.Uint64(data[8+8*i : 16+8*i])
		t.hashes[i] = h
		t.seen[h] = struct{}{}
	}
	return nil
}

// theta returns the sketch's inclusion threshold in [0,1]; 1.0 until the
// retained set overflows K, at which point it is the (K+1)th smallest
// normalized hash.
func (t *ThetaSketch) theta() float64 {
	if len(t.hashes) <= t.K {
		return 1.0
	}
	return float64(t.hashes[t.K]) / float64(math.MaxUint64)
}

// Estimate returns the unbiased cardinality estimate |retained <= theta| / theta.
func (t *ThetaSketch) Estimate() float64 {
	th := t.theta()
	if th == 0 {
		return 0
	}
	n := len(t.hashes)
	if n > t.K {
		n = t.K
	}
	return float64(n) / th
}

// CombineTheta merges two sketches by unioning their retained hash sets and
// re-trimming to the smaller of the two K horizons (set-union semantics per
// spec.md §4.5's sketch estimate family).
func CombineTheta(a, b *ThetaSketch) *ThetaSketch {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	k := a.K
	if b.K < k {
		k = b.K
	}
	out := newThetaSketch(k)
	for _, h := range a.hashes {
		out.offer(h)
	}
	for _, h := range b.hashes {
		out.offer(h)
	}
	return out
}

// ThetaSketchFactory builds theta-sketch aggregators for set-operation /
// estimate post-aggregators (spec.md §4.5, §9 postagg).
type ThetaSketchFactory struct {
	MetricName string
	FieldName  string
	K          int // retained-sample size, default 4096
}

func (f ThetaSketchFactory) Name() string    { return f.MetricName }
func (f ThetaSketchFactory) Fields() []string { return []string{f.FieldName} }
func (f ThetaSketchFactory) ResultType() value.Desc {
	return value.ComplexDesc(value.ComplexThetaSketch)
}
func (f ThetaSketchFactory) k() int {
	if f.K > 0 {
		return f.K
	}
	return 4096
}
func (f ThetaSketchFactory) New() Aggregator {
	return &thetaAgg{f: f, sk: newThetaSketch(f.k())}
}
func (f ThetaSketchFactory) NewBuffer() BufferAggregator { return nil } // retained set grows; on-heap only
func (f ThetaSketchFactory) MaxIntermediateSize() int    { return 8 * (f.k() + 1) }
func (f ThetaSketchFactory) Comparator() func(a, b any) int {
	return func(a, b any) int { return compareFloat64Any(thetaEstimate(a), thetaEstimate(b)) }
}
func (f ThetaSketchFactory) Combiner() Combiner     { return thetaCombiner{} }
func (f ThetaSketchFactory) Finalize(state any) any { return thetaEstimate(state) }
func (f ThetaSketchFactory) CacheKey() []byte {
	return cacheKey("thetaSketch", f.MetricName, f.FieldName)
}
func (f ThetaSketchFactory) GetMergingFactory(other Factory) (Factory, error) {
	o, ok := other.(ThetaSketchFactory)
	if !ok {
		return nil, notMergeable("thetaSketch", other.Name())
	}
	if o.k() < f.k() {
		o.K = o.k()
		return o, nil
	}
	return f, nil
}

func thetaEstimate(state any) float64 {
	t, ok := state.(*ThetaSketch)
	if !ok || t == nil {
		return 0
	}
	return t.Estimate()
}

type thetaAgg struct {
	f  ThetaSketchFactory
	sk *ThetaSketch
}

func (a *thetaAgg) Aggregate(src ColumnSource) error {
	sel, err := src.ObjectSelector(a.f.FieldName)
	if err != nil {
		return err
	}
	obj := sel.Object()
	if obj == nil {
		return nil
	}
	s, ok := obj.(string)
	if !ok {
		return chronoserr.New(chronoserr.IllegalArgument, "thetaSketch field %q is not string-valued", a.f.FieldName)
	}
	a.sk.offer(xxhash.Sum64String(s))
	return nil
}
func (a *thetaAgg) Get() any                 { return a.sk }
func (a *thetaAgg) GetFloat() (float32, bool)  { return float32(a.sk.Estimate()), true }
func (a *thetaAgg) GetLong() (int64, bool)     { return int64(a.sk.Estimate()), true }
func (a *thetaAgg) GetDouble() (float64, bool) { return a.sk.Estimate(), true }
func (a *thetaAgg) Reset()                     { a.sk = newThetaSketch(a.f.k()) }
func (a *thetaAgg) Close() error                { return nil }

type thetaCombiner struct{}

func (thetaCombiner) Combine(a, b any) any {
	as, aok := a.(*ThetaSketch)
	bs, bok := b.(*ThetaSketch)
	if !aok {
		return b
	}
	if !bok {
		return a
	}
	return CombineTheta(as, bs)
}
