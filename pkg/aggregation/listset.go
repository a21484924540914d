// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package aggregation

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/chronoscale/chronos/pkg/chronoserr"
	"github.com/chronoscale/chronos/pkg/value"
)

// SetFactory builds distinct-string-collecting aggregators (spec.md §4.5's
// "list"/"set" families, and the dimArray variant that reads a multi-valued
// dimension's current string values). Backed by deckarep/golang-set/v2,
// which the rest of the pack (kelindar-column manifest) already depends on
// for set-valued columns.
type SetFactory struct {
	MetricName string
	FieldName  string
	Distinct   bool // false keeps duplicates (a "list" rather than a "set")
	MaxSize    int  // 0 means unbounded
}

func (f SetFactory) Name() string    { return f.MetricName }
func (f SetFactory) Fields() []string { return []string{f.FieldName} }
func (f SetFactory) ResultType() value.Desc {
	return value.ArrayOf(value.Scalar(value.String))
}
func (f SetFactory) New() Aggregator {
	return &setAgg{f: f, seen: mapset.NewThreadUnsafeSet[string]()}
}
func (f SetFactory) NewBuffer() BufferAggregator { return nil } // unbounded membership set
func (f SetFactory) MaxIntermediateSize() int {
	if f.MaxSize > 0 {
		return f.MaxSize * 32
	}
	return 64 * 1024
}
func (f SetFactory) Comparator() func(a, b any) int {
	return func(a, b any) int {
		as, _ := a.(*setState)
		bs, _ := b.(*setState)
		al, bl := 0, 0
		if as != nil {
			al = len(as.values)
		}
		if bs != nil {
			bl = len(bs.values)
		}
		return compareInt64(int64(al), int64(bl))
	}
}
func (f SetFactory) Combiner() Combiner { return setCombiner{f: f} }
func (f SetFactory) Finalize(state any) any {
	s, ok := state.(*setState)
	if !ok || s == nil {
		return []string{}
	}
	return s.values
}
func (f SetFactory) CacheKey() []byte {
	return cacheKey("set", f.MetricName, f.FieldName, boolStr(f.Distinct))
}
func (f SetFactory) GetMergingFactory(other Factory) (Factory, error) {
	o, ok := other.(SetFactory)
	if !ok || o.Distinct != f.Distinct {
		return nil, notMergeable("set", other.Name())
	}
	return f, nil
}

// setState is the finalized view materialized from the working set; its
// values are sorted only when the factory is Distinct.
type setState struct {
	values []string
}

type setAgg struct {
	f    SetFactory
	seen mapset.Set[string]
	list []string
}

func (a *setAgg) Aggregate(src ColumnSource) error {
	sel, err := src.ObjectSelector(a.f.FieldName)
	if err != nil {
		return err
	}
	obj := sel.Object()
	if obj == nil {
		return nil
	}
	var vals []string
	switch v := obj.(type) {
	case string:
		vals = []string{v}
	case []string:
		vals = v
	default:
		return chronoserr.New(chronoserr.IllegalArgument, "set field %q is not string-valued", a.f.FieldName)
	}
	for _, v := range vals {
		if a.f.Distinct {
			if a.seen.Contains(v) {
				continue
			}
			a.seen.Add(v)
		}
		if a.f.MaxSize > 0 && len(a.list) >= a.f.MaxSize {
			continue
		}
		a.list = append(a.list, v)
	}
	return nil
}
func (a *setAgg) snapshot() *setState {
	out := make([]string, len(a.list))
	copy(out, a.list)
	if a.f.Distinct {
		sort.Strings(out)
	}
	return &setState{values: out}
}
func (a *setAgg) Get() any                 { return a.snapshot() }
func (a *setAgg) GetFloat() (float32, bool)  { return float32(len(a.list)), true }
func (a *setAgg) GetLong() (int64, bool)     { return int64(len(a.list)), true }
func (a *setAgg) GetDouble() (float64, bool) { return float64(len(a.list)), true }
func (a *setAgg) Reset() {
	a.seen = mapset.NewThreadUnsafeSet[string]()
	a.list = nil
}
func (a *setAgg) Close() error { return nil }

type setCombiner struct{ f SetFactory }

func (c setCombiner) Combine(a, b any) any {
	as, aok := a.(*setState)
	bs, bok := b.(*setState)
	if !aok {
		return b
	}
	if !bok {
		return a
	}
	if !c.f.Distinct {
		merged := append(append([]string{}, as.values...), bs.values...)
		if c.f.MaxSize > 0 && len(merged) > c.f.MaxSize {
			merged = merged[:c.f.MaxSize]
		}
		return &setState{values: merged}
	}
	seen := mapset.NewThreadUnsafeSet[string]()
	var merged []string
	for _, vs := range [][]string{as.values, bs.values} {
		for _, v := range vs {
			if seen.Contains(v) {
				continue
			}
			seen.Add(v)
			if c.f.MaxSize > 0 && len(merged) >= c.f.MaxSize {
				continue
			}
			merged = append(merged, v)
		}
	}
	sort.Strings(merged)
	return &setState{values: merged}
}
