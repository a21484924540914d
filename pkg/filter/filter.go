// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

// Package filter implements the DimFilter algebra: selector/in/bound/regex/
// not/and/or/expression/spatial/none/all filters compile to a (bitmap,
// residual) pair against a FilterContext, per spec.md §4.3.
package filter

import (
	"regexp"
	"sort"

	"github.com/chronoscale/chronos/pkg/bitmap"
)

// Context supplies the per-column bitmap and row-value access a Filter needs
// to compile itself. Implemented by the storage adapter (pkg/segment).
type Context interface {
	BitmapIndex(column string) (*bitmap.Index, bool)
	LookupID(column, val string) (int, bool)
	// StringValuesAt returns the (possibly multi-valued) string values column
	// holds at rowID, for residual (non-exact) re-evaluation.
	StringValuesAt(column string, rowID uint32) []string
	// NumRows matches segment.Adapter's NumRows so a single storage adapter
	// implements both interfaces with one method.
	NumRows() int
}

// Matcher is a residual row predicate evaluated when a compiled bitmap is
// not exact (Holder.Exact == false).
type Matcher func(rowID uint32) bool

func alwaysTrue(uint32) bool  { return true }
func alwaysFalse(uint32) bool { return false }

// Result is what compiling a Filter produces: a candidate bitmap plus,
// unless Exact, a residual Matcher that must additionally hold.
type Result struct {
	Bitmap   *bitmap.Bitmap
	Exact    bool
	Residual Matcher
}

// Matches reports whether rowID satisfies the compiled filter: it must be a
// member of Bitmap, and if the result is inexact, also satisfy Residual.
func (r Result) Matches(rowID uint32) bool {
	if r.Bitmap != nil && !r.Bitmap.Contains(rowID) {
		return false
	}
	if !r.Exact && r.Residual != nil {
		return r.Residual(rowID)
	}
	return true
}

// DimFilter is a compiled predicate over a column-oriented row set.
type DimFilter interface {
	Compile(ctx Context) (Result, error)
	// Optimize returns a simplified, semantically equivalent filter;
	// implementations that have nothing to simplify return themselves.
	Optimize() DimFilter
}

// Selector matches rows whose column holds exactly Value.
type Selector struct {
	Column string
	Value  string
}

func (s Selector) Compile(ctx Context) (Result, error) {
	idx, ok := ctx.BitmapIndex(s.Column)
	if !ok {
		return Result{Bitmap: bitmap.New(), Exact: true}, nil
	}
	id, found := ctx.LookupID(s.Column, s.Value)
	if !found {
		return Result{Bitmap: bitmap.New(), Exact: true}, nil
	}
	return Result{Bitmap: idx.Bitmap(id), Exact: true}, nil
}

func (s Selector) Optimize() DimFilter { return s }

// In matches rows whose column holds any of Values. Construction with zero
// values is invalid, per spec.md §8's boundary behavior.
type In struct {
	Column string
	Values []string
}

func NewIn(column string, values ...string) (*In, error) {
	if len(values) == 0 {
		return nil, errZeroArgIn
	}
	return &In{Column: column, Values: values}, nil
}

func (f *In) Compile(ctx Context) (Result, error) {
	idx, ok := ctx.BitmapIndex(f.Column)
	if !ok {
		return Result{Bitmap: bitmap.New(), Exact: true}, nil
	}
	out := bitmap.New()
	for _, v := range f.Values {
		if id, found := ctx.LookupID(f.Column, v); found {
			out.Or(idx.Bitmap(id))
		}
	}
	return Result{Bitmap: out, Exact: true}, nil
}

func (f *In) Optimize() DimFilter {
	if len(f.Values) == 1 {
		return Selector{Column: f.Column, Value: f.Values[0]}
	}
	uniq := make(map[string]struct{}, len(f.Values))
	dedup := make([]string, 0, len(f.Values))
	for _, v := range f.Values {
		if _, seen := uniq[v]; !seen {
			uniq[v] = struct{}{}
			dedup = append(dedup, v)
		}
	}
	sort.Strings(dedup)
	return &In{Column: f.Column, Values: dedup}
}

// Bound matches rows whose column value falls in [Lower, Upper] with
// configurable open/closed ends; Numeric switches to numeric-aware ordering.
type Bound struct {
	Column                       string
	Lower, Upper                 *string
	LowerStrict, UpperStrict     bool
	Numeric                      bool
}

func (b Bound) Compile(ctx Context) (Result, error) {
	idx, ok := ctx.BitmapIndex(b.Column)
	if !ok {
		return Result{Bitmap: bitmap.New(), Exact: true}, nil
	}
	// Without reverse id->value iteration in Context, Bound is conservatively
	// compiled as non-exact over the column's full posting union, deferring
	// the real comparison to the residual matcher evaluated against row
	// values directly.
	out := idx.All()
	lo, hi := b.Lower, b.Upper
	residual := func(rowID uint32) bool {
		vals := ctx.StringValuesAt(b.Column, rowID)
		for _, v := range vals {
			if boundContains(v, lo, b.LowerStrict, hi, b.UpperStrict, b.Numeric) {
				return true
			}
		}
		return false
	}
	return Result{Bitmap: out, Exact: false, Residual: residual}, nil
}

func (b Bound) Optimize() DimFilter { return b }

func boundContains(v string, lo *string, loStrict bool, hi *string, hiStrict bool, numeric bool) bool {
	cmp := compareBoundValues(numeric)
	if lo != nil {
		c := cmp(v, *lo)
		if loStrict && c <= 0 {
			return false
		}
		if !loStrict && c < 0 {
			return false
		}
	}
	if hi != nil {
		c := cmp(v, *hi)
		if hiStrict && c >= 0 {
			return false
		}
		if !hiStrict && c > 0 {
			return false
		}
	}
	return true
}

func compareBoundValues(numeric bool) func(a, b string) int {
	if !numeric {
		return func(a, b string) int {
			switch {
			case a < b:
				return -1
			case a > b:
				return 1
			default:
				return 0
			}
		}
	}
	return func(a, b string) int {
		af, aerr := parseFloatLenient(a)
		bf, berr := parseFloatLenient(b)
		if aerr != nil || berr != nil {
			if a == b {
				return 0
			}
			if a < b {
				return -1
			}
			return 1
		}
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
}

// Regex matches rows whose column value matches Pattern.
type Regex struct {
	Column  string
	Pattern string
	re      *regexp.Regexp
}

func NewRegex(column, pattern string) (*Regex, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &Regex{Column: column, Pattern: pattern, re: re}, nil
}

func (f *Regex) Compile(ctx Context) (Result, error) {
	residual := func(rowID uint32) bool {
		for _, v := range ctx.StringValuesAt(f.Column, rowID) {
			if f.re.MatchString(v) {
				return true
			}
		}
		return false
	}
	return Result{Bitmap: idxAllOrEmpty(ctx, f.Column), Exact: false, Residual: residual}, nil
}

func (f *Regex) Optimize() DimFilter { return f }

func idxAllOrEmpty(ctx Context, column string) *bitmap.Bitmap {
	idx, ok := ctx.BitmapIndex(column)
	if !ok {
		b := bitmap.New()
		if ctx.NumRows() > 0 {
			b.AddRange(0, uint64(ctx.NumRows()))
		}
		return b
	}
	return idx.All()
}

// Not complements its child within the base row set.
type Not struct {
	Child DimFilter
}

func (f Not) Compile(ctx Context) (Result, error) {
	inner, err := f.Child.Compile(ctx)
	if err != nil {
		return Result{}, err
	}
	all := fullRowSet(ctx)
	complement := bitmap.New()
	complement.Or(all)
	complement.AndNot(inner.Bitmap)
	if inner.Exact {
		return Result{Bitmap: complement, Exact: true}, nil
	}
	// An inexact child's bitmap is only a candidate superset, so every row
	// stays a candidate and the complement is taken row by row.
	return Result{
		Bitmap: all,
		Exact:  false,
		Residual: func(rowID uint32) bool {
			return !inner.Matches(rowID)
		},
	}, nil
}

func (f Not) Optimize() DimFilter {
	child := f.Child.Optimize()
	if inner, ok := child.(Not); ok {
		return inner.Child.Optimize()
	}
	return Not{Child: child}
}

func fullRowSet(ctx Context) *bitmap.Bitmap {
	b := bitmap.New()
	if n := ctx.NumRows(); n > 0 {
		b.AddRange(0, uint64(n))
	}
	return b
}

// And intersects its children's bitmaps (spec.md §4.3: "null ones skipped")
// and ANDs their non-exact residuals.
type And struct {
	Children []DimFilter
}

func (f And) Compile(ctx Context) (Result, error) {
	if len(f.Children) == 0 {
		return Result{Bitmap: fullRowSet(ctx), Exact: true}, nil
	}
	var out *bitmap.Bitmap
	exact := true
	var residuals []Matcher
	for _, c := range f.Children {
		r, err := c.Compile(ctx)
		if err != nil {
			return Result{}, err
		}
		if r.Bitmap == nil {
			continue
		}
		if out == nil {
			out = r.Bitmap.Clone()
		} else {
			out.And(r.Bitmap)
		}
		if !r.Exact {
			exact = false
			residuals = append(residuals, r.Residual)
		}
	}
	if out == nil {
		out = fullRowSet(ctx)
	}
	if exact {
		return Result{Bitmap: out, Exact: true}, nil
	}
	return Result{Bitmap: out, Exact: false, Residual: andResiduals(residuals)}, nil
}

func andResiduals(ms []Matcher) Matcher {
	return func(rowID uint32) bool {
		for _, m := range ms {
			if m != nil && !m(rowID) {
				return false
			}
		}
		return true
	}
}

func (f And) Optimize() DimFilter {
	var flat []DimFilter
	for _, c := range f.Children {
		oc := c.Optimize()
		if inner, ok := oc.(And); ok {
			flat = append(flat, inner.Children...)
			continue
		}
		if _, ok := oc.(All); ok {
			continue
		}
		if _, ok := oc.(None); ok {
			return None{}
		}
		flat = append(flat, oc)
	}
	if len(flat) == 0 {
		return All{}
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return And{Children: flat}
}

// Or unions its children's bitmaps; if any child cannot produce an exact
// bitmap, the whole Or degrades to a residual matcher over the base set
// (spec.md §4.3).
type Or struct {
	Children []DimFilter
}

func (f Or) Compile(ctx Context) (Result, error) {
	if len(f.Children) == 0 {
		return Result{Bitmap: bitmap.New(), Exact: true}, nil
	}
	out := bitmap.New()
	anyInexact := false
	var results []Result
	for _, c := range f.Children {
		r, err := c.Compile(ctx)
		if err != nil {
			return Result{}, err
		}
		results = append(results, r)
		if r.Bitmap != nil {
			out.Or(r.Bitmap)
		}
		if !r.Exact {
			anyInexact = true
		}
	}
	if !anyInexact {
		return Result{Bitmap: out, Exact: true}, nil
	}
	base := fullRowSet(ctx)
	return Result{
		Bitmap: base,
		Exact:  false,
		Residual: func(rowID uint32) bool {
			for _, r := range results {
				if r.Matches(rowID) {
					return true
				}
			}
			return false
		},
	}, nil
}

func (f Or) Optimize() DimFilter {
	var flat []DimFilter
	for _, c := range f.Children {
		oc := c.Optimize()
		if inner, ok := oc.(Or); ok {
			flat = append(flat, inner.Children...)
			continue
		}
		if _, ok := oc.(None); ok {
			continue
		}
		if _, ok := oc.(All); ok {
			return All{}
		}
		flat = append(flat, oc)
	}
	if len(flat) == 0 {
		return None{}
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return Or{Children: flat}
}

// Expression evaluates Eval per row; never exact, always residual.
type Expression struct {
	Eval func(rowID uint32, ctx Context) bool
}

func (f Expression) Compile(ctx Context) (Result, error) {
	return Result{
		Bitmap: fullRowSet(ctx),
		Exact:  false,
		Residual: func(rowID uint32) bool {
			return f.Eval(rowID, ctx)
		},
	}, nil
}

func (f Expression) Optimize() DimFilter { return f }

// Spatial matches rows whose geometry column satisfies a WKT/GeoJSON
// relation; the relation itself is supplied by the caller (pkg/expr's
// geospatial builtins back the actual predicate).
type Spatial struct {
	Column string
	Op     func(geomWKT string) bool
}

func (f Spatial) Compile(ctx Context) (Result, error) {
	return Result{
		Bitmap: fullRowSet(ctx),
		Exact:  false,
		Residual: func(rowID uint32) bool {
			for _, v := range ctx.StringValuesAt(f.Column, rowID) {
				if f.Op(v) {
					return true
				}
			}
			return false
		},
	}, nil
}

func (f Spatial) Optimize() DimFilter { return f }

// None matches no rows.
type None struct{}

func (None) Compile(ctx Context) (Result, error) { return Result{Bitmap: bitmap.New(), Exact: true}, nil }
func (None) Optimize() DimFilter                  { return None{} }

// All matches every row.
type All struct{}

func (All) Compile(ctx Context) (Result, error) { return Result{Bitmap: fullRowSet(ctx), Exact: true}, nil }
func (All) Optimize() DimFilter                  { return All{} }
