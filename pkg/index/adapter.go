// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package index

import (
	"sort"

	"github.com/chronoscale/chronos/pkg/bitmap"
	"github.com/chronoscale/chronos/pkg/chronoserr"
	"github.com/chronoscale/chronos/pkg/dict"
	"github.com/chronoscale/chronos/pkg/filter"
	"github.com/chronoscale/chronos/pkg/segment"
	"github.com/chronoscale/chronos/pkg/value"
)

// IncrementalIndex implements filter.Context directly: it keeps no bitmap
// index between queries (rows arrive continuously), so BitmapIndex builds
// one for the requested dimension from the rows present at the time of the
// call; a column that is not a dimension has none.
func (idx *IncrementalIndex) BitmapIndex(column string) (*bitmap.Index, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	d, ok := idx.dims[column]
	if !ok {
		return nil, false
	}
	bi := bitmap.NewIndex(d.Cardinality())
	for r, ids := range idx.dimIDs {
		for _, id := range ids[column] {
			bi.Add(id, uint32(r))
		}
	}
	return bi, true
}

func (idx *IncrementalIndex) LookupID(column, val string) (int, bool) {
	idx.mu.RLock()
	d, ok := idx.dims[column]
	idx.mu.RUnlock()
	if !ok {
		return 0, false
	}
	return d.LookupID(val)
}

func (idx *IncrementalIndex) StringValuesAt(column string, rowID uint32) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	r := int(rowID)
	if r < 0 || r >= len(idx.dimIDs) {
		return nil
	}
	d, ok := idx.dims[column]
	if !ok {
		return nil
	}
	ids := idx.dimIDs[r][column]
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = d.LookupName(id)
	}
	return out
}

func (idx *IncrementalIndex) NumRows() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.timestamps)
}

var _ filter.Context = (*IncrementalIndex)(nil)
var _ segment.Adapter = (*IncrementalIndex)(nil)

// MakeCursors compiles f against this index (with bitmaps built on demand,
// see BitmapIndex above), buckets the surviving row numbers by gran, and
// returns a lazy, explicitly-closed sequence over them — the same shape
// Segment.MakeCursors produces, so query runners treat both uniformly.
func (idx *IncrementalIndex) MakeCursors(f filter.DimFilter, interval segment.TimeInterval, virtualColumns []segment.VirtualColumn, gran segment.Granularity, descending bool) (segment.CursorSequence, error) {
	idx.mu.RLock()
	n := len(idx.timestamps)
	rows := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if interval.Contains(idx.timestamps[i]) {
			rows = append(rows, i)
		}
	}
	idx.mu.RUnlock()

	var result filter.Result
	if f != nil {
		var err error
		result, err = filter.ToCNF(f).Compile(idx)
		if err != nil {
			return nil, err
		}
	} else {
		result = filter.Result{Exact: true}
	}

	buckets := map[int64][]int{}
	for _, r := range rows {
		if result.Bitmap != nil && !result.Bitmap.Contains(uint32(r)) {
			continue
		}
		if result.Residual != nil && !result.Residual(uint32(r)) {
			continue
		}
		idx.mu.RLock()
		ts := idx.timestamps[r]
		idx.mu.RUnlock()
		bucket := ts
		if gran != nil {
			bucket = gran.Truncate(ts)
		}
		buckets[bucket] = append(buckets[bucket], r)
	}

	keys := make([]int64, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if descending {
			return keys[i] > keys[j]
		}
		return keys[i] < keys[j]
	})

	vcs := map[string]segment.VirtualColumn{}
	for _, vc := range virtualColumns {
		vcs[vc.Name] = vc
	}

	return &indexCursorSequence{idx: idx, bucketKeys: keys, buckets: buckets, vcs: vcs}, nil
}

func (idx *IncrementalIndex) ColumnCapabilities(name string) (segment.ColumnCapabilities, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if _, ok := idx.dims[name]; ok {
		return segment.ColumnCapabilities{Type: value.Dimension(value.Scalar(value.String), true), HasDictionary: true}, true
	}
	for _, f := range idx.cfg.Metrics {
		if f.Name() == name {
			return segment.ColumnCapabilities{Type: f.ResultType()}, true
		}
	}
	return segment.ColumnCapabilities{}, false
}

func (idx *IncrementalIndex) ColumnType(name string) (value.Desc, bool) {
	cap, ok := idx.ColumnCapabilities(name)
	return cap.Type, ok
}

func (idx *IncrementalIndex) MinValue(column string) (string, bool) {
	idx.mu.RLock()
	d, ok := idx.dims[column]
	idx.mu.RUnlock()
	if !ok {
		return "", false
	}
	min, _, has := d.MinMax()
	return min, has
}

func (idx *IncrementalIndex) MaxValue(column string) (string, bool) {
	idx.mu.RLock()
	d, ok := idx.dims[column]
	idx.mu.RUnlock()
	if !ok {
		return "", false
	}
	_, max, has := d.MinMax()
	return max, has
}

func (idx *IncrementalIndex) DimensionCardinality(column string) int {
	idx.mu.RLock()
	d, ok := idx.dims[column]
	idx.mu.RUnlock()
	if !ok {
		return 0
	}
	return d.Cardinality()
}

type indexCursorSequence struct {
	idx        *IncrementalIndex
	bucketKeys []int64
	buckets    map[int64][]int
	vcs        map[string]segment.VirtualColumn
	pos        int
}

func (s *indexCursorSequence) Next() (segment.Cursor, bool, error) {
	if s.pos >= len(s.bucketKeys) {
		return nil, false, nil
	}
	k := s.bucketKeys[s.pos]
	s.pos++
	return &indexCursor{idx: s.idx, bucketTime: k, rows: s.buckets[k], pos: -1, vcs: s.vcs}, true, nil
}

func (s *indexCursorSequence) Close() error { return nil }

type indexCursor struct {
	idx        *IncrementalIndex
	bucketTime int64
	rows       []int
	pos        int
	vcs        map[string]segment.VirtualColumn
	err        error
}

func (c *indexCursor) Time() int64     { return c.bucketTime }
func (c *indexCursor) RowID() uint32   { return uint32(c.rows[c.pos]) }
func (c *indexCursor) Done() bool      { return c.err != nil || c.pos >= len(c.rows) }
func (c *indexCursor) Err() error      { return c.err }

func (c *indexCursor) Advance() bool {
	c.pos++
	return c.pos < len(c.rows)
}

func (c *indexCursor) currentRow() int { return c.rows[c.pos] }

func (c *indexCursor) DimensionSelector(column string) (segment.DimensionSelector, error) {
	c.idx.mu.RLock()
	d, ok := c.idx.dims[column]
	c.idx.mu.RUnlock()
	if !ok {
		return nil, chronoserr.New(chronoserr.IllegalArgument, "unknown dimension %q", column)
	}
	return indexDimSelector{idx: c.idx, dict: d, column: column, row: c.currentRow()}, nil
}

func (c *indexCursor) FloatSelector(column string) (segment.FloatSelector, error) {
	return indexMetricSelector{idx: c.idx, column: column, row: c.currentRow(), bucket: c.bucketTime, vcs: c.vcs, cur: c}, nil
}
func (c *indexCursor) LongSelector(column string) (segment.LongSelector, error) {
	return indexMetricSelector{idx: c.idx, column: column, row: c.currentRow(), bucket: c.bucketTime, vcs: c.vcs, cur: c}, nil
}
func (c *indexCursor) DoubleSelector(column string) (segment.DoubleSelector, error) {
	return indexMetricSelector{idx: c.idx, column: column, row: c.currentRow(), bucket: c.bucketTime, vcs: c.vcs, cur: c}, nil
}
func (c *indexCursor) ObjectSelector(column string) (segment.ObjectSelector, error) {
	return indexMetricSelector{idx: c.idx, column: column, row: c.currentRow(), bucket: c.bucketTime, vcs: c.vcs, cur: c}, nil
}

type indexDimSelector struct {
	idx    *IncrementalIndex
	dict   *dict.Dict
	column string
	row    int
}

func (s indexDimSelector) Row() []int {
	s.idx.mu.RLock()
	defer s.idx.mu.RUnlock()
	return s.idx.dimIDs[s.row][s.column]
}
func (s indexDimSelector) LookupName(id int) string { return s.dict.LookupName(id) }
func (s indexDimSelector) LookupID(name string) (int, bool) { return s.dict.LookupID(name) }
func (s indexDimSelector) ValueCardinality() int { return s.dict.Cardinality() }

// indexMetricSelector finds column among the index's metric factories by
// name and reads that metric's finalized value for the selector's bound
// row number; __time resolves to the owning cursor's bucket time and any
// remaining name is looked up among virtual columns.
type indexMetricSelector struct {
	idx    *IncrementalIndex
	column string
	row    int
	bucket int64
	vcs    map[string]segment.VirtualColumn
	cur    segment.Cursor
}

func (s indexMetricSelector) metricIndex() (int, bool) {
	for i, f := range s.idx.cfg.Metrics {
		if f.Name() == s.column {
			return i, true
		}
	}
	return 0, false
}

func (s indexMetricSelector) value() (any, bool) {
	if s.column == segment.ReservedTimeColumn {
		return s.bucket, true
	}
	if i, ok := s.metricIndex(); ok {
		v, err := s.idx.GetMetricValue(s.row, i)
		return v, err == nil
	}
	if vc, ok := s.vcs[s.column]; ok {
		v, err := vc.Eval(s.cur)
		return v, err == nil
	}
	return nil, false
}

func (s indexMetricSelector) Float() (float32, bool) {
	v, ok := s.value()
	if !ok {
		return 0, false
	}
	f, isOk := toFloat32(v)
	return f, isOk
}
func (s indexMetricSelector) Long() (int64, bool) {
	v, ok := s.value()
	if !ok {
		return 0, false
	}
	l, isOk := toInt64Any(v)
	return l, isOk
}
func (s indexMetricSelector) Double() (float64, bool) {
	v, ok := s.value()
	if !ok {
		return 0, false
	}
	d, isOk := toFloat64Any(v)
	return d, isOk
}
func (s indexMetricSelector) Object() any {
	v, _ := s.value()
	return v
}
func (s indexMetricSelector) Type() value.Desc {
	if i, ok := s.metricIndex(); ok {
		return s.idx.cfg.Metrics[i].ResultType()
	}
	return value.Scalar(value.Unknown)
}

func toFloat32(v any) (float32, bool) {
	switch n := v.(type) {
	case float32:
		return n, true
	case float64:
		return float32(n), true
	case int64:
		return float32(n), true
	default:
		return 0, false
	}
}

func toInt64Any(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case float32:
		return int64(n), true
	default:
		return 0, false
	}
}

func toFloat64Any(v any) (float64, bool) {
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
