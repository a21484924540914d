// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

// Package index implements the append-only IncrementalIndex that accepts
// rows in arrival order, assigns dimension dictionary ids, and maintains
// per-group aggregator state until the data is persisted into an immutable
// segment (spec.md §4.2).
package index

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/chronoscale/chronos/pkg/aggregation"
	"github.com/chronoscale/chronos/pkg/chronoserr"
	"github.com/chronoscale/chronos/pkg/dict"
	"github.com/chronoscale/chronos/pkg/row"
	"github.com/chronoscale/chronos/pkg/segment"
	"github.com/chronoscale/chronos/pkg/value"
)

// Config controls one IncrementalIndex's capacity and rollup behavior.
type Config struct {
	Dimensions   []string
	Metrics      []aggregation.Factory
	Granularity  segment.Granularity
	MaxRowCount  int  // 0 means unbounded
	RollupEnabled bool
	DictCacheSize int
}

// IncrementalIndex is the single-writer, many-reader facts buffer of
// spec.md §4.2. Dictionaries and aggregator state are exclusively owned by
// the index; readers borrow selectors bound to a row number for the
// duration of a scan.
type IncrementalIndex struct {
	cfg Config

	mu sync.RWMutex

	dims map[string]*dict.Dict

	// rowKey maps the rollup key to a row number when RollupEnabled.
	rowKey map[string]int

	timestamps []int64 // truncated bucket time per row
	dimIDs     []map[string][]int
	aggs       [][]aggregation.Aggregator

	ingestedRows   int
	minTimeMs      int64
	maxTimeMs      int64
	maxEventTimeMs int64
	hasRows        bool
}

// New builds an empty IncrementalIndex for cfg.
func New(cfg Config) *IncrementalIndex {
	dims := make(map[string]*dict.Dict, len(cfg.Dimensions))
	for _, d := range cfg.Dimensions {
		dims[d] = dict.New(cfg.DictCacheSize)
	}
	return &IncrementalIndex{
		cfg:    cfg,
		dims:   dims,
		rowKey: map[string]int{},
	}
}

// Add resolves dimension ids for r, rolls up into an existing group when
// RollupEnabled and the (bucket, dim-vector) key already exists, and
// invokes every configured aggregator against r's fields. It returns the
// row number the event landed in.
func (idx *IncrementalIndex) Add(r row.Row) (int, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	bucket := r.Time().UnixMilli()
	if idx.cfg.Granularity != nil {
		bucket = idx.cfg.Granularity.Truncate(bucket)
	}

	dimIDs := make(map[string][]int, len(idx.cfg.Dimensions))
	for _, d := range idx.cfg.Dimensions {
		vals := r.Strings(d)
		ids := make([]int, 0, len(vals))
		for _, v := range vals {
			id, _ := idx.dims[d].IDOf(v)
			ids = append(ids, id)
		}
		sort.Ints(ids)
		dimIDs[d] = ids
	}

	key := rollupKey(bucket, idx.cfg.Dimensions, dimIDs)

	if idx.cfg.RollupEnabled {
		if rowNum, ok := idx.rowKey[key]; ok {
			src := &rowColumnSource{r: r}
			for _, a := range idx.aggs[rowNum] {
				if err := a.Aggregate(src); err != nil {
					return 0, err
				}
			}
			idx.updateTimeBounds(bucket, r.Time().UnixMilli())
			return rowNum, nil
		}
	}

	if idx.cfg.MaxRowCount > 0 && len(idx.timestamps) >= idx.cfg.MaxRowCount {
		return 0, chronoserr.New(chronoserr.ResourceExhausted, "incremental index at capacity (maxRowCount=%d)", idx.cfg.MaxRowCount)
	}

	rowNum := len(idx.timestamps)
	idx.timestamps = append(idx.timestamps, bucket)
	idx.dimIDs = append(idx.dimIDs, dimIDs)

	aggs := make([]aggregation.Aggregator, len(idx.cfg.Metrics))
	src := &rowColumnSource{r: r}
	for i, f := range idx.cfg.Metrics {
		a := f.New()
		if err := a.Aggregate(src); err != nil {
			return 0, err
		}
		aggs[i] = a
	}
	idx.aggs = append(idx.aggs, aggs)

	if idx.cfg.RollupEnabled {
		idx.rowKey[key] = rowNum
	}

	idx.ingestedRows++
	idx.updateTimeBounds(bucket, r.Time().UnixMilli())
	return rowNum, nil
}

func (idx *IncrementalIndex) updateTimeBounds(bucket, eventMs int64) {
	if !idx.hasRows {
		idx.minTimeMs, idx.maxTimeMs, idx.maxEventTimeMs = bucket, bucket, eventMs
		idx.hasRows = true
		return
	}
	if bucket < idx.minTimeMs {
		idx.minTimeMs = bucket
	}
	if bucket > idx.maxTimeMs {
		idx.maxTimeMs = bucket
	}
	if eventMs > idx.maxEventTimeMs {
		idx.maxEventTimeMs = eventMs
	}
}

func rollupKey(bucket int64, dimNames []string, dimIDs map[string][]int) string {
	var sb strings.Builder
	sb.WriteString(strconv.FormatInt(bucket, 10))
	for _, d := range dimNames {
		sb.WriteByte('|')
		sb.WriteString(d)
		sb.WriteByte('=')
		for _, id := range dimIDs[d] {
			sb.WriteString(strconv.Itoa(id))
			sb.WriteByte(',')
		}
	}
	return sb.String()
}

// Size returns the number of distinct row slots (post-rollup).
func (idx *IncrementalIndex) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.timestamps)
}

// IngestedRows returns the total number of Add calls that produced a new
// row (rolled-up updates to an existing row are not counted again).
func (idx *IncrementalIndex) IngestedRows() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.ingestedRows
}

func (idx *IncrementalIndex) MinTime() int64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.minTimeMs
}

func (idx *IncrementalIndex) MaxTime() int64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.maxTimeMs
}

// MaxIngestedEventTime returns the latest raw (untruncated) event
// timestamp observed, used by ingestion specs to detect late data.
func (idx *IncrementalIndex) MaxIngestedEventTime() int64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.maxEventTimeMs
}

// GetMetricValue returns the finalized value of metric index m for rowNum.
func (idx *IncrementalIndex) GetMetricValue(rowNum, m int) (any, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if rowNum < 0 || rowNum >= len(idx.aggs) {
		return nil, chronoserr.New(chronoserr.IllegalArgument, "row number %d out of range", rowNum)
	}
	if m < 0 || m >= len(idx.aggs[rowNum]) {
		return nil, chronoserr.New(chronoserr.IllegalArgument, "metric index %d out of range", m)
	}
	return idx.cfg.Metrics[m].Finalize(idx.aggs[rowNum][m].Get()), nil
}

// GetRangeOf returns, in ascending (or descending) bucket-time order, every
// row number whose bucket timestamp lies in [startMs, endMs).
func (idx *IncrementalIndex) GetRangeOf(startMs, endMs int64, descending bool) []int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	var out []int
	for i, ts := range idx.timestamps {
		if ts >= startMs && ts < endMs {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if descending {
			return idx.timestamps[out[i]] > idx.timestamps[out[j]]
		}
		return idx.timestamps[out[i]] < idx.timestamps[out[j]]
	})
	return out
}

// rowColumnSource adapts a row.Row to aggregation.ColumnSource at ingest
// time, grounded on history_reader_v3.go's pattern of a thin, reusable
// point-in-time reader bound fresh to each call site.
type rowColumnSource struct{ r row.Row }

func (s *rowColumnSource) FloatSelector(column string) (segment.FloatSelector, error) {
	return rowFloatSelector{s.r, column}, nil
}
func (s *rowColumnSource) LongSelector(column string) (segment.LongSelector, error) {
	return rowLongSelector{s.r, column}, nil
}
func (s *rowColumnSource) DoubleSelector(column string) (segment.DoubleSelector, error) {
	return rowDoubleSelector{s.r, column}, nil
}
func (s *rowColumnSource) ObjectSelector(column string) (segment.ObjectSelector, error) {
	return rowObjectSelector{s.r, column}, nil
}

type rowFloatSelector struct {
	r      row.Row
	column string
}

func (s rowFloatSelector) Float() (float32, bool) {
	if s.column == "__time" {
		return float32(s.r.Time().UnixMilli()), true
	}
	v, err := s.r.Float(s.column)
	return v, err == nil
}

type rowLongSelector struct {
	r      row.Row
	column string
}

func (s rowLongSelector) Long() (int64, bool) {
	if s.column == "__time" {
		return s.r.Time().UnixMilli(), true
	}
	v, err := s.r.Long(s.column)
	return v, err == nil
}

type rowDoubleSelector struct {
	r      row.Row
	column string
}

func (s rowDoubleSelector) Double() (float64, bool) {
	if s.column == "__time" {
		return float64(s.r.Time().UnixMilli()), true
	}
	v, err := s.r.Double(s.column)
	return v, err == nil
}

type rowObjectSelector struct {
	r      row.Row
	column string
}

func (s rowObjectSelector) Object() any {
	return s.r.Raw(s.column)
}
func (s rowObjectSelector) Type() value.Desc { return value.Scalar(value.String) }

var _ fmt.Stringer = (*IncrementalIndex)(nil)

// String renders a compact diagnostic summary, matching the teacher's
// HistoryReaderV3.String() one-liner shape.
func (idx *IncrementalIndex) String() string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return fmt.Sprintf("rows:%d ingested:%d minTime:%d maxTime:%d", len(idx.timestamps), idx.ingestedRows, idx.minTimeMs, idx.maxTimeMs)
}
