// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

// Package segment defines the uniform storage-adapter/cursor read surface
// shared by the incremental index and immutable segments (spec.md §4.4), and
// the immutable Segment implementation itself.
package segment

import (
	"github.com/chronoscale/chronos/pkg/filter"
	"github.com/chronoscale/chronos/pkg/value"
)

// ReservedTimeColumn is the column name that resolves to the current
// cursor bucket's timestamp, per spec.md §4.4.
const ReservedTimeColumn = "__time"

// TimeInterval is a half-open [Start, End) millisecond range.
type TimeInterval struct {
	StartMs, EndMs int64
}

func (iv TimeInterval) Overlaps(other TimeInterval) bool {
	return iv.StartMs < other.EndMs && other.StartMs < iv.EndMs
}

func (iv TimeInterval) Contains(ts int64) bool {
	return ts >= iv.StartMs && ts < iv.EndMs
}

// DimensionSelector exposes a row's dictionary ids for a dimension column.
type DimensionSelector interface {
	Row() []int
	LookupName(id int) string
	LookupID(name string) (int, bool)
	ValueCardinality() int
}

type FloatSelector interface{ Float() (float32, bool) }
type LongSelector interface{ Long() (int64, bool) }
type DoubleSelector interface{ Double() (float64, bool) }
type ObjectSelector interface {
	Object() any
	Type() value.Desc
}

// ColumnCapabilities describes one column's static shape.
type ColumnCapabilities struct {
	Type           value.Desc
	HasDictionary  bool
	HasBitmapIndex bool
	MultiValued    bool
}

// Cursor traverses rows within one granularity bucket, in scan order
// (ascending by default, reversed if the sequence was created descending).
type Cursor interface {
	Time() int64
	RowID() uint32
	Advance() bool
	Done() bool
	Err() error

	DimensionSelector(column string) (DimensionSelector, error)
	FloatSelector(column string) (FloatSelector, error)
	LongSelector(column string) (LongSelector, error)
	DoubleSelector(column string) (DoubleSelector, error)
	ObjectSelector(column string) (ObjectSelector, error)
}

// CursorSequence is a lazy, explicitly-closed iterator over per-bucket
// Cursors (Design Note: "lazy sequences ... explicit close").
type CursorSequence interface {
	// Next advances to the next bucket's cursor. ok is false when exhausted.
	Next() (cur Cursor, ok bool, err error)
	Close() error
}

// VirtualColumn computes a derived column's value per row from an
// expression. Name resolution is recursive: if a requested column is not a
// base column, the adapter looks it up here before failing.
type VirtualColumn struct {
	Name string
	Type value.Desc
	Eval func(cur Cursor) (any, error)
}

// Adapter is the uniform read surface spec.md §4.4 requires over both the
// incremental index and immutable segments.
type Adapter interface {
	MakeCursors(f filter.DimFilter, interval TimeInterval, virtualColumns []VirtualColumn, gran Granularity, descending bool) (CursorSequence, error)

	ColumnCapabilities(name string) (ColumnCapabilities, bool)
	ColumnType(name string) (value.Desc, bool)
	MinValue(column string) (string, bool)
	MaxValue(column string) (string, bool)
	DimensionCardinality(column string) int
	NumRows() int
	MinTime() int64
	MaxTime() int64
}
