// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package segment

import (
	"github.com/chronoscale/chronos/pkg/bitmap"
	"github.com/chronoscale/chronos/pkg/dict"
	"github.com/chronoscale/chronos/pkg/value"
)

// Builder assembles an immutable Segment column-by-column, typically fed by
// the incremental index at persist time (the handoff described in spec.md
// §3's IncrementalIndex lifetime).
type Builder struct {
	handle     Handle
	numRows    int
	timestamps []int64
	dims       map[string]*DimensionColumn
	metrics    map[string]*NumericColumn
	objects    map[string]*ObjectColumn
}

func NewBuilder(handle Handle) *Builder {
	return &Builder{
		handle:  handle,
		dims:    map[string]*DimensionColumn{},
		metrics: map[string]*NumericColumn{},
		objects: map[string]*ObjectColumn{},
	}
}

// AddRow appends one row's data. dimIDs maps dimension column name to its
// (already dictionary-resolved) sorted id list for this row.
func (b *Builder) AddRow(ts int64, dimIDs map[string][]int, dimNames map[string]*dict.Dict, floats map[string]float32, longs map[string]int64, doubles map[string]float64, objects map[string]any) int {
	row := b.numRows
	b.timestamps = append(b.timestamps, ts)
	for col, ids := range dimIDs {
		d, ok := b.dims[col]
		if !ok {
			d = &DimensionColumn{Dict: dimNames[col]}
			b.dims[col] = d
		}
		for len(d.Values) < row {
			d.Values = append(d.Values, nil)
		}
		d.Values = append(d.Values, ids)
	}
	for col, v := range floats {
		m := b.ensureMetric(col, value.Float)
		for len(m.Floats) < row {
			m.Floats = append(m.Floats, 0)
		}
		m.Floats = append(m.Floats, v)
	}
	for col, v := range longs {
		m := b.ensureMetric(col, value.Long)
		for len(m.Longs) < row {
			m.Longs = append(m.Longs, 0)
		}
		m.Longs = append(m.Longs, v)
	}
	for col, v := range doubles {
		m := b.ensureMetric(col, value.Double)
		for len(m.Doubles) < row {
			m.Doubles = append(m.Doubles, 0)
		}
		m.Doubles = append(m.Doubles, v)
	}
	for col, v := range objects {
		o, ok := b.objects[col]
		if !ok {
			o = &ObjectColumn{}
			b.objects[col] = o
		}
		for len(o.Values) < row {
			o.Values = append(o.Values, nil)
		}
		o.Values = append(o.Values, v)
	}
	b.numRows++
	return row
}

func (b *Builder) ensureMetric(col string, kind value.Kind) *NumericColumn {
	m, ok := b.metrics[col]
	if !ok {
		m = &NumericColumn{Kind: kind}
		b.metrics[col] = m
	}
	return m
}

// SetObjectType records the ValueDesc for a complex/object column; callers
// should set this once before Build if the column holds typed complex
// values (sketches, histograms).
func (b *Builder) SetObjectType(col string, desc value.Desc) {
	o, ok := b.objects[col]
	if !ok {
		o = &ObjectColumn{}
		b.objects[col] = o
	}
	o.Desc = desc
}

// Build finalizes the segment, constructing bitmap indexes over every
// dimension column: for each row, every id it carries gets a posting.
func (b *Builder) Build() *Segment {
	for _, d := range b.dims {
		for len(d.Values) < b.numRows {
			d.Values = append(d.Values, nil)
		}
		card := 0
		if d.Dict != nil {
			card = d.Dict.Cardinality()
		}
		idx := bitmap.NewIndex(card)
		for row, ids := range d.Values {
			for _, id := range ids {
				idx.Add(id, uint32(row))
			}
		}
		d.BIndex = idx
	}
	for _, m := range b.metrics {
		switch m.Kind {
		case value.Float:
			for len(m.Floats) < b.numRows {
				m.Floats = append(m.Floats, 0)
			}
		case value.Long:
			for len(m.Longs) < b.numRows {
				m.Longs = append(m.Longs, 0)
			}
		case value.Double:
			for len(m.Doubles) < b.numRows {
				m.Doubles = append(m.Doubles, 0)
			}
		}
	}
	for _, o := range b.objects {
		for len(o.Values) < b.numRows {
			o.Values = append(o.Values, nil)
		}
	}
	return &Segment{
		handle:     b.handle,
		numRows:    b.numRows,
		timestamps: b.timestamps,
		dims:       b.dims,
		metrics:    b.metrics,
		objects:    b.objects,
	}
}
