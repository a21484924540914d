// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

// Package bitmap implements the per-value posting list index backing filter
// compilation: an Index maps a column's dictionary ids to immutable
// Roaring bitmaps of matching row ids, and a Holder pairs a compiled
// bitmap with whether it is an exact answer or merely a candidate superset.
package bitmap

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/willf/bitset"
)

// Bitmap is the compressed posting-list representation used throughout
// filter compilation.
type Bitmap = roaring.Bitmap

func New() *Bitmap { return roaring.New() }

func FromRowIDs(ids ...uint32) *Bitmap { return roaring.BitmapOf(ids...) }

// Holder pairs a compiled bitmap with its exactness, per spec.md §4.3:
// Exact=true means Bitmap is the precise answer; Exact=false means callers
// must additionally evaluate a residual matcher over the candidate rows.
type Holder struct {
	Bitmap *Bitmap
	Exact  bool
}

func ExactHolder(b *Bitmap) Holder { return Holder{Bitmap: b, Exact: true} }

func InexactHolder(b *Bitmap) Holder { return Holder{Bitmap: b, Exact: false} }

// Index is a per-column bitmap index: value-id -> immutable bitmap of row
// ids, plus a dense presence mask over all ids that ever received a posting
// (spec.md §3: "union of bitmaps over all ids of a column equals the full
// row set; absence from any bitmap means null").
type Index struct {
	postings []*Bitmap
	present  *bitset.BitSet
	numRows  uint32
}

// NewIndex builds an empty index sized for an expected id cardinality.
func NewIndex(expectedCardinality int) *Index {
	return &Index{
		postings: make([]*Bitmap, 0, expectedCardinality),
		present:  bitset.New(uint(expectedCardinality)),
	}
}

// Add records that row rowID holds dictionary id valueID.
func (idx *Index) Add(valueID int, rowID uint32) {
	for len(idx.postings) <= valueID {
		idx.postings = append(idx.postings, New())
	}
	idx.postings[valueID].Add(rowID)
	idx.present.Set(uint(valueID))
	if rowID+1 > idx.numRows {
		idx.numRows = rowID + 1
	}
}

// Bitmap returns the posting list for valueID, or an empty bitmap if the id
// never received a posting.
func (idx *Index) Bitmap(valueID int) *Bitmap {
	if valueID < 0 || valueID >= len(idx.postings) {
		return New()
	}
	return idx.postings[valueID]
}

// HasValue reports whether valueID ever had at least one posting.
func (idx *Index) HasValue(valueID int) bool {
	return valueID >= 0 && uint(valueID) < idx.present.Len() && idx.present.Test(uint(valueID))
}

func (idx *Index) Cardinality() int { return len(idx.postings) }

func (idx *Index) NumRows() uint32 { return idx.numRows }

// Union ors the posting lists for every id in ids together.
func (idx *Index) Union(ids ...int) *Bitmap {
	out := New()
	for _, id := range ids {
		out.Or(idx.Bitmap(id))
	}
	return out
}

// All returns the full row-id bitmap [0, numRows).
func (idx *Index) All() *Bitmap {
	b := New()
	if idx.numRows == 0 {
		return b
	}
	b.AddRange(0, uint64(idx.numRows))
	return b
}

// Complement returns the rows in All() not present in b.
func (idx *Index) Complement(b *Bitmap) *Bitmap {
	out := idx.All()
	out.AndNot(b)
	return out
}
