// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package index

import (
	"github.com/c2h5oh/datasize"
	"github.com/edsrzf/mmap-go"

	"github.com/chronoscale/chronos/pkg/aggregation"
	"github.com/chronoscale/chronos/pkg/chronoserr"
)

// Slab is a fixed-stride, anonymously mmap'd byte arena for off-heap
// BufferAggregator state: one cell per (row, metric) pair, sized to the
// widest MaxIntermediateSize among the index's metrics. Grounded on
// edsrzf/mmap-go for the backing allocation and c2h5oh/datasize for the
// human-readable capacity knob (spec.md §4.2 "slab of direct byte buffers
// sliced into fixed-size cells").
type Slab struct {
	mem      mmap.MMap
	cellSize int
	capacity int // number of cells
	used     int
}

// NewSlab reserves an anonymous mapping sized for capacity cells of
// cellSize bytes each, bounded by maxBytes (0 means unbounded).
func NewSlab(cellSize, capacity int, maxBytes datasize.ByteSize) (*Slab, error) {
	total := cellSize * capacity
	if maxBytes > 0 && uint64(total) > uint64(maxBytes) {
		return nil, chronoserr.New(chronoserr.ResourceExhausted, "slab request %d bytes exceeds limit %s", total, maxBytes)
	}
	mem, err := mmap.MapRegion(nil, total, mmap.RDWR, mmap.ANON, 0)
	if err != nil {
		return nil, chronoserr.Wrap(chronoserr.Internal, err)
	}
	return &Slab{mem: mem, cellSize: cellSize, capacity: capacity}, nil
}

// Alloc reserves and zero-initializes the next free cell for fac, returning
// its byte offset. Fails with ResourceExhausted once every cell is used.
func (s *Slab) Alloc(fac aggregation.BufferAggregator) (int, error) {
	if s.used >= s.capacity {
		return 0, chronoserr.New(chronoserr.ResourceExhausted, "aggregator slab exhausted (%d cells)", s.capacity)
	}
	pos := s.used * s.cellSize
	s.used++
	for i := pos; i < pos+s.cellSize; i++ {
		s.mem[i] = 0
	}
	fac.Init(s.mem, pos)
	return pos, nil
}

// Aggregate applies fac's update at the cell starting at pos.
func (s *Slab) Aggregate(fac aggregation.BufferAggregator, pos int, src aggregation.ColumnSource) error {
	return fac.Aggregate(s.mem, pos, src)
}

// Get reads the current state at pos through fac.
func (s *Slab) Get(fac aggregation.BufferAggregator, pos int) any { return fac.Get(s.mem, pos) }

// Close releases the backing mapping.
func (s *Slab) Close() error {
	return s.mem.Unmap()
}
