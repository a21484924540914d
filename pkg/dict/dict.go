// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

// Package dict implements the per-column bidirectional dictionary used by
// both the incremental index and immutable segments: values are assigned
// dense integer ids in first-seen order, ids are stable for the life of the
// containing structure, and min/max are tracked incrementally.
package dict

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Dict is an append-only bidirectional string<->id map. Safe for
// single-writer/many-reader use: Lookup* methods take a read lock, IDOf takes
// a write lock, and readers observe a stable snapshot for the duration of
// any single call (spec.md §5 "stable view within a single query").
type Dict struct {
	mu        sync.RWMutex
	idOf      map[string]int
	valueOf   []string
	min, max  string
	hasValues bool

	// reverse is a bounded LRU used only as an acceleration cache for very
	// high-cardinality dimensions; idOf remains the source of truth.
	reverse *lru.Cache[string, int]
}

// New builds an empty dictionary. cacheSize bounds the optional reverse
// lookup accelerator cache (0 disables it).
func New(cacheSize int) *Dict {
	d := &Dict{idOf: make(map[string]int)}
	if cacheSize > 0 {
		c, _ := lru.New[string, int](cacheSize)
		d.reverse = c
	}
	return d
}

// IDOf resolves value to its id, auto-assigning the next dense id if unseen.
// Returns the id and whether it was newly assigned.
func (d *Dict) IDOf(val string) (int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if id, ok := d.idOf[val]; ok {
		return id, false
	}
	id := len(d.valueOf)
	d.idOf[val] = id
	d.valueOf = append(d.valueOf, val)
	if d.reverse != nil {
		d.reverse.Add(val, id)
	}
	if !d.hasValues || val < d.min {
		d.min = val
	}
	if !d.hasValues || val > d.max {
		d.max = val
	}
	d.hasValues = true
	return id, true
}

// LookupID returns the id for val without assigning one; ok is false if val
// was never seen.
func (d *Dict) LookupID(val string) (int, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.idOf[val]
	return id, ok
}

// LookupName returns the value for id. Panics on an out-of-range id, which
// indicates a caller bug (ids must come from this same dictionary).
func (d *Dict) LookupName(id int) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.valueOf[id]
}

// Cardinality returns the number of distinct values assigned so far.
func (d *Dict) Cardinality() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.valueOf)
}

// MinMax returns the lexicographically smallest and largest values seen.
func (d *Dict) MinMax() (min, max string, ok bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.min, d.max, d.hasValues
}

// Snapshot returns an immutable view usable after the dictionary may keep
// growing; values already assigned never change, only new ones are appended,
// so a snapshot is a copy of the value slice taken under the read lock.
type Snapshot struct {
	values []string
}

func (d *Dict) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	cp := make([]string, len(d.valueOf))
	copy(cp, d.valueOf)
	return Snapshot{values: cp}
}

func (s Snapshot) LookupName(id int) string {
	if id < 0 || id >= len(s.values) {
		return ""
	}
	return s.values[id]
}

func (s Snapshot) Cardinality() int { return len(s.values) }

// Names returns a copy of every assigned value in id order (id i is
// Names()[i]); used by segment persistence to rebuild a dictionary without
// exposing the live internal slice.
func (d *Dict) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	cp := make([]string, len(d.valueOf))
	copy(cp, d.valueOf)
	return cp
}
