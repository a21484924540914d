// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package segment

import (
	"sort"
	"sync"

	"github.com/chronoscale/chronos/pkg/chronoserr"
)

// Catalog is the in-memory registry mapping datasource+interval to held
// segments, grounded on turbo/snapshotsync.go's role as the lookup layer in
// front of opaque segment handles (there: torrent-addressed files; here:
// in-memory Segments). A production coordinator's fleet-level replication is
// out of scope per spec.md §1; Catalog only tracks what this process holds.
type Catalog struct {
	mu         sync.RWMutex
	datasource map[string][]*entry
}

type entry struct {
	handle Handle
	seg    *Segment
}

func NewCatalog() *Catalog {
	return &Catalog{datasource: map[string][]*entry{}}
}

// Register adds a freshly built segment to the catalog under datasource.
func (c *Catalog) Register(datasource string, seg *Segment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.datasource[datasource] = append(c.datasource[datasource], &entry{handle: seg.Handle(), seg: seg})
}

// Drop removes a segment by handle ID from a datasource.
func (c *Catalog) Drop(datasource, segmentID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := c.datasource[datasource]
	for i, e := range entries {
		if e.handle.ID == segmentID {
			c.datasource[datasource] = append(entries[:i], entries[i+1:]...)
			return true
		}
	}
	return false
}

// SegmentsOverlapping returns every held segment of datasource whose
// interval overlaps iv, sorted by interval start.
func (c *Catalog) SegmentsOverlapping(datasource string, iv TimeInterval) ([]*Segment, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entries, ok := c.datasource[datasource]
	if !ok {
		return nil, chronoserr.New(chronoserr.IllegalArgument, "unknown datasource %q", datasource)
	}
	var out []*Segment
	for _, e := range entries {
		if e.handle.Interval.Overlaps(iv) {
			out = append(out, e.seg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Handle().Interval.StartMs < out[j].Handle().Interval.StartMs
	})
	return out, nil
}

// Datasources lists every known datasource name.
func (c *Catalog) Datasources() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.datasource))
	for name := range c.datasource {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
