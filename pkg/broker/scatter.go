// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package broker

import (
	"context"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/chronoscale/chronos/pkg/chronoserr"
	"github.com/chronoscale/chronos/pkg/query"
)

// RequestEncoder turns a resolved Spec into the wire body and path a peer's
// query endpoint expects; the HTTP/JSON wire schema is intentionally left
// to the caller (e.g. internal/httpapi) so this package stays a transport-
// and-merge mechanism rather than owning the query DSL's JSON shape.
type RequestEncoder func(spec query.Spec) (path string, body []byte, err error)

// ScatterGatherRunner fans a Spec out to every node in Nodes, merges their
// partial rows, and finalizes once at the broker — the cross-node analogue
// of pkg/query.GroupByRunner's cross-adapter merge.
type ScatterGatherRunner struct {
	Client      *Client
	Nodes       []NodeLocation
	Encode      RequestEncoder
	Concurrency int // bounded fan-out width; 0 means unbounded
}

// Run scatters spec (with SkipFinalize forced true so nodes return
// mergeable intermediate aggregator states), merges results keyed by
// timestamp+dimensions, finalizes every aggregator exactly once, and
// returns the merged rows as a ResultSequence.
func (r ScatterGatherRunner) Run(ctx context.Context, spec query.Spec) (query.ResultSequence, error) {
	scatterSpec := spec
	scatterSpec.SkipFinalize = true
	path, body, err := r.Encode(scatterSpec)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	if r.Concurrency > 0 {
		g.SetLimit(r.Concurrency)
	}

	var mu sync.Mutex
	streams := make([]sequenceLike, 0, len(r.Nodes))
	streamNodes := make([]string, 0, len(r.Nodes))
	cancels := make([]func(), 0, len(r.Nodes))
	var scatterErrs error

	for _, node := range r.Nodes {
		node := node
		g.Go(func() error {
			rc, err := r.Client.Scatter(gctx, node, path, body)
			if err != nil {
				nodeErr := chronoserr.New(chronoserr.Remote, "scatter to %s failed: %s", node.ID, err)
				mu.Lock()
				scatterErrs = multierr.Append(scatterErrs, nodeErr)
				mu.Unlock()
				return nodeErr
			}
			cancel := func() { _ = r.Client.Cancel(node, path) }
			stream := newRowStream(rc, cancel)
			mu.Lock()
			streams = append(streams, stream)
			streamNodes = append(streamNodes, node.ID)
			cancels = append(cancels, cancel)
			mu.Unlock()
			return nil
		})
	}
	// g.Wait's own return is only the first failing goroutine's error
	// (errgroup cancels the rest); scatterErrs accumulates every node's
	// failure so a caller can see which peers actually failed, per
	// spec.md's multi-node fan-out error reporting.
	if err := g.Wait(); err != nil {
		for _, c := range cancels {
			c()
		}
		return nil, scatterErrs
	}

	defer func() {
		for _, s := range streams {
			if closer, ok := s.(interface{ Close() error }); ok {
				_ = closer.Close()
			}
		}
	}()

	if spec.BySegment {
		return drainBySegment(streams, streamNodes)
	}

	keyFn := DimensionsKeyFn(spec.Dimensions)
	combine := AggregationQueryBinaryFn(spec.Aggregators)
	merged, err := MergeSequences(streams, keyFn, combine)
	if err != nil {
		return nil, err
	}

	if !spec.SkipFinalize {
		for _, row := range merged {
			for _, f := range spec.Aggregators {
				if v, ok := row[f.Name()]; ok {
					row[f.Name()] = f.Finalize(v)
				}
			}
		}
	}
	sortByTimestamp(merged, spec.Descending)
	if spec.Limit > 0 && len(merged) > spec.Limit {
		merged = merged[:spec.Limit]
	}
	return newMergedSequence(merged), nil
}

// drainBySegment passes each node's own per-segment results straight
// through, tagged with the originating node id, instead of merging rows
// across nodes — the cross-node counterpart of pkg/query's
// runBySegment, which does the same thing one tier down.
func drainBySegment(streams []sequenceLike, streamNodes []string) (query.ResultSequence, error) {
	var out []map[string]any
	for i, s := range streams {
		for {
			raw, ok, err := s.Next()
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			row, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			row["node"] = streamNodes[i]
			out = append(out, row)
		}
	}
	return newMergedSequence(out), nil
}

type mergedSequence struct {
	rows []map[string]any
	pos  int
}

func newMergedSequence(rows []map[string]any) *mergedSequence { return &mergedSequence{rows: rows} }

func (m *mergedSequence) Next() (any, bool, error) {
	if m.pos >= len(m.rows) {
		return nil, false, nil
	}
	row := m.rows[m.pos]
	m.pos++
	return row, true, nil
}

func (m *mergedSequence) Close() error { return nil }
