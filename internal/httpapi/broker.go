// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package httpapi

import (
	"context"

	"github.com/chronoscale/chronos/pkg/broker"
	"github.com/chronoscale/chronos/pkg/query"
	"github.com/chronoscale/chronos/pkg/wire"
)

// BrokerPlanner is the query.Planner a broker role runs: decode the wire
// body, then scatter it to every configured node and merge. Cancellation
// is carried entirely by the returned ResultSequence's Close (spec.md's
// "caller close" trigger), not by this Plan call's own context, matching
// how a Lifecycle only ever learns about cancellation through that one
// seam regardless of which Planner is behind it.
type BrokerPlanner struct {
	Runner broker.ScatterGatherRunner
}

func (p BrokerPlanner) Plan(body string, reqContext map[string]any) (query.PlannerResult, error) {
	spec, err := wire.DecodeSpec(body, reqContext)
	if err != nil {
		return query.PlannerResult{}, err
	}
	rowType := "groupBy"
	if spec.Kind == query.KindSegmentMetadata {
		rowType = "segmentMetadata"
	}
	return query.PlannerResult{
		DataSources: spec.DataSources,
		RowType:     rowType,
		Run: func() (query.ResultSequence, error) {
			return p.Runner.Run(context.Background(), spec)
		},
	}, nil
}
