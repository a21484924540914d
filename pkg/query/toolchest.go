// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package query

import (
	"github.com/chronoscale/chronos/pkg/chronoserr"
	"github.com/chronoscale/chronos/pkg/segment"
)

// Runner executes a resolved Spec against local Adapters.
type Runner interface {
	Run(spec Spec, adapters []segment.Adapter) (ResultSequence, error)
}

// ToolChest dispatches a Spec's Kind to the Runner that knows how to
// execute it, per spec.md §9's Design Note ("ToolChest maps QueryKind to a
// QueryRunnerFactory... engine never type-switches on query kind outside
// this one seam").
type ToolChest struct {
	runners map[Kind]Runner
}

// NewToolChest registers the built-in runners; pkg/registry composes this
// process-wide alongside the serializer/merge-fn tables for each Kind.
func NewToolChest() *ToolChest {
	return &ToolChest{runners: map[Kind]Runner{
		KindTimeseries:      GroupByRunner{},
		KindGroupBy:         GroupByRunner{},
		KindSegmentMetadata: SegmentMetadataRunner{},
	}}
}

// Register installs or overrides the Runner for kind.
func (t *ToolChest) Register(kind Kind, r Runner) { t.runners[kind] = r }

// RunnerFor looks up the Runner bound to spec.Kind.
func (t *ToolChest) RunnerFor(kind Kind) (Runner, error) {
	r, ok := t.runners[kind]
	if !ok {
		return nil, chronoserr.New(chronoserr.IllegalArgument, "no runner registered for query kind %q", kind)
	}
	return r, nil
}

// AdapterResolver resolves a Spec's named data sources to the live local
// Adapters (segments + incremental indexes) that currently cover its
// interval; internal/httpapi's CatalogResolver implements this against a
// segment.Catalog.
type AdapterResolver interface {
	Resolve(spec Spec) ([]segment.Adapter, error)
}

// ToolChestPlanner is the Planner Lifecycle.Plan() drives: it resolves
// adapters, looks up the right Runner, and defers the actual scan to
// PlannerResult.Run, matching spec.md §4.6's "plan builds a lazy runnable,
// it does not execute" contract.
type ToolChestPlanner struct {
	Chest    *ToolChest
	Resolver AdapterResolver
	Decode   func(sql string, context map[string]any) (Spec, error)
}

func (p ToolChestPlanner) Plan(sql string, context map[string]any) (PlannerResult, error) {
	spec, err := p.Decode(sql, context)
	if err != nil {
		return PlannerResult{}, err
	}
	adapters, err := p.Resolver.Resolve(spec)
	if err != nil {
		return PlannerResult{}, err
	}
	runner, err := p.Chest.RunnerFor(spec.Kind)
	if err != nil {
		return PlannerResult{}, err
	}
	rowType := "groupBy"
	if spec.Kind == KindSegmentMetadata {
		rowType = "segmentMetadata"
	}
	return PlannerResult{
		DataSources: spec.DataSources,
		RowType:     rowType,
		Run:         func() (ResultSequence, error) { return runner.Run(spec, adapters) },
	}, nil
}
