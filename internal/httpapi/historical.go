// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package httpapi

import (
	"github.com/chronoscale/chronos/pkg/query"
	"github.com/chronoscale/chronos/pkg/segment"
	"github.com/chronoscale/chronos/pkg/wire"
)

// NewHistoricalPlanner builds the query.Planner a historical role runs:
// resolve the requested data sources' held segments from catalog, dispatch
// to the matching pkg/query.Runner via a fresh ToolChest, and decode the
// wire JSON body with pkg/wire.
func NewHistoricalPlanner(catalog *segment.Catalog) query.Planner {
	return query.ToolChestPlanner{
		Chest:    query.NewToolChest(),
		Resolver: CatalogResolver{Catalog: catalog},
		Decode:   wire.DecodeSpec,
	}
}
