// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package httpapi

import (
	"github.com/chronoscale/chronos/pkg/query"
	"github.com/chronoscale/chronos/pkg/segment"
)

// CatalogResolver implements query.AdapterResolver directly against a
// segment.Catalog: the historical role's Adapters are whatever immutable
// segments it currently holds for the requested data sources and interval.
type CatalogResolver struct {
	Catalog *segment.Catalog
}

func (r CatalogResolver) Resolve(spec query.Spec) ([]segment.Adapter, error) {
	var adapters []segment.Adapter
	for _, ds := range spec.DataSources {
		segs, err := r.Catalog.SegmentsOverlapping(ds, spec.Interval)
		if err != nil {
			return nil, err
		}
		for _, s := range segs {
			adapters = append(adapters, s)
		}
	}
	return adapters, nil
}
