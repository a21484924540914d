// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package query

import "github.com/chronoscale/chronos/pkg/segment"

// ColumnAnalysis mirrors spec.md §9's segmentMetadata per-column summary.
type ColumnAnalysis struct {
	TypeName    string
	HasMultiple bool
	Cardinality int
}

// SegmentMetadataRunner answers a segmentMetadata query directly from each
// Adapter's static column capabilities, without scanning any rows — the one
// query kind spec.md documents as a metadata-only operation rather than a
// cursor walk.
type SegmentMetadataRunner struct{}

func (SegmentMetadataRunner) Run(spec Spec, adapters []segment.Adapter) (ResultSequence, error) {
	rows := make([]map[string]any, 0, len(adapters))
	for _, ad := range adapters {
		row := map[string]any{
			"numRows": ad.NumRows(),
			"minTime": ad.MinTime(),
			"maxTime": ad.MaxTime(),
		}
		columns := map[string]any{}
		names := append(append([]string{}, spec.Dimensions...), aggregatorNames(spec)...)
		for _, name := range names {
			cap, ok := ad.ColumnCapabilities(name)
			if !ok {
				continue
			}
			columns[name] = ColumnAnalysis{
				TypeName:    cap.Type.String(),
				HasMultiple: cap.MultiValued,
				Cardinality: ad.DimensionCardinality(name),
			}
		}
		row["columns"] = columns
		rows = append(rows, row)
	}
	return newSliceSequence(rows), nil
}

func aggregatorNames(spec Spec) []string {
	names := make([]string, len(spec.Aggregators))
	for i, f := range spec.Aggregators {
		names[i] = f.Name()
	}
	return names
}
