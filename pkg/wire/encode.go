// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package wire

import (
	"io"
	"time"

	"github.com/chronoscale/chronos/pkg/query"
)

const queryPath = "/druid/v2/"

// EncodeSpec has the exact shape pkg/broker.RequestEncoder expects, so a
// ScatterGatherRunner can scatter a resolved Spec to peer historicals
// without broker needing to know the wire JSON shape itself.
func EncodeSpec(spec query.Spec) (path string, body []byte, err error) {
	dto := queryDTO{
		QueryType:  string(spec.Kind),
		Dimensions: spec.Dimensions,
		Descending: spec.Descending,
		Limit:      spec.Limit,
		Context: map[string]any{
			"bySegment":    spec.BySegment,
			"skipFinalize": spec.SkipFinalize,
		},
	}
	if len(spec.DataSources) > 0 {
		dto.DataSource = spec.DataSources[0]
	}
	start := time.UnixMilli(spec.Interval.StartMs).UTC().Format(time.RFC3339)
	end := time.UnixMilli(spec.Interval.EndMs).UTC().Format(time.RFC3339)
	dto.Intervals = []string{start + "/" + end}
	if spec.Granularity != nil {
		dto.Granularity = spec.Granularity.Name()
	}

	filterJSON, err := json.Marshal(encodeFilter(spec.Filter))
	if err != nil {
		return "", nil, err
	}
	dto.Filter = filterJSON

	aggJSON, err := encodeAggregators(spec.Aggregators)
	if err != nil {
		return "", nil, err
	}
	dto.Aggregations = aggJSON

	body, err = json.Marshal(dto)
	if err != nil {
		return "", nil, err
	}
	return queryPath, body, nil
}

// WriteResultSequence drains seq into w as newline-delimited JSON objects,
// the exact shape pkg/broker's rowStream decodes on the scatter side —
// internal/httpapi's historical and broker handlers both write their
// response bodies this way.
func WriteResultSequence(w io.Writer, seq query.ResultSequence) error {
	enc := json.NewEncoder(w)
	for {
		row, ok, err := seq.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := enc.Encode(row); err != nil {
			return err
		}
		if f, ok := w.(interface{ Flush() }); ok {
			f.Flush()
		}
	}
}
