// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package wire

import (
	"strings"
	"time"

	"github.com/google/cel-go/cel"
	jsoniter "github.com/json-iterator/go"

	"github.com/chronoscale/chronos/pkg/aggregation"
	"github.com/chronoscale/chronos/pkg/chronoserr"
	"github.com/chronoscale/chronos/pkg/expr"
	"github.com/chronoscale/chronos/pkg/query"
	"github.com/chronoscale/chronos/pkg/segment"
)

// queryDTO mirrors spec.md §6's "common query fields": queryType,
// dataSource, intervals[], filter, granularity, aggregators/post-
// aggregators/dimensions, and a context map carrying bySegment/skipFinalize
// among other reserved keys.
type queryDTO struct {
	QueryType       string               `json:"queryType"`
	DataSource      string               `json:"dataSource"`
	Intervals       []string             `json:"intervals"`
	Filter          jsoniter.RawMessage  `json:"filter"`
	Granularity     string               `json:"granularity"`
	Dimensions      []string             `json:"dimensions"`
	Aggregations    jsoniter.RawMessage  `json:"aggregations"`
	PostAggregations jsoniter.RawMessage `json:"postAggregations"`
	Having          string               `json:"having"`
	Descending      bool                 `json:"descending"`
	Limit           int                  `json:"limit"`
	Context         map[string]any       `json:"context"`
}

// DecodeSpec parses a /druid/v2/ request body into an engine-native
// query.Spec. It has the exact shape pkg/query.ToolChestPlanner's Decode
// field expects, so internal/httpapi can plug it in directly:
//
//	planner := query.ToolChestPlanner{Chest: chest, Resolver: resolver, Decode: wire.DecodeSpec}
func DecodeSpec(body string, reqContext map[string]any) (query.Spec, error) {
	var dto queryDTO
	if err := json.Unmarshal([]byte(body), &dto); err != nil {
		return query.Spec{}, chronoserr.Wrap(chronoserr.ParseFailure, err)
	}

	kind, err := decodeKind(dto.QueryType)
	if err != nil {
		return query.Spec{}, err
	}

	interval, err := decodeInterval(dto.Intervals)
	if err != nil {
		return query.Spec{}, err
	}

	gran, err := decodeGranularity(dto.Granularity, interval.StartMs)
	if err != nil {
		return query.Spec{}, err
	}

	f, err := decodeFilter(dto.Filter)
	if err != nil {
		return query.Spec{}, err
	}

	aggs, err := decodeAggregators(dto.Aggregations)
	if err != nil {
		return query.Spec{}, err
	}

	postAggs, err := decodePostAggregators(dto.PostAggregations)
	if err != nil {
		return query.Spec{}, err
	}

	var having *expr.Expression
	if strings.TrimSpace(dto.Having) != "" {
		having, err = decodeHaving(dto.Having, dto.Dimensions, aggs, postAggs)
		if err != nil {
			return query.Spec{}, err
		}
	}

	ctx := dto.Context
	if ctx == nil {
		ctx = map[string]any{}
	}
	for k, v := range reqContext {
		if _, ok := ctx[k]; !ok {
			ctx[k] = v
		}
	}

	return query.Spec{
		Kind:            kind,
		DataSources:     []string{dto.DataSource},
		Interval:        interval,
		Granularity:     gran,
		Filter:          f,
		Dimensions:      dto.Dimensions,
		Aggregators:     aggs,
		PostAggregators: postAggs,
		Having:          having,
		Descending:      dto.Descending,
		Limit:           dto.Limit,
		SkipFinalize:    ctxBool(ctx, "skipFinalize", false),
		BySegment:       ctxBool(ctx, "bySegment", false),
	}, nil
}

func decodeKind(queryType string) (query.Kind, error) {
	switch queryType {
	case "timeseries":
		return query.KindTimeseries, nil
	case "groupBy":
		return query.KindGroupBy, nil
	case "segmentMetadata":
		return query.KindSegmentMetadata, nil
	default:
		return "", chronoserr.New(chronoserr.IllegalArgument, "unknown queryType %q", queryType)
	}
}

// decodeInterval parses a single Druid-style "start/end" ISO-8601 interval
// string; only the first entry of Intervals is honored (multi-interval
// unioning is a coordinator/broker-side concern out of this layer's scope).
func decodeInterval(intervals []string) (segment.TimeInterval, error) {
	if len(intervals) == 0 {
		return segment.TimeInterval{}, chronoserr.New(chronoserr.IllegalArgument, "query requires at least one interval")
	}
	parts := strings.SplitN(intervals[0], "/", 2)
	if len(parts) != 2 {
		return segment.TimeInterval{}, chronoserr.New(chronoserr.IllegalArgument, "malformed interval %q, want start/end", intervals[0])
	}
	start, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return segment.TimeInterval{}, chronoserr.Wrap(chronoserr.ParseFailure, err)
	}
	end, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return segment.TimeInterval{}, chronoserr.Wrap(chronoserr.ParseFailure, err)
	}
	return segment.TimeInterval{StartMs: start.UnixMilli(), EndMs: end.UnixMilli()}, nil
}

func decodeGranularity(name string, intervalStartMs int64) (segment.Granularity, error) {
	if name == "" || strings.EqualFold(name, "ALL") {
		return segment.All(intervalStartMs), nil
	}
	g, ok := segment.ByName(strings.ToUpper(name))
	if !ok {
		return nil, chronoserr.New(chronoserr.IllegalArgument, "unknown granularity %q", name)
	}
	return g, nil
}

func decodeHaving(source string, dims []string, aggs []aggregation.Factory, postAggs []query.PostAggregator) (*expr.Expression, error) {
	fields := append([]string{}, dims...)
	for _, a := range aggs {
		fields = append(fields, a.Name())
	}
	for _, pa := range postAggs {
		fields = append(fields, pa.Name)
	}
	types := make(expr.TypeBinding, len(fields)+1)
	types["timestamp"] = cel.DynType
	for _, f := range fields {
		types[f] = cel.DynType
	}
	return expr.Compile(source, types)
}

func ctxBool(ctx map[string]any, key string, def bool) bool {
	v, ok := ctx[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}
