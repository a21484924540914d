// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package wire

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chronoscale/chronos/pkg/aggregation"
	"github.com/chronoscale/chronos/pkg/filter"
	"github.com/chronoscale/chronos/pkg/query"
)

const groupByBody = `{
	"queryType": "groupBy",
	"dataSource": "events",
	"intervals": ["2026-01-01T00:00:00Z/2026-01-02T00:00:00Z"],
	"granularity": "hour",
	"dimensions": ["host"],
	"filter": {"type": "selector", "dimension": "host", "value": "a"},
	"aggregations": [{"type": "count", "name": "cnt"}],
	"descending": true,
	"limit": 50
}`

func TestDecodeSpecGroupBy(t *testing.T) {
	require := require.New(t)

	spec, err := DecodeSpec(groupByBody, map[string]any{})
	require.NoError(err)
	require.Equal(query.KindGroupBy, spec.Kind)
	require.Equal([]string{"events"}, spec.DataSources)
	require.Equal([]string{"host"}, spec.Dimensions)
	require.True(spec.Descending)
	require.Equal(50, spec.Limit)
	require.Len(spec.Aggregators, 1)
	require.Equal("cnt", spec.Aggregators[0].Name())

	sel, ok := spec.Filter.(filter.Selector)
	require.True(ok)
	require.Equal("host", sel.Column)
	require.Equal("a", sel.Value)
}

func TestDecodeSpecDefaultsFilterToAll(t *testing.T) {
	require := require.New(t)

	body := `{"queryType":"timeseries","dataSource":"events","intervals":["2026-01-01T00:00:00Z/2026-01-02T00:00:00Z"],"aggregations":[{"type":"count","name":"cnt"}]}`
	spec, err := DecodeSpec(body, nil)
	require.NoError(err)
	require.Equal(filter.All{}, spec.Filter)
}

func TestDecodeSpecRejectsUnknownQueryType(t *testing.T) {
	require := require.New(t)

	_, err := DecodeSpec(`{"queryType":"bogus","dataSource":"events","intervals":["2026-01-01T00:00:00Z/2026-01-02T00:00:00Z"]}`, nil)
	require.Error(err)
}

func TestEncodeSpecRoundTripsFilterAndAggregators(t *testing.T) {
	require := require.New(t)

	spec, err := DecodeSpec(groupByBody, map[string]any{})
	require.NoError(err)

	path, body, err := EncodeSpec(spec)
	require.NoError(err)
	require.Equal("/druid/v2/", path)

	again, err := DecodeSpec(string(body), nil)
	require.NoError(err)
	require.Equal(spec.DataSources, again.DataSources)
	require.Equal(spec.Dimensions, again.Dimensions)
	require.Equal(spec.Interval, again.Interval)

	sel, ok := again.Filter.(filter.Selector)
	require.True(ok)
	require.Equal("host", sel.Column)
	require.Equal("a", sel.Value)

	require.Len(again.Aggregators, 1)
	_, ok = again.Aggregators[0].(aggregation.CountFactory)
	require.True(ok)
}
