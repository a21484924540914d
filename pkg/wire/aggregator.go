// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package wire

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/chronoscale/chronos/pkg/aggregation"
	"github.com/chronoscale/chronos/pkg/chronoserr"
	"github.com/chronoscale/chronos/pkg/value"
)

// aggregatorDTO is the wire shape of one aggregator spec; Type selects
// which pkg/aggregation.Factory it builds. Field names match the JSON
// aggregator specs spec.md §6 documents (e.g. {"type":"longSum","name":
// "clicks","fieldName":"clicks_raw"}).
type aggregatorDTO struct {
	Type       string  `json:"type"`
	Name       string  `json:"name"`
	FieldName  string  `json:"fieldName,omitempty"`
	FieldNameX string  `json:"fieldNameX,omitempty"`
	FieldNameY string  `json:"fieldNameY,omitempty"`
	K          int     `json:"k,omitempty"`
	Resolution int     `json:"resolution,omitempty"`
	LowerLimit float64 `json:"lowerLimit,omitempty"`
	UpperLimit float64 `json:"upperLimit,omitempty"`
	Accuracy   float64 `json:"relativeAccuracy,omitempty"`
	IsInputHyperUnique bool `json:"isInputHyperUnique,omitempty"`
	Distinct   bool    `json:"distinct,omitempty"`
	MaxSize    int     `json:"maxSize,omitempty"`
	First      bool    `json:"first,omitempty"`
	Population bool    `json:"population,omitempty"`
	Pearson    bool    `json:"pearson,omitempty"`
}

func decodeAggregators(raw jsoniter.RawMessage) ([]aggregation.Factory, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var dtos []aggregatorDTO
	if err := json.Unmarshal(raw, &dtos); err != nil {
		return nil, chronoserr.Wrap(chronoserr.ParseFailure, err)
	}
	out := make([]aggregation.Factory, len(dtos))
	for i, d := range dtos {
		f, err := dtoToAggregator(d)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func dtoToAggregator(d aggregatorDTO) (aggregation.Factory, error) {
	switch d.Type {
	case "count":
		return aggregation.CountFactory{MetricName: d.Name}, nil
	case "longSum":
		return aggregation.SumMinMaxFactory{MetricName: d.Name, FieldName: d.FieldName, Kind: value.Long, Op: aggregation.OpSum}, nil
	case "doubleSum":
		return aggregation.SumMinMaxFactory{MetricName: d.Name, FieldName: d.FieldName, Kind: value.Double, Op: aggregation.OpSum}, nil
	case "floatSum":
		return aggregation.SumMinMaxFactory{MetricName: d.Name, FieldName: d.FieldName, Kind: value.Float, Op: aggregation.OpSum}, nil
	case "longMin":
		return aggregation.SumMinMaxFactory{MetricName: d.Name, FieldName: d.FieldName, Kind: value.Long, Op: aggregation.OpMin}, nil
	case "doubleMin":
		return aggregation.SumMinMaxFactory{MetricName: d.Name, FieldName: d.FieldName, Kind: value.Double, Op: aggregation.OpMin}, nil
	case "longMax":
		return aggregation.SumMinMaxFactory{MetricName: d.Name, FieldName: d.FieldName, Kind: value.Long, Op: aggregation.OpMax}, nil
	case "doubleMax":
		return aggregation.SumMinMaxFactory{MetricName: d.Name, FieldName: d.FieldName, Kind: value.Double, Op: aggregation.OpMax}, nil
	case "thetaSketch":
		k := d.K
		if k == 0 {
			k = 4096
		}
		return aggregation.ThetaSketchFactory{MetricName: d.Name, FieldName: d.FieldName, K: k}, nil
	case "hyperUnique":
		return aggregation.HyperUniqueFactory{MetricName: d.Name, FieldName: d.FieldName, IsInputHyperUnique: d.IsInputHyperUnique}, nil
	case "quantilesDoublesSketch":
		acc := d.Accuracy
		if acc == 0 {
			acc = 0.01
		}
		return aggregation.QuantileSketchFactory{MetricName: d.Name, FieldName: d.FieldName, RelativeAccuracy: acc}, nil
	case "approxHistogram":
		return aggregation.HistogramFactory{MetricName: d.Name, FieldName: d.FieldName, Resolution: d.Resolution, LowerLimit: d.LowerLimit, UpperLimit: d.UpperLimit}, nil
	case "variance":
		return aggregation.VarianceFactory{MetricName: d.Name, FieldName: d.FieldName, Population: d.Population}, nil
	case "kurtosis":
		return aggregation.KurtosisFactory{MetricName: d.Name, FieldName: d.FieldName}, nil
	case "covariance":
		return aggregation.CovarianceFactory{MetricName: d.Name, FieldX: d.FieldNameX, FieldY: d.FieldNameY, Pearson: d.Pearson}, nil
	case "listset":
		return aggregation.SetFactory{MetricName: d.Name, FieldName: d.FieldName, Distinct: d.Distinct, MaxSize: d.MaxSize}, nil
	case "first", "last":
		return aggregation.RelayFactory{MetricName: d.Name, FieldName: d.FieldName, Kind: value.Double, First: d.Type == "first"}, nil
	default:
		return nil, chronoserr.New(chronoserr.IllegalArgument, "unknown aggregator type %q", d.Type)
	}
}

// encodeAggregators is the inverse of decodeAggregators, used when a
// broker re-encodes a Spec to scatter it to a peer historical.
func encodeAggregators(factories []aggregation.Factory) (jsoniter.RawMessage, error) {
	dtos := make([]aggregatorDTO, 0, len(factories))
	for _, f := range factories {
		switch v := f.(type) {
		case aggregation.CountFactory:
			dtos = append(dtos, aggregatorDTO{Type: "count", Name: v.MetricName})
		case aggregation.SumMinMaxFactory:
			dtos = append(dtos, aggregatorDTO{Type: sumMinMaxType(v), Name: v.MetricName, FieldName: v.FieldName})
		case aggregation.ThetaSketchFactory:
			dtos = append(dtos, aggregatorDTO{Type: "thetaSketch", Name: v.MetricName, FieldName: v.FieldName, K: v.K})
		case aggregation.HyperUniqueFactory:
			dtos = append(dtos, aggregatorDTO{Type: "hyperUnique", Name: v.MetricName, FieldName: v.FieldName, IsInputHyperUnique: v.IsInputHyperUnique})
		case aggregation.QuantileSketchFactory:
			dtos = append(dtos, aggregatorDTO{Type: "quantilesDoublesSketch", Name: v.MetricName, FieldName: v.FieldName, Accuracy: v.RelativeAccuracy})
		case aggregation.HistogramFactory:
			dtos = append(dtos, aggregatorDTO{Type: "approxHistogram", Name: v.MetricName, FieldName: v.FieldName, Resolution: v.Resolution, LowerLimit: v.LowerLimit, UpperLimit: v.UpperLimit})
		case aggregation.VarianceFactory:
			dtos = append(dtos, aggregatorDTO{Type: "variance", Name: v.MetricName, FieldName: v.FieldName, Population: v.Population})
		case aggregation.KurtosisFactory:
			dtos = append(dtos, aggregatorDTO{Type: "kurtosis", Name: v.MetricName, FieldName: v.FieldName})
		case aggregation.CovarianceFactory:
			dtos = append(dtos, aggregatorDTO{Type: "covariance", Name: v.MetricName, FieldNameX: v.FieldX, FieldNameY: v.FieldY, Pearson: v.Pearson})
		case aggregation.SetFactory:
			dtos = append(dtos, aggregatorDTO{Type: "listset", Name: v.MetricName, FieldName: v.FieldName, Distinct: v.Distinct, MaxSize: v.MaxSize})
		case aggregation.RelayFactory:
			t := "last"
			if v.First {
				t = "first"
			}
			dtos = append(dtos, aggregatorDTO{Type: t, Name: v.MetricName, FieldName: v.FieldName})
		default:
			return nil, chronoserr.New(chronoserr.IllegalArgument, "aggregator %q (%T) has no wire encoding", f.Name(), f)
		}
	}
	return json.Marshal(dtos)
}

func sumMinMaxType(f aggregation.SumMinMaxFactory) string {
	prefix := map[value.Kind]string{value.Long: "long", value.Double: "double", value.Float: "float"}[f.Kind]
	suffix := map[aggregation.Op]string{aggregation.OpSum: "Sum", aggregation.OpMin: "Min", aggregation.OpMax: "Max"}[f.Op]
	return prefix + suffix
}
