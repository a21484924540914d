// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package wire

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/chronoscale/chronos/pkg/chronoserr"
	"github.com/chronoscale/chronos/pkg/postagg"
	"github.com/chronoscale/chronos/pkg/query"
)

// postAggregatorDTO is the wire shape of one post-aggregator; Type selects
// which pkg/postagg constructor (or the baseline arithmetic evaluator)
// builds it.
type postAggregatorDTO struct {
	Type          string   `json:"type"`
	Name          string   `json:"name"`
	Expression    string   `json:"expression,omitempty"` // arithmetic
	Fields        []string `json:"fields,omitempty"`     // arithmetic required bindings, setOp operands
	FieldName     string   `json:"fieldName,omitempty"`  // estimate, quantile(s), summary, arrayToMap
	Probability   float64  `json:"probability,omitempty"`
	Probabilities []float64 `json:"probabilities,omitempty"`
	SetOp         string   `json:"setOp,omitempty"` // "union", "intersect", "not"
	ValueField    string   `json:"valueField,omitempty"`
	RateField     string   `json:"rateField,omitempty"`
	Steps         float64  `json:"steps,omitempty"`
}

func decodePostAggregators(raw jsoniter.RawMessage) ([]query.PostAggregator, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var dtos []postAggregatorDTO
	if err := json.Unmarshal(raw, &dtos); err != nil {
		return nil, chronoserr.Wrap(chronoserr.ParseFailure, err)
	}
	out := make([]query.PostAggregator, len(dtos))
	for i, d := range dtos {
		pa, err := dtoToPostAggregator(d)
		if err != nil {
			return nil, err
		}
		out[i] = pa
	}
	return out, nil
}

func dtoToPostAggregator(d postAggregatorDTO) (query.PostAggregator, error) {
	switch d.Type {
	case "arithmetic":
		return postagg.Arithmetic(d.Name, d.Expression, d.Fields)
	case "estimate":
		return postagg.Estimate(d.Name, d.FieldName), nil
	case "quantile":
		return postagg.Quantile(d.Name, d.FieldName, d.Probability), nil
	case "quantiles":
		return postagg.Quantiles(d.Name, d.FieldName, d.Probabilities), nil
	case "setOp":
		op, err := decodeSetOp(d.SetOp)
		if err != nil {
			return query.PostAggregator{}, err
		}
		return postagg.SetOpEstimate(d.Name, op, d.Fields), nil
	case "summary":
		return postagg.Summary(d.Name, d.FieldName), nil
	case "arrayToMap":
		return postagg.ArrayToMap(d.Name, d.FieldName), nil
	case "predict":
		return postagg.Predict(d.Name, d.ValueField, d.RateField, d.Steps), nil
	default:
		return query.PostAggregator{}, chronoserr.New(chronoserr.IllegalArgument, "unknown postAggregator type %q", d.Type)
	}
}

func decodeSetOp(name string) (postagg.SetOp, error) {
	switch name {
	case "union":
		return postagg.SetUnion, nil
	case "intersect":
		return postagg.SetIntersect, nil
	case "not":
		return postagg.SetNot, nil
	default:
		return "", chronoserr.New(chronoserr.IllegalArgument, "unknown setOp %q", name)
	}
}
