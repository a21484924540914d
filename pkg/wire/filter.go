// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package wire

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/chronoscale/chronos/pkg/chronoserr"
	"github.com/chronoscale/chronos/pkg/filter"
)

// filterDTO is the wire shape of one pkg/filter.DimFilter node; Type
// discriminates which of the fields below apply, mirroring how Druid's own
// DimFilter JSON is a flat "type"-tagged object rather than one schema per
// filter kind.
type filterDTO struct {
	Type string `json:"type"`

	// selector
	Dimension string `json:"dimension,omitempty"`
	Value     string `json:"value,omitempty"`

	// in
	Values []string `json:"values,omitempty"`

	// bound
	Lower       *string `json:"lower,omitempty"`
	Upper       *string `json:"upper,omitempty"`
	LowerStrict bool    `json:"lowerStrict,omitempty"`
	UpperStrict bool    `json:"upperStrict,omitempty"`
	Ordering    string  `json:"ordering,omitempty"` // "lexicographic" (default) or "numeric"

	// regex
	Pattern string `json:"pattern,omitempty"`

	// not
	Field *filterDTO `json:"field,omitempty"`

	// and / or
	Fields []filterDTO `json:"fields,omitempty"`
}

// decodeFilter parses raw (a jsoniter.RawMessage, possibly empty/"null")
// into a filter.DimFilter. An absent filter decodes to filter.All{}, the
// same default an unfiltered cursor scan uses internally.
func decodeFilter(raw jsoniter.RawMessage) (filter.DimFilter, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return filter.All{}, nil
	}
	var dto filterDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return nil, chronoserr.Wrap(chronoserr.ParseFailure, err)
	}
	return dtoToFilter(dto)
}

func dtoToFilter(dto filterDTO) (filter.DimFilter, error) {
	switch dto.Type {
	case "", "all":
		return filter.All{}, nil
	case "none":
		return filter.None{}, nil
	case "selector":
		return filter.Selector{Column: dto.Dimension, Value: dto.Value}, nil
	case "in":
		return filter.NewIn(dto.Dimension, dto.Values...)
	case "bound":
		return filter.Bound{
			Column:      dto.Dimension,
			Lower:       dto.Lower,
			Upper:       dto.Upper,
			LowerStrict: dto.LowerStrict,
			UpperStrict: dto.UpperStrict,
			Numeric:     dto.Ordering == "numeric",
		}, nil
	case "regex":
		return filter.NewRegex(dto.Dimension, dto.Pattern)
	case "not":
		if dto.Field == nil {
			return nil, chronoserr.New(chronoserr.IllegalArgument, "not filter requires a field")
		}
		child, err := dtoToFilter(*dto.Field)
		if err != nil {
			return nil, err
		}
		return filter.Not{Child: child}, nil
	case "and":
		children, err := dtoToFilters(dto.Fields)
		if err != nil {
			return nil, err
		}
		return filter.And{Children: children}, nil
	case "or":
		children, err := dtoToFilters(dto.Fields)
		if err != nil {
			return nil, err
		}
		return filter.Or{Children: children}, nil
	default:
		return nil, chronoserr.New(chronoserr.IllegalArgument, "unknown filter type %q", dto.Type)
	}
}

func dtoToFilters(dtos []filterDTO) ([]filter.DimFilter, error) {
	out := make([]filter.DimFilter, len(dtos))
	for i, d := range dtos {
		f, err := dtoToFilter(d)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// encodeFilter is the inverse of decodeFilter, used when a broker re-encodes
// a Spec to scatter to peer nodes. Expression and Spatial filters have no
// wire representation (they carry Go closures) and encode as "all", the
// permissive default — those filter kinds are constructed programmatically,
// never received from the wire, so this only matters for round-tripping a
// Spec a caller built in Go.
func encodeFilter(f filter.DimFilter) filterDTO {
	switch v := f.(type) {
	case filter.All, nil:
		return filterDTO{Type: "all"}
	case filter.None:
		return filterDTO{Type: "none"}
	case filter.Selector:
		return filterDTO{Type: "selector", Dimension: v.Column, Value: v.Value}
	case *filter.In:
		return filterDTO{Type: "in", Dimension: v.Column, Values: v.Values}
	case filter.Bound:
		ordering := "lexicographic"
		if v.Numeric {
			ordering = "numeric"
		}
		return filterDTO{
			Type: "bound", Dimension: v.Column,
			Lower: v.Lower, Upper: v.Upper,
			LowerStrict: v.LowerStrict, UpperStrict: v.UpperStrict,
			Ordering: ordering,
		}
	case *filter.Regex:
		return filterDTO{Type: "regex", Dimension: v.Column, Pattern: v.Pattern}
	case filter.Not:
		child := encodeFilter(v.Child)
		return filterDTO{Type: "not", Field: &child}
	case filter.And:
		return filterDTO{Type: "and", Fields: encodeFilters(v.Children)}
	case filter.Or:
		return filterDTO{Type: "or", Fields: encodeFilters(v.Children)}
	default:
		return filterDTO{Type: "all"}
	}
}

func encodeFilters(fs []filter.DimFilter) []filterDTO {
	out := make([]filterDTO, len(fs))
	for i, f := range fs {
		out[i] = encodeFilter(f)
	}
	return out
}
