// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package registry

import (
	"bytes"
	"encoding/gob"

	"github.com/DataDog/sketches-go/ddsketch"
	"github.com/DataDog/sketches-go/ddsketch/pb"
	"github.com/axiomhq/hyperloglog"
	"google.golang.org/protobuf/proto"

	"github.com/chronoscale/chronos/pkg/aggregation"
	"github.com/chronoscale/chronos/pkg/chronoserr"
	"github.com/chronoscale/chronos/pkg/value"
)

// NewDefaultRuntime returns a Runtime with every complex metric type
// pkg/aggregation defines already registered, the composition spec.md's
// initialization step ("registers serdes up-front") performs for a fresh
// broker/historical process.
func NewDefaultRuntime() *Runtime {
	r := NewRuntime()
	r.RegisterComplexSerde(thetaSerde{})
	r.RegisterComplexSerde(hyperUniqueSerde{})
	r.RegisterComplexSerde(quantilesSerde{})
	r.RegisterComplexSerde(varianceSerde{})
	r.RegisterComplexSerde(histogramSerde{})
	return r
}

func gobEncode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, chronoserr.Wrap(chronoserr.Internal, err)
	}
	return buf.Bytes(), nil
}

type thetaSerde struct{}

func (thetaSerde) TypeName() string { return value.ComplexThetaSketch }
func (thetaSerde) Serialize(v any) ([]byte, error) {
	sk, ok := v.(*aggregation.ThetaSketch)
	if !ok {
		return nil, chronoserr.New(chronoserr.IllegalArgument, "thetaSketch serde: %T is not *aggregation.ThetaSketch", v)
	}
	return sk.MarshalBinary()
}
func (thetaSerde) Deserialize(data []byte) (any, error) {
	sk := &aggregation.ThetaSketch{}
	if err := sk.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return sk, nil
}

type hyperUniqueSerde struct{}

func (hyperUniqueSerde) TypeName() string { return value.ComplexHyperUnique }
func (hyperUniqueSerde) Serialize(v any) ([]byte, error) {
	sk, ok := v.(*hyperloglog.Sketch)
	if !ok {
		return nil, chronoserr.New(chronoserr.IllegalArgument, "hyperUnique serde: %T is not *hyperloglog.Sketch", v)
	}
	return sk.MarshalBinary()
}
func (hyperUniqueSerde) Deserialize(data []byte) (any, error) {
	sk := hyperloglog.New16()
	if err := sk.UnmarshalBinary(data); err != nil {
		return nil, chronoserr.Wrap(chronoserr.ParseFailure, err)
	}
	return sk, nil
}

type quantilesSerde struct{}

func (quantilesSerde) TypeName() string { return value.ComplexQuantilesSketch }
func (quantilesSerde) Serialize(v any) ([]byte, error) {
	sk, ok := v.(*ddsketch.DDSketch)
	if !ok {
		return nil, chronoserr.New(chronoserr.IllegalArgument, "quantilesDoublesSketch serde: %T is not *ddsketch.DDSketch", v)
	}
	data, err := proto.Marshal(sk.ToProto())
	if err != nil {
		return nil, chronoserr.Wrap(chronoserr.Internal, err)
	}
	return data, nil
}
func (quantilesSerde) Deserialize(data []byte) (any, error) {
	var msg pb.DDSketch
	if err := proto.Unmarshal(data, &msg); err != nil {
		return nil, chronoserr.Wrap(chronoserr.ParseFailure, err)
	}
	sk, err := ddsketch.FromProto(&msg)
	if err != nil {
		return nil, chronoserr.Wrap(chronoserr.ParseFailure, err)
	}
	return sk, nil
}

type varianceSerde struct{}

func (varianceSerde) TypeName() string { return value.ComplexVariance }
func (varianceSerde) Serialize(v any) ([]byte, error) {
	st, ok := v.(*aggregation.VarianceState)
	if !ok {
		return nil, chronoserr.New(chronoserr.IllegalArgument, "variance serde: %T is not *aggregation.VarianceState", v)
	}
	return gobEncode(st)
}
func (varianceSerde) Deserialize(data []byte) (any, error) {
	var st aggregation.VarianceState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&st); err != nil {
		return nil, chronoserr.Wrap(chronoserr.ParseFailure, err)
	}
	return &st, nil
}

type histogramSerde struct{}

func (histogramSerde) TypeName() string { return value.ComplexApproxHistogram }
func (histogramSerde) Serialize(v any) ([]byte, error) {
	h, ok := v.(*aggregation.ApproxHistogram)
	if !ok {
		return nil, chronoserr.New(chronoserr.IllegalArgument, "approximateHistogram serde: %T is not *aggregation.ApproxHistogram", v)
	}
	return gobEncode(h)
}
func (histogramSerde) Deserialize(data []byte) (any, error) {
	var h aggregation.ApproxHistogram
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&h); err != nil {
		return nil, chronoserr.Wrap(chronoserr.ParseFailure, err)
	}
	return &h, nil
}
