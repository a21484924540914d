// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

// Package value defines chronos's logical scalar and composite type system:
// the five ValueKinds, their ValueDesc composite descriptors, total-order
// comparators, and tolerant numeric-string coercion used at read time.
package value

import "fmt"

// Kind is a logical scalar type. Complex values carry a registered name
// (see ComplexName) identifying their serde strategy.
type Kind uint8

const (
	// Unknown is the zero value; no column or expression should settle on it.
	Unknown Kind = iota
	Float   // 32-bit float
	Long    // 64-bit signed integer
	Double  // 64-bit float
	String  // UTF-8 string
	Complex // opaque value identified by a registered name
)

func (k Kind) String() string {
	switch k {
	case Float:
		return "FLOAT"
	case Long:
		return "LONG"
	case Double:
		return "DOUBLE"
	case String:
		return "STRING"
	case Complex:
		return "COMPLEX"
	default:
		return "UNKNOWN"
	}
}

// IsNumeric reports whether the kind participates in numeric comparison.
func (k Kind) IsNumeric() bool {
	return k == Float || k == Long || k == Double
}

// Well-known complex type names, per spec.md §4.1.
const (
	ComplexHyperUnique            = "hyperUnique"
	ComplexThetaSketch            = "thetaSketch"
	ComplexApproxHistogram        = "approximateHistogram"
	ComplexApproxHistogramCompact = "approximateHistogram.compact"
	ComplexVariance                = "variance"
	ComplexCovariance               = "covariance"
	ComplexPearson                  = "pearson"
	ComplexKurtosis                 = "kurtosis"
	ComplexQuantilesSketch          = "quantilesDoublesSketch"
	ComplexArrayFloat               = "array.float"
	ComplexArrayDouble              = "array.double"
	ComplexArrayLong                = "array.long"
	ComplexArrayString              = "array.string"
)

// Desc is a type descriptor: a Kind plus, for composite shapes (arrays,
// dimensions, multi-valued columns, structs, and named complex metrics),
// an element descriptor and/or a registered complex name.
type Desc struct {
	Kind Kind

	// ComplexName identifies the serde for Kind == Complex (e.g. "hyperUnique").
	ComplexName string

	// Element is non-nil for arrays and multi-valued dimensions: the
	// descriptor of one element.
	Element *Desc

	// MultiValued marks a dimension column that may carry >1 dictionary id
	// per row (order preserved, never deduplicated, per spec.md §3).
	MultiValued bool

	// Fields is non-nil for struct descriptors: name -> field descriptor.
	Fields map[string]*Desc
}

func Scalar(k Kind) Desc { return Desc{Kind: k} }

func ComplexDesc(name string) Desc { return Desc{Kind: Complex, ComplexName: name} }

func ArrayOf(elem Desc) Desc { return Desc{Kind: Complex, Element: &elem} }

func Dimension(elem Desc, multiValued bool) Desc {
	return Desc{Kind: elem.Kind, Element: &elem, MultiValued: multiValued}
}

func (d Desc) String() string {
	switch {
	case d.Kind == Complex && d.ComplexName != "":
		return fmt.Sprintf("COMPLEX<%s>", d.ComplexName)
	case d.Element != nil && d.MultiValued:
		return fmt.Sprintf("MULTI_VALUE<%s>", d.Element.Kind)
	case d.Element != nil:
		return fmt.Sprintf("ARRAY<%s>", d.Element.Kind)
	case d.Fields != nil:
		return "STRUCT"
	default:
		return d.Kind.String()
	}
}

func (d Desc) Equal(other Desc) bool {
	if d.Kind != other.Kind || d.ComplexName != other.ComplexName || d.MultiValued != other.MultiValued {
		return false
	}
	if (d.Element == nil) != (other.Element == nil) {
		return false
	}
	if d.Element != nil && !d.Element.Equal(*other.Element) {
		return false
	}
	return true
}
