// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package expr

import (
	"math"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// builtinLibrary registers the function library of spec.md §4.1: null
// predicates, textual predicates, set/range, IP range, math, time
// extraction, and geospatial/shape built-ins. CEL's own `in` operator
// already covers the spec's `in` set-membership function, so it is not
// redeclared here.
func builtinLibrary() []cel.EnvOption {
	return []cel.EnvOption{
		cel.Function("isNull",
			cel.Overload("isNull_dyn", []*cel.Type{cel.DynType}, cel.BoolType,
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					return types.Bool(v == nil || v.Type() == types.NullType)
				}))),
		cel.Function("isNotNull",
			cel.Overload("isNotNull_dyn", []*cel.Type{cel.DynType}, cel.BoolType,
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					return types.Bool(!(v == nil || v.Type() == types.NullType))
				}))),

		strFn("like", sqlLike),
		strFn("startsWith", strings.HasPrefix),
		strFn("startsWithIgnoreCase", func(s, p string) bool { return strings.HasPrefix(strings.ToLower(s), strings.ToLower(p)) }),
		strFn("endsWith", strings.HasSuffix),
		strFn("endsWithIgnoreCase", func(s, p string) bool { return strings.HasSuffix(strings.ToLower(s), strings.ToLower(p)) }),
		strFn("contains", strings.Contains),
		strFn("match", regexMatch),

		cel.Function("between",
			cel.Overload("between_double", []*cel.Type{cel.DoubleType, cel.DoubleType, cel.DoubleType}, cel.BoolType,
				cel.FunctionBinding(func(args ...ref.Val) ref.Val {
					v, lo, hi := float64(args[0].(types.Double)), float64(args[1].(types.Double)), float64(args[2].(types.Double))
					return types.Bool(lo <= hi && v >= lo && v <= hi)
				}))),

		cel.Function("ipv4_in",
			cel.Overload("ipv4_in_string_string", []*cel.Type{cel.StringType, cel.StringType}, cel.BoolType,
				cel.BinaryBinding(func(ipv, cidrv ref.Val) ref.Val {
					return types.Bool(ipv4In(string(ipv.(types.String)), string(cidrv.(types.String))))
				}))),

		cel.Function("factorial",
			cel.Overload("factorial_int", []*cel.Type{cel.IntType}, cel.IntType,
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					n := int64(v.(types.Int))
					return types.Int(factorial(n))
				}))),

		cel.Function("fuzzyCompare",
			cel.Overload("fuzzyCompare_double_double_double", []*cel.Type{cel.DoubleType, cel.DoubleType, cel.DoubleType}, cel.BoolType,
				cel.FunctionBinding(func(args ...ref.Val) ref.Val {
					a, b, eps := float64(args[0].(types.Double)), float64(args[1].(types.Double)), float64(args[2].(types.Double))
					return types.Bool(math.Abs(a-b) <= eps)
				}))),

		timeFn("epoch", func(t time.Time) int64 { return t.UnixMilli() }),
		timeFn("second", func(t time.Time) int64 { return int64(t.Second()) }),
		timeFn("minute", func(t time.Time) int64 { return int64(t.Minute()) }),
		timeFn("hour", func(t time.Time) int64 { return int64(t.Hour()) }),
		timeFn("day", func(t time.Time) int64 { return int64(t.Day()) }),
		timeFn("dayOfWeek", func(t time.Time) int64 { return int64(t.Weekday()) }),
		timeFn("dayOfYear", func(t time.Time) int64 { return int64(t.YearDay()) }),
		timeFn("week", func(t time.Time) int64 { _, w := t.ISOWeek(); return int64(w) }),
		timeFn("month", func(t time.Time) int64 { return int64(t.Month()) }),
		timeFn("quarter", func(t time.Time) int64 { return int64((t.Month()-1)/3 + 1) }),
		timeFn("year", func(t time.Time) int64 { return int64(t.Year()) }),

		cel.Function("to_geohash",
			cel.Overload("to_geohash_double_double_int", []*cel.Type{cel.DoubleType, cel.DoubleType, cel.IntType}, cel.StringType,
				cel.FunctionBinding(func(args ...ref.Val) ref.Val {
					lat, lon := float64(args[0].(types.Double)), float64(args[1].(types.Double))
					precision := int(args[2].(types.Int))
					return types.String(geohashEncode(lat, lon, precision))
				}))),
		cel.Function("geohash_to_center",
			cel.Overload("geohash_to_center_string", []*cel.Type{cel.StringType}, cel.ListType(cel.DoubleType),
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					lat, lon := geohashDecode(string(v.(types.String)))
					return types.NewDynamicList(types.DefaultTypeAdapter, []float64{lat, lon})
				}))),
		cel.Function("geohash_to_boundary",
			cel.Overload("geohash_to_boundary_string", []*cel.Type{cel.StringType}, cel.ListType(cel.DoubleType),
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					minLat, minLon, maxLat, maxLon := geohashBounds(string(v.(types.String)))
					return types.NewDynamicList(types.DefaultTypeAdapter, []float64{minLat, minLon, maxLat, maxLon})
				}))),

		cel.Function("to_h3",
			cel.Overload("to_h3_double_double_int", []*cel.Type{cel.DoubleType, cel.DoubleType, cel.IntType}, cel.StringType,
				cel.FunctionBinding(func(args ...ref.Val) ref.Val {
					lat, lon := float64(args[0].(types.Double)), float64(args[1].(types.Double))
					res := int(args[2].(types.Int))
					return types.String(h3LikeIndex(lat, lon, res))
				}))),
		cel.Function("to_h3_address",
			cel.Overload("to_h3_address_double_double_int", []*cel.Type{cel.DoubleType, cel.DoubleType, cel.IntType}, cel.StringType,
				cel.FunctionBinding(func(args ...ref.Val) ref.Val {
					lat, lon := float64(args[0].(types.Double)), float64(args[1].(types.Double))
					res := int(args[2].(types.Int))
					return types.String(h3LikeIndex(lat, lon, res))
				}))),
		cel.Function("h3_to_center",
			cel.Overload("h3_to_center_string", []*cel.Type{cel.StringType}, cel.ListType(cel.DoubleType),
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					lat, lon := h3LikeCenter(string(v.(types.String)))
					return types.NewDynamicList(types.DefaultTypeAdapter, []float64{lat, lon})
				}))),
		cel.Function("h3_to_boundary",
			cel.Overload("h3_to_boundary_string", []*cel.Type{cel.StringType}, cel.ListType(cel.DoubleType),
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					minLat, minLon, maxLat, maxLon := h3LikeBounds(string(v.(types.String)))
					return types.NewDynamicList(types.DefaultTypeAdapter, []float64{minLat, minLon, maxLat, maxLon})
				}))),

		shapeFn("shape_intersects", shapeIntersects),
		shapeFn("shape_contains", shapeContains),
		shapeFn("shape_covers", shapeContains), // bbox-approximate: covers treated as contains at this precision
		shapeFn("shape_coveredBy", func(a, b string) bool { return shapeContains(b, a) }),
		shapeFn("shape_equals", shapeEquals),
		shapeFn("shape_overlaps", shapeIntersects),
	}
}

func strFn(name string, impl func(a, b string) bool) cel.EnvOption {
	return cel.Function(name,
		cel.Overload(name+"_string_string", []*cel.Type{cel.StringType, cel.StringType}, cel.BoolType,
			cel.BinaryBinding(func(a, b ref.Val) ref.Val {
				return types.Bool(impl(string(a.(types.String)), string(b.(types.String))))
			})))
}

func shapeFn(name string, impl func(a, b string) bool) cel.EnvOption {
	return cel.Function(name,
		cel.Overload(name+"_string_string", []*cel.Type{cel.StringType, cel.StringType}, cel.BoolType,
			cel.BinaryBinding(func(a, b ref.Val) ref.Val {
				return types.Bool(impl(string(a.(types.String)), string(b.(types.String))))
			})))
}

func timeFn(name string, impl func(time.Time) int64) cel.EnvOption {
	return cel.Function(name,
		cel.Overload(name+"_int", []*cel.Type{cel.IntType}, cel.IntType,
			cel.UnaryBinding(func(v ref.Val) ref.Val {
				ms := int64(v.(types.Int))
				return types.Int(impl(time.UnixMilli(ms).UTC()))
			})))
}

// sqlLike implements SQL LIKE pattern matching: '%' matches any run of
// characters, '_' matches exactly one.
func sqlLike(s, pattern string) bool {
	var sb strings.Builder
	sb.WriteByte('^')
	for _, r := range pattern {
		switch r {
		case '%':
			sb.WriteString(".*")
		case '_':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteByte('$')
	re, err := regexp.Compile(sb.String())
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

func regexMatch(s, pattern string) bool {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

// ipv4In rejects non-IPv4 strings by matching false, never raising, per
// spec.md §8's documented boundary behavior.
func ipv4In(ipStr, cidr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil || ip.To4() == nil {
		return false
	}
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return false
	}
	return network.Contains(ip)
}

func factorial(n int64) int64 {
	if n < 0 {
		return 0
	}
	out := int64(1)
	for i := int64(2); i <= n; i++ {
		out *= i
	}
	return out
}
