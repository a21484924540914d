// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package segment

import "time"

// Granularity truncates a timestamp to a bucket boundary and advances to the
// next bucket. The built-in granularities below cover the query-granularity
// values spec.md's scenarios exercise (MINUTE, HOUR, DAY); ALL collapses the
// whole interval into a single bucket.
type Granularity interface {
	Truncate(tsMs int64) int64
	Next(bucketStartMs int64) int64
	Name() string
}

type fixedGranularity struct {
	name     string
	stepMs   int64
}

func (g fixedGranularity) Truncate(tsMs int64) int64 {
	if g.stepMs <= 0 {
		return tsMs
	}
	return tsMs - floorMod(tsMs, g.stepMs)
}

func (g fixedGranularity) Next(bucketStartMs int64) int64 { return bucketStartMs + g.stepMs }
func (g fixedGranularity) Name() string                    { return g.name }

func floorMod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

var (
	Second = fixedGranularity{name: "SECOND", stepMs: int64(time.Second / time.Millisecond)}
	Minute = fixedGranularity{name: "MINUTE", stepMs: int64(time.Minute / time.Millisecond)}
	Hour   = fixedGranularity{name: "HOUR", stepMs: int64(time.Hour / time.Millisecond)}
	Day    = fixedGranularity{name: "DAY", stepMs: int64(24 * time.Hour / time.Millisecond)}
)

// All collapses an entire query interval into one bucket.
type allGranularity struct{ intervalStartMs int64 }

func (g allGranularity) Truncate(int64) int64     { return g.intervalStartMs }
func (g allGranularity) Next(bucketStartMs int64) int64 {
	return bucketStartMs + 1<<62 // single bucket: never reached again within any real interval
}
func (g allGranularity) Name() string { return "ALL" }

func All(intervalStartMs int64) Granularity { return allGranularity{intervalStartMs: intervalStartMs} }

// ByName resolves one of the fixed granularities by its spec.md query
// granularity string.
func ByName(name string) (Granularity, bool) {
	switch name {
	case "SECOND":
		return Second, true
	case "MINUTE":
		return Minute, true
	case "HOUR":
		return Hour, true
	case "DAY":
		return Day, true
	default:
		return nil, false
	}
}
