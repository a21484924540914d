// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

// Package broker implements the scatter-gather client spec.md §4.7
// describes: fan out a query to every historical/peer broker that owns a
// relevant segment, stream back partial results, merge them in bounded
// memory, and propagate cancellation to every still-running peer when the
// caller closes the result sequence early.
package broker

// NodeLocation addresses one queryable peer (a historical process, or
// another broker one level down a query-routing tree).
type NodeLocation struct {
	ID      string
	BaseURL string // e.g. "http://10.0.1.12:8083"
}
