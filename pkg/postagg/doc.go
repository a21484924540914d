// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

// Package postagg builds the query.PostAggregator family spec.md §9 calls
// out as a supplemented feature: derived output fields computed from one or
// more aggregator results after a query's groups are finalized. Most of
// these read a sketch-typed aggregator's raw (pre-Finalize) state — see
// query.PostAggregator.Inputs — rather than the plain number its own
// Factory.Finalize would otherwise produce, the same way a thetaSketch- or
// quantiles-typed metric stays in its native complex form until a
// post-aggregator consumes it.
package postagg
