// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

// Package wire translates spec.md §6's JSON query wire format — the body
// POSTed to /druid/v2/ — into an engine-native pkg/query.Spec, and the
// reverse for scattering a resolved Spec to peer nodes. It is the one seam
// pkg/query.ToolChestPlanner's Decode field and pkg/broker.RequestEncoder
// were deliberately left open for, so the core query engine never depends
// on a concrete wire JSON shape.
package wire
