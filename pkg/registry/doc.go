// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

// Package registry implements the Runtime spec.md's Design Notes call for
// in place of global mutable state: an explicit, passed-around container
// for the two registries a query engine would otherwise keep as package-
// level maps — complex-metric serdes (keyed by value.Desc.ComplexName) and
// the Kind→Runner tool-chest pkg/query already builds. Initialization
// populates it up-front; teardown (Close) drops every registration rather
// than leaving them live for a process that outlives the query.
package registry
