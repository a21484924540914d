// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

// Package httpapi wires pkg/query's Lifecycle state machine, pkg/wire's
// JSON decode/encode, and a process's local segment catalog (or the
// broker's scatter-gather client) behind the /druid/v2/ HTTP surface
// spec.md §6 documents. It is the concrete "external collaborator" every
// cmd/chronos subcommand starts.
package httpapi
