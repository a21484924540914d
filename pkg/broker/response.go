// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package broker

import "sync"

// Response-context header names spec.md's scatter-gather protocol defines.
// The HTTP handlers in this module do not set them and ScatterGatherRunner
// does not read them; ResponseContext accumulates the values they carry.
const (
	HeaderQueryFailTime      = "X-Chronos-Query-Fail-Time"
	HeaderTotalBytesGathered = "X-Chronos-Total-Bytes-Gathered"
)

// ResponseContext accumulates the per-node accounting headers across a
// scatter-gather fan-out.
type ResponseContext struct {
	mu                 sync.Mutex
	QueryFailTimeMs    int64
	TotalBytesGathered int64
}

// NewResponseContext returns an empty, ready-to-use accumulator.
func NewResponseContext() *ResponseContext { return &ResponseContext{} }

// Merge folds one node's reported byte count and, if set, its failure
// timestamp into rc. Safe for concurrent use across the fan-out's
// goroutines.
func (rc *ResponseContext) Merge(bytesGathered, failTimeMs int64) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.TotalBytesGathered += bytesGathered
	if failTimeMs > 0 && (rc.QueryFailTimeMs == 0 || failTimeMs < rc.QueryFailTimeMs) {
		rc.QueryFailTimeMs = failTimeMs
	}
}

// Snapshot returns the current accumulated totals.
func (rc *ResponseContext) Snapshot() (bytesGathered, failTimeMs int64) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.TotalBytesGathered, rc.QueryFailTimeMs
}
