// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package registry

import (
	"sync"

	"github.com/chronoscale/chronos/pkg/chronoserr"
	"github.com/chronoscale/chronos/pkg/query"
)

// ComplexSerde marshals one named complex metric type (e.g. "thetaSketch")
// between its live Go value and the bytes a cache entry or a forwarded
// result file carries, keyed by value.Desc.ComplexName.
type ComplexSerde interface {
	TypeName() string
	Serialize(v any) ([]byte, error)
	Deserialize(data []byte) (any, error)
}

// Runtime is the explicit, passed-around registry state spec.md's Design
// Note substitutes for package-level global maps: one per query-serving
// process (broker, historical, ...), built at startup and handed to every
// factory/runner call site that used to reach for global state.
type Runtime struct {
	mu        sync.RWMutex
	serdes    map[string]ComplexSerde
	toolChest *query.ToolChest
}

// NewRuntime returns an empty Runtime with a fresh ToolChest; callers
// register complex serdes via RegisterComplexSerde before serving queries.
func NewRuntime() *Runtime {
	return &Runtime{
		serdes:    map[string]ComplexSerde{},
		toolChest: query.NewToolChest(),
	}
}

// RegisterComplexSerde adds or replaces the serde for its own TypeName().
func (r *Runtime) RegisterComplexSerde(s ComplexSerde) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.serdes[s.TypeName()] = s
}

// ComplexSerdeFor looks up a registered serde by ComplexName.
func (r *Runtime) ComplexSerdeFor(name string) (ComplexSerde, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.serdes[name]
	return s, ok
}

// SerializeComplex serializes v using the serde registered for name,
// erroring if none is registered rather than silently dropping the value.
func (r *Runtime) SerializeComplex(name string, v any) ([]byte, error) {
	s, ok := r.ComplexSerdeFor(name)
	if !ok {
		return nil, chronoserr.New(chronoserr.IllegalState, "no complex serde registered for %q", name)
	}
	return s.Serialize(v)
}

// DeserializeComplex is SerializeComplex's inverse.
func (r *Runtime) DeserializeComplex(name string, data []byte) (any, error) {
	s, ok := r.ComplexSerdeFor(name)
	if !ok {
		return nil, chronoserr.New(chronoserr.IllegalState, "no complex serde registered for %q", name)
	}
	return s.Deserialize(data)
}

// ToolChest returns the Kind→Runner registry this Runtime owns.
func (r *Runtime) ToolChest() *query.ToolChest {
	return r.toolChest
}

// Close drops every registration. A Runtime is not reusable after Close;
// build a new one for the next process lifetime (or test case).
func (r *Runtime) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.serdes = map[string]ComplexSerde{}
	r.toolChest = nil
}
