// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package expr

import (
	"github.com/google/cel-go/cel"
)

// NewEnv builds a cel.Env declaring one variable per TypeBinding entry plus
// the full built-in function library of spec.md §4.1.
func NewEnv(declared TypeBinding) (*cel.Env, error) {
	opts := make([]cel.EnvOption, 0, len(declared)+1)
	for name, t := range declared {
		opts = append(opts, cel.Variable(name, t))
	}
	opts = append(opts, builtinLibrary()...)
	return cel.NewEnv(opts...)
}
