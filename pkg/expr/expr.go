// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

// Package expr implements the pure expression language of spec.md §4.1 used
// for virtual columns, predicates, having clauses, and post-aggregators, on
// top of google/cel-go. Constant subexpressions are folded once by CEL's
// own planner at Compile time; the compiled form exposes required bindings
// for schema validation and evaluates against a NumericBinding map.
package expr

import (
	"fmt"
	"regexp"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/chronoscale/chronos/pkg/chronoserr"
)

var identPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// NumericBinding maps an identifier to its bound value for one evaluation.
type NumericBinding map[string]any

// TypeBinding maps an identifier to its static type, used for type
// inference without needing a concrete row (spec.md §4.1).
type TypeBinding map[string]*cel.Type

// Expression is a compiled, reusable expression: required bindings are
// computed once at Compile time and Eval only ever walks the AST.
type Expression struct {
	source   string
	env      *cel.Env
	program  cel.Program
	required []string
}

// Compile parses and type-checks source against the registered function
// library (NewEnv), folding constants and validating arity once. An
// identifier not declared in types fails compilation; the declared
// identifiers source references become the expression's required
// bindings, reported to callers for schema validation.
func Compile(source string, types TypeBinding) (*Expression, error) {
	env, err := NewEnv(types)
	if err != nil {
		return nil, chronoserr.Wrap(chronoserr.Internal, err)
	}
	ast, issues := env.Compile(source)
	if issues != nil && issues.Err() != nil {
		return nil, chronoserr.New(chronoserr.IllegalArgument, "compile %q: %s", source, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, chronoserr.New(chronoserr.IllegalArgument, "program %q: %s", source, err)
	}
	return &Expression{
		source:   source,
		env:      env,
		program:  prg,
		required: requiredBindings(source, types),
	}, nil
}

// RequiredBindings returns the free identifiers source references, used by
// query planning to validate a query's declared columns against its
// expressions before execution.
func (e *Expression) RequiredBindings() []string { return e.required }

func (e *Expression) String() string { return e.source }

// Eval evaluates the compiled expression against binding. A missing
// binding yields CEL's "no such attribute" which chronos treats as null,
// per spec.md §4.1 ("evaluation on a missing binding yields null and
// propagates").
func (e *Expression) Eval(binding NumericBinding) (any, error) {
	vars := make(map[string]any, len(binding))
	for k, v := range binding {
		vars[k] = v
	}
	out, _, err := e.program.Eval(vars)
	if err != nil {
		if isMissingAttribute(err) {
			return nil, nil
		}
		return nil, chronoserr.Wrap(chronoserr.Internal, err)
	}
	return unwrap(out), nil
}

func isMissingAttribute(err error) bool {
	// cel-go reports unbound identifiers as an error containing this
	// substring rather than a typed sentinel.
	const marker = "no such attribute"
	return err != nil && containsFold(err.Error(), marker)
}

func containsFold(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if eqFold(s[i:i+len(substr)], substr) {
			return true
		}
	}
	return false
}

func eqFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

func unwrap(v ref.Val) any {
	if v == nil {
		return nil
	}
	if v.Type() == types.NullType {
		return nil
	}
	return v.Value()
}

// requiredBindings scans source for identifiers matching a declared name in
// types. Only declared identifiers can appear as bare references in a
// successfully compiled expression (anything else would have failed
// env.Compile above as an undeclared reference), so this text scan is exact
// for compiled expressions without needing to walk CEL's internal AST
// representation.
func requiredBindings(source string, declared TypeBinding) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, m := range identPattern.FindAllString(source, -1) {
		if _, ok := declared[m]; !ok {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// MustCompile is a convenience wrapper for statically known expressions
// (built-in default virtual columns); it panics on a compile error.
func MustCompile(source string, types TypeBinding) *Expression {
	e, err := Compile(source, types)
	if err != nil {
		panic(fmt.Sprintf("expr.MustCompile(%q): %v", source, err))
	}
	return e
}
