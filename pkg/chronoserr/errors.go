// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

// Package chronoserr defines the stable error taxonomy surfaced across the
// scatter-gather boundary: every error the engine raises carries one of the
// Kinds below so brokers can serialize it and callers can branch on it.
package chronoserr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is one of the stable error kinds from the error handling design.
type Kind string

const (
	ParseFailure     Kind = "ParseFailure"
	IllegalState     Kind = "IllegalState"
	IllegalArgument  Kind = "IllegalArgument"
	Unauthorized     Kind = "Unauthorized"
	Cancelled        Kind = "Cancelled"
	Interrupted      Kind = "Interrupted"
	ResourceExhausted Kind = "ResourceExhausted"
	NotMergeable     Kind = "NotMergeable"
	Remote           Kind = "Remote"
	Internal         Kind = "Internal"
)

// Error wraps a Kind with a causing error carrying stack context.
type Error struct {
	Kind  Kind
	cause error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.cause.Error())
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a Kind-tagged error with a formatted message and stack trace.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, cause: errors.Errorf(format, args...)}
}

// Wrap attaches a Kind to an existing error, preserving its stack if it has one.
func Wrap(kind Kind, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, cause: errors.WithStack(err)}
}

// KindOf extracts the Kind of err, defaulting to Internal for untagged errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if err == nil {
		return ""
	}
	return Internal
}

// Is reports whether err (or anything it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IllegalStatef builds an IllegalState error naming the current and attempted
// transitions, matching the wire shape `IllegalState("from=X,to=Y,current=Z")`.
func IllegalStatef(from, to, current string) *Error {
	return New(IllegalState, "from=%s,to=%s,current=%s", from, to, current)
}
