// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

// Package row defines the timestamped record used both as ingestion input
// and as an intermediate query result.
package row

import (
	"fmt"
	"time"

	"github.com/chronoscale/chronos/pkg/value"
)

// Row is a single timestamped record with named, typed fields.
type Row struct {
	// TimestampMs is the event time in epoch milliseconds.
	TimestampMs int64
	fields      map[string]any
}

// New builds a Row at t with the given field values.
func New(t time.Time, fields map[string]any) Row {
	return Row{TimestampMs: t.UnixMilli(), fields: fields}
}

// NewAtMillis builds a Row at an explicit epoch-millis timestamp.
func NewAtMillis(ts int64, fields map[string]any) Row {
	return Row{TimestampMs: ts, fields: fields}
}

func (r Row) Time() time.Time { return time.UnixMilli(r.TimestampMs) }

func (r Row) Raw(field string) any {
	if r.fields == nil {
		return nil
	}
	return r.fields[field]
}

func (r Row) Float(field string) (float32, error)  { return value.ToFloat(r.Raw(field)) }
func (r Row) Long(field string) (int64, error)     { return value.ToLong(r.Raw(field)) }
func (r Row) Double(field string) (float64, error) { return value.ToDouble(r.Raw(field)) }

// Strings returns field as a multi-valued string list: a single string is
// wrapped in a one-element slice, a []string (or []any of strings) is
// returned as-is (order preserved, per spec.md's multi-valued dimension
// invariant), and a nil/absent field yields an empty slice.
func (r Row) Strings(field string) []string {
	v := r.Raw(field)
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return []string{t}
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, toDisplayString(e))
			}
		}
		return out
	default:
		return []string{toDisplayString(v)}
	}
}

// Fields exposes the raw field names present on the row, e.g. for dimension
// resolution during ingestion.
func (r Row) Fields() map[string]any { return r.fields }

func toDisplayString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmtStringer:
		return t.String()
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

type fmtStringer interface{ String() string }
