// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package value

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chronoscale/chronos/pkg/chronoserr"
)

// ParseFailure carries the offending input, per spec.md §7.
type ParseFailure struct {
	Input string
}

func (e *ParseFailure) Error() string { return "cannot parse value: " + strconv.Quote(e.Input) }

// ToLong coerces v, read as a long, following spec.md §4.1's "Coercion on
// read": Number values are cast; strings are parsed tolerantly (leading '+'
// stripped, thousand-separator commas stripped, pure-digit strings parsed as
// integers first, otherwise as decimals truncated toward zero).
//
// Grounded on erigon-lib/common/math.ParseUint64's tolerant hex-or-decimal
// shape: try the cheap exact path before falling back to a more general parse.
func ToLong(v any) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case float32:
		return int64(n), nil
	case string:
		return parseLongString(n)
	default:
		return 0, chronoserr.Wrap(chronoserr.ParseFailure, &ParseFailure{Input: fmtAny(v)})
	}
}

// ToDouble coerces v, read as a double, via the same tolerant rule.
func ToDouble(v any) (float64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case string:
		return parseDoubleString(n)
	default:
		return 0, chronoserr.Wrap(chronoserr.ParseFailure, &ParseFailure{Input: fmtAny(v)})
	}
}

// ToFloat coerces v, read as a float32, narrowing ToDouble's result.
func ToFloat(v any) (float32, error) {
	d, err := ToDouble(v)
	if err != nil {
		return 0, err
	}
	return float32(d), nil
}

func parseLongString(s string) (int64, error) {
	cleaned := cleanNumericString(s)
	if cleaned == "" {
		return 0, nil
	}
	if isPureDigits(cleaned) {
		n, err := strconv.ParseInt(cleaned, 10, 64)
		if err == nil {
			return n, nil
		}
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, chronoserr.Wrap(chronoserr.ParseFailure, &ParseFailure{Input: s})
	}
	return int64(f), nil
}

func parseDoubleString(s string) (float64, error) {
	cleaned := cleanNumericString(s)
	if cleaned == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, chronoserr.Wrap(chronoserr.ParseFailure, &ParseFailure{Input: s})
	}
	return f, nil
}

// cleanNumericString strips a leading '+' and thousand-separator commas.
func cleanNumericString(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "+")
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ",", "")
	}
	return s
}

func isPureDigits(s string) bool {
	if s == "" {
		return false
	}
	start := 0
	if s[0] == '-' {
		start = 1
	}
	if start == len(s) {
		return false
	}
	for i := start; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func fmtAny(v any) string {
	return fmt.Sprintf("%v", v)
}
