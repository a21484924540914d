// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package filter

import (
	"strconv"

	"github.com/chronoscale/chronos/pkg/chronoserr"
)

var errZeroArgIn = chronoserr.New(chronoserr.IllegalArgument, "in filter requires at least one value")

func parseFloatLenient(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
