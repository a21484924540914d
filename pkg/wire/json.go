// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package wire

import jsoniter "github.com/json-iterator/go"

// json is the shared jsoniter codec every file in this package decodes
// and encodes with, matching broker's streaming jsoniter.Decoder use on the
// read side of the same wire format.
var json = jsoniter.ConfigCompatibleWithStandardLibrary
