// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

// Command chronos starts one of the six process roles spec.md §6
// documents, each a subcommand under this one root command (matching the
// teacher's "druid <role>" CLI-dispatch idiom): broker, historical,
// overlord, middleManager, coordinator, router.
package main

import (
	"fmt"
	"os"

	"github.com/chronoscale/chronos/cmd/chronos/internal/roles"
)

func main() {
	if err := roles.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
