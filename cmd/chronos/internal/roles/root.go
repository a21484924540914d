// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

// Package roles builds the cobra command tree cmd/chronos's main wires up:
// one subcommand per process role, each loading its typed YAML config,
// overlaying explicit flags, building a logger and metrics registry, and
// blocking on an httpapi.Server until an interrupt signal or startup
// failure — exit code 0 on clean shutdown, non-zero otherwise (spec.md §6).
package roles

import (
	"github.com/spf13/cobra"
)

// Root builds the "chronos" root command with every role subcommand
// attached.
func Root() *cobra.Command {
	root := &cobra.Command{
		Use:   "chronos",
		Short: "chronos is a time-oriented columnar analytics engine",
		SilenceUsage: true,
	}
	root.AddCommand(
		newHistoricalCmd(),
		newBrokerCmd(),
		newRouterCmd(),
		newOverlordCmd(),
		newMiddleManagerCmd(),
		newCoordinatorCmd(),
	)
	return root
}
