// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package roles

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/chronoscale/chronos/internal/config"
	"github.com/chronoscale/chronos/internal/httpapi"
	"github.com/chronoscale/chronos/internal/logging"
)

// newCoordinatorCmd builds "chronos coordinator": the tier that assigns
// segments to historicals and tracks cluster load. Fleet-consensus/
// ZooKeeper-style coordination is out of scope (spec.md's Non-goals), so
// this role exposes only the ambient surface (health, metrics) a real
// deployment would still need to address the process.
func newCoordinatorCmd() *cobra.Command {
	var configPath string
	cfg := &config.CoordinatorConfig{Common: config.Common{ListenAddr: ":8092", LogLevel: "info"}}

	cmd := &cobra.Command{
		Use:   "coordinator",
		Short: "assign segments to historicals and track cluster load",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(configPath, cfg); err != nil {
				return err
			}
			config.ApplyCommonFlags(cmd.Flags(), &cfg.Common)
			logger := logging.New(logging.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON, Role: "coordinator"})
			defer logger.Sync() //nolint:errcheck

			srv := httpapi.NewServer(cfg.ListenAddr, logger, func(mux *http.ServeMux) {})
			return runUntilSignal(srv)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	config.BindCommonFlags(cmd.Flags(), &cfg.Common)
	cmd.Flags().DurationVar(&cfg.LoadQueuePeriod, "load-queue-period", 60_000_000_000, "interval between cluster load-queue reevaluations (reserved; load balancing is out of scope)")
	return cmd
}
