// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package roles

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/chronoscale/chronos/internal/config"
	"github.com/chronoscale/chronos/internal/httpapi"
	"github.com/chronoscale/chronos/internal/logging"
)

// newOverlordCmd builds "chronos overlord": the task-coordination tier.
// Assigning and tracking ingestion tasks across a middleManager fleet is
// out of scope (spec.md's Non-goals exclude fleet-coordination code), so
// this role exposes only the ambient surface (health, metrics) a real
// deployment would still need to address the process.
func newOverlordCmd() *cobra.Command {
	var configPath string
	cfg := &config.OverlordConfig{Common: config.Common{ListenAddr: ":8090", LogLevel: "info"}}

	cmd := &cobra.Command{
		Use:   "overlord",
		Short: "coordinate ingestion tasks across the middleManager fleet",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(configPath, cfg); err != nil {
				return err
			}
			config.ApplyCommonFlags(cmd.Flags(), &cfg.Common)
			logger := logging.New(logging.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON, Role: "overlord"})
			defer logger.Sync() //nolint:errcheck

			srv := httpapi.NewServer(cfg.ListenAddr, logger, func(mux *http.ServeMux) {})
			return runUntilSignal(srv)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	config.BindCommonFlags(cmd.Flags(), &cfg.Common)
	cmd.Flags().StringVar(&cfg.TaskQueueDir, "task-queue-dir", "", "directory backing the pending-task queue (reserved; task execution is out of scope)")
	return cmd
}
