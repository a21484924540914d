// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package roles

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/chronoscale/chronos/internal/config"
	"github.com/chronoscale/chronos/internal/httpapi"
	"github.com/chronoscale/chronos/internal/logging"
)

// newMiddleManagerCmd builds "chronos middleManager": the tier that runs
// ingestion tasks the overlord assigns it. Actually executing and
// isolating those tasks is out of scope (spec.md's Non-goals exclude
// fleet-execution code), so this role exposes only the ambient surface
// (health, metrics) a real deployment would still need to address the
// process.
func newMiddleManagerCmd() *cobra.Command {
	var configPath string
	cfg := &config.MiddleManagerConfig{Common: config.Common{ListenAddr: ":8091", LogLevel: "info"}}

	cmd := &cobra.Command{
		Use:   "middleManager",
		Short: "run ingestion tasks assigned by the overlord",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(configPath, cfg); err != nil {
				return err
			}
			config.ApplyCommonFlags(cmd.Flags(), &cfg.Common)
			logger := logging.New(logging.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON, Role: "middleManager"})
			defer logger.Sync() //nolint:errcheck

			srv := httpapi.NewServer(cfg.ListenAddr, logger, func(mux *http.ServeMux) {})
			return runUntilSignal(srv)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	config.BindCommonFlags(cmd.Flags(), &cfg.Common)
	cmd.Flags().StringVar(&cfg.TaskWorkDir, "task-work-dir", "", "scratch directory for in-flight ingestion tasks (reserved; task execution is out of scope)")
	return cmd
}
