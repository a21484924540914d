// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package roles

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/chronoscale/chronos/internal/config"
	"github.com/chronoscale/chronos/internal/httpapi"
	"github.com/chronoscale/chronos/internal/logging"
)

// newRouterCmd builds "chronos router": a stable front door that forwards
// every request to the broker, per spec.md §6 (the router carries no query
// logic of its own).
func newRouterCmd() *cobra.Command {
	var configPath string
	cfg := &config.RouterConfig{Common: config.Common{ListenAddr: ":8080", LogLevel: "info"}}

	cmd := &cobra.Command{
		Use:   "router",
		Short: "forward query traffic to the broker behind a stable address",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(configPath, cfg); err != nil {
				return err
			}
			config.ApplyCommonFlags(cmd.Flags(), &cfg.Common)
			logger := logging.New(logging.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON, Role: "router"})
			defer logger.Sync() //nolint:errcheck

			proxy, err := httpapi.NewRouterProxy(cfg.BrokerAddr)
			if err != nil {
				return err
			}

			srv := httpapi.NewServer(cfg.ListenAddr, logger, func(mux *http.ServeMux) {
				mux.Handle("/", proxy)
			})
			return runUntilSignal(srv)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	config.BindCommonFlags(cmd.Flags(), &cfg.Common)
	cmd.Flags().StringVar(&cfg.BrokerAddr, "broker-addr", "", "base URL of the broker this router forwards to")
	return cmd
}
