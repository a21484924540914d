// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package roles

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/chronoscale/chronos/internal/config"
	"github.com/chronoscale/chronos/internal/httpapi"
	"github.com/chronoscale/chronos/internal/logging"
	"github.com/chronoscale/chronos/pkg/registry"
	"github.com/chronoscale/chronos/pkg/segment"
)

// newHistoricalCmd builds "chronos historical": serves queries directly
// against the segments this process holds in its in-memory catalog.
func newHistoricalCmd() *cobra.Command {
	var configPath string
	cfg := &config.HistoricalConfig{Common: config.Common{ListenAddr: ":8083", LogLevel: "info"}}

	cmd := &cobra.Command{
		Use:   "historical",
		Short: "serve queries against locally held segments",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(configPath, cfg); err != nil {
				return err
			}
			config.ApplyCommonFlags(cmd.Flags(), &cfg.Common)
			logger := logging.New(logging.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON, Role: "historical"})
			defer logger.Sync() //nolint:errcheck

			rt := registry.NewDefaultRuntime()
			defer rt.Close()
			metrics := registry.NewPrometheusMetrics(prometheus.DefaultRegisterer)

			catalog := segment.NewCatalog()
			planner := httpapi.NewHistoricalPlanner(catalog)
			handler := httpapi.NewQueryHandler(planner, nil, metrics, logger)

			srv := httpapi.NewServer(cfg.ListenAddr, logger, func(mux *http.ServeMux) {
				handler.Register(mux)
			})
			return runUntilSignal(srv)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	config.BindCommonFlags(cmd.Flags(), &cfg.Common)
	cmd.Flags().StringVar(&cfg.SegmentDir, "segment-dir", "", "directory handed-off segments are persisted under (reserved; on-disk format is out of scope)")
	return cmd
}
