// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package roles

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/chronoscale/chronos/internal/config"
	"github.com/chronoscale/chronos/internal/httpapi"
	"github.com/chronoscale/chronos/internal/logging"
	"github.com/chronoscale/chronos/pkg/broker"
	"github.com/chronoscale/chronos/pkg/registry"
	"github.com/chronoscale/chronos/pkg/wire"
)

// newBrokerCmd builds "chronos broker": scatters queries to the
// historicals in its node list and merges their partial results.
func newBrokerCmd() *cobra.Command {
	var configPath string
	cfg := &config.BrokerConfig{
		Common:             config.Common{ListenAddr: ":8082", LogLevel: "info"},
		PerHostConns:       8,
		ScatterConcurrency: 16,
		ScatterTimeout:     30_000_000_000, // 30s, in time.Duration's ns units
		DialRetries:        3,
	}

	cmd := &cobra.Command{
		Use:   "broker",
		Short: "scatter queries to historicals and merge their results",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(configPath, cfg); err != nil {
				return err
			}
			config.ApplyCommonFlags(cmd.Flags(), &cfg.Common)
			logger := logging.New(logging.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON, Role: "broker"})
			defer logger.Sync() //nolint:errcheck

			rt := registry.NewDefaultRuntime()
			defer rt.Close()
			metrics := registry.NewPrometheusMetrics(prometheus.DefaultRegisterer)

			client := broker.NewClientWithRetries(cfg.ScatterTimeout, cfg.PerHostConns, cfg.DialRetries)
			runner := broker.ScatterGatherRunner{
				Client:      client,
				Nodes:       cfg.Nodes,
				Encode:      wire.EncodeSpec,
				Concurrency: cfg.ScatterConcurrency,
			}
			planner := httpapi.BrokerPlanner{Runner: runner}
			handler := httpapi.NewQueryHandler(planner, nil, metrics, logger)

			srv := httpapi.NewServer(cfg.ListenAddr, logger, func(mux *http.ServeMux) {
				handler.Register(mux)
			})
			return runUntilSignal(srv)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	config.BindCommonFlags(cmd.Flags(), &cfg.Common)
	cmd.Flags().IntVar(&cfg.PerHostConns, "per-host-conns", cfg.PerHostConns, "bounded concurrent requests per historical host")
	cmd.Flags().IntVar(&cfg.ScatterConcurrency, "scatter-concurrency", cfg.ScatterConcurrency, "bounded fan-out width across nodes")
	cmd.Flags().DurationVar(&cfg.ScatterTimeout, "scatter-timeout", cfg.ScatterTimeout, "per-request timeout to a historical node")
	cmd.Flags().Uint64Var(&cfg.DialRetries, "dial-retries", cfg.DialRetries, "transient dial failures retried per node before giving up")
	return cmd
}
