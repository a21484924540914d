// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

// Package config loads the typed, per-role configuration every chronos
// process subcommand needs: a YAML file read at startup (gopkg.in/yaml.v3),
// with CLI flags (spf13/pflag, via cmd/chronos's cobra commands) overriding
// any field the operator explicitly passed on the command line.
package config

import (
	"os"
	"time"

	"github.com/c2h5oh/datasize"
	"gopkg.in/yaml.v3"

	"github.com/chronoscale/chronos/pkg/broker"
	"github.com/chronoscale/chronos/pkg/chronoserr"
)

// Common fields every role's config embeds.
type Common struct {
	ListenAddr string `yaml:"listenAddr"`
	LogLevel   string `yaml:"logLevel"`
	LogJSON    bool   `yaml:"logJson"`
}

// HistoricalConfig configures a node that serves local segment/incremental-
// index adapters directly (spec.md's historical tier).
type HistoricalConfig struct {
	Common `yaml:",inline"`

	SegmentDir   string            `yaml:"segmentDir"`
	MaxSlabBytes datasize.ByteSize `yaml:"maxSlabBytes"`
}

// BrokerConfig configures the scatter-gather coordination tier.
type BrokerConfig struct {
	Common `yaml:",inline"`

	Nodes              []broker.NodeLocation `yaml:"nodes"`
	PerHostConns       int                   `yaml:"perHostConns"`
	ScatterConcurrency int                   `yaml:"scatterConcurrency"`
	ScatterTimeout     time.Duration         `yaml:"scatterTimeout"`
	DialRetries        uint64                `yaml:"dialRetries"`
}

// OverlordConfig configures the ingestion/task-coordination tier.
type OverlordConfig struct {
	Common `yaml:",inline"`

	TaskQueueDir string `yaml:"taskQueueDir"`
}

// RouterConfig configures the query-entrypoint tier that fronts the broker.
type RouterConfig struct {
	Common `yaml:",inline"`

	BrokerAddr string `yaml:"brokerAddr"`
}

// MiddleManagerConfig configures the tier that runs ingestion tasks the
// overlord assigns it. Deep task-isolation/fleet-execution logic is out of
// scope (spec.md's Non-goals); this carries only what the role needs to
// exist as an addressable, monitorable process in the fleet.
type MiddleManagerConfig struct {
	Common `yaml:",inline"`

	TaskWorkDir string `yaml:"taskWorkDir"`
}

// CoordinatorConfig configures the tier that assigns segments to
// historicals and tracks cluster load. Fleet/ZooKeeper-style consensus is
// out of scope (spec.md's Non-goals); this carries only what the role
// needs to exist as an addressable, monitorable process in the fleet.
type CoordinatorConfig struct {
	Common `yaml:",inline"`

	LoadQueuePeriod time.Duration `yaml:"loadQueuePeriod"`
}

// Load reads the YAML file at path into out (a pointer to one of the
// *Config structs above). An empty path leaves out unchanged, so the
// values already in out plus flag overrides configure the process; a path
// that cannot be read is an error.
func Load(path string, out any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return chronoserr.Wrap(chronoserr.IllegalState, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return chronoserr.Wrap(chronoserr.ParseFailure, err)
	}
	return nil
}
