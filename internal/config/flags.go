// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package config

import "github.com/spf13/pflag"

// BindCommonFlags registers --listen, --log-level, --log-json on fs,
// defaulting to cfg's values at the time of the call (the roles call it
// while building their command, before the YAML file is loaded); ApplyCommonFlags then
// only overwrites cfg's fields the operator actually passed, so a flag
// never silently resets a value the config file set.
func BindCommonFlags(fs *pflag.FlagSet, cfg *Common) {
	fs.String("listen", cfg.ListenAddr, "address to listen on")
	fs.String("log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	fs.Bool("log-json", cfg.LogJSON, "emit structured JSON logs instead of console output")
}

// ApplyCommonFlags copies every explicitly-set flag in fs into cfg.
func ApplyCommonFlags(fs *pflag.FlagSet, cfg *Common) {
	if fs.Changed("listen") {
		cfg.ListenAddr, _ = fs.GetString("listen")
	}
	if fs.Changed("log-level") {
		cfg.LogLevel, _ = fs.GetString("log-level")
	}
	if fs.Changed("log-json") {
		cfg.LogJSON, _ = fs.GetBool("log-json")
	}
}
