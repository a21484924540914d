// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

// Package logging builds the structured, per-role *zap.Logger every chronos
// process injects into its Lifecycle/runner/broker components (see
// pkg/query.NewLifecycle), instead of each component reaching for its own
// ad hoc logger.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls one process's logger construction.
type Config struct {
	// Level is one of "debug", "info", "warn", "error" (case-insensitive);
	// defaults to "info" if empty or unrecognized.
	Level string
	// JSON selects the production JSON encoder; false uses the
	// human-readable console encoder (local/dev runs).
	JSON bool
	// Role names the process (e.g. "broker", "historical") and is attached
	// to every log line so a shared log sink can filter by it.
	Role string
}

// New builds a *zap.Logger per cfg. Construction never fails: an
// unparsable level silently falls back to info rather than aborting
// process startup over a logging config typo.
func New(cfg Config) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if !cfg.JSON {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	level := zapcore.InfoLevel
	_ = level.Set(cfg.Level) // non-nil err leaves level at its current value (info)
	zcfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zcfg.Build()
	if err != nil {
		// zcfg.Build only fails on a malformed encoder/output-path config,
		// none of which this package constructs; fall back to a safe
		// minimal logger rather than propagating a startup error for
		// something this narrow.
		logger = zap.NewNop()
	}
	if cfg.Role != "" {
		logger = logger.With(zap.String("role", cfg.Role))
	}
	return logger
}
