// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package roles

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/chronoscale/chronos/internal/httpapi"
)

// runUntilSignal starts srv and blocks until SIGINT/SIGTERM or a startup
// failure, matching spec.md §6's "exit code 0 on clean shutdown, non-zero
// on startup failure" CLI contract: a listen error here propagates up to
// main's os.Exit(1); an operator-issued signal returns nil.
func runUntilSignal(srv *httpapi.Server) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}
