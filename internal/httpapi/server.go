// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server is the common net/http.Server scaffold every chronos process role
// starts: health check, Prometheus scrape endpoint, and whatever role-
// specific handler (historical's segment scan, broker's scatter-gather,
// router's forward) is registered on top.
type Server struct {
	httpSrv *http.Server
	logger  *zap.Logger
}

// NewServer builds a Server listening on addr. register installs the
// role-specific routes on mux before /healthz and /metrics are added.
func NewServer(addr string, logger *zap.Logger, register func(mux *http.ServeMux)) *Server {
	mux := http.NewServeMux()
	register(mux)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{
		httpSrv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Run starts listening and blocks until ctx is cancelled, then drains
// in-flight requests for up to 10s before returning. A listen failure
// (e.g. port already bound) returns immediately with a non-nil error —
// the caller's cmd/chronos subcommand maps that to a non-zero exit code.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.httpSrv.Addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("graceful shutdown failed", zap.Error(err))
			return err
		}
		return <-errCh
	}
}
