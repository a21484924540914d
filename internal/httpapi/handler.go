// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package httpapi

import (
	"io"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/chronoscale/chronos/pkg/chronoserr"
	"github.com/chronoscale/chronos/pkg/query"
	"github.com/chronoscale/chronos/pkg/wire"
)

// QueryHandler answers spec.md §6's /druid/v2/ endpoint: POST runs a
// query through a Lifecycle end to end; DELETE cancels one still running
// by closing its ResultSequence early, the same cancellation-on-close
// mechanism a caller closing the HTTP connection triggers implicitly.
type QueryHandler struct {
	Planner    query.Planner
	Authorizer query.Authorizer // nil disables authorization
	Metrics    query.LifecycleMetrics
	Logger     *zap.Logger

	mu      sync.Mutex
	running map[string]io.Closer
}

// NewQueryHandler builds a QueryHandler ready to register on a ServeMux.
func NewQueryHandler(planner query.Planner, authorizer query.Authorizer, metrics query.LifecycleMetrics, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{
		Planner:    planner,
		Authorizer: authorizer,
		Metrics:    metrics,
		Logger:     logger,
		running:    map[string]io.Closer{},
	}
}

// Register installs this handler's routes on mux.
func (h *QueryHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/druid/v2/", h.serveHTTP)
}

func (h *QueryHandler) serveHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleQuery(w, r)
	case http.MethodDelete:
		h.handleCancel(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *QueryHandler) handleQuery(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 64<<20))
	if err != nil {
		writeErr(w, chronoserr.Wrap(chronoserr.ParseFailure, err))
		return
	}

	lc := query.NewLifecycle(h.Planner, h.Authorizer, h.Metrics, h.Logger)
	queryID, err := lc.Initialize(string(body), map[string]any{})
	if err != nil {
		writeErr(w, err)
		return
	}

	var bytesWritten int64 = -1
	var queryErr error
	defer func() { _ = lc.EmitLogsAndMetrics(queryErr, r.RemoteAddr, bytesWritten) }()

	if _, queryErr = lc.Plan(); queryErr != nil {
		writeErr(w, queryErr)
		return
	}
	principal := r.Header.Get("X-Chronos-Principal")
	allow, queryErr := lc.Authorize(principal)
	if queryErr != nil {
		writeErr(w, queryErr)
		return
	}
	if !allow {
		queryErr = chronoserr.New(chronoserr.Unauthorized, "principal %q denied", principal)
		http.Error(w, queryErr.Error(), http.StatusForbidden)
		return
	}

	seq, queryErr := lc.Execute()
	if queryErr != nil {
		writeErr(w, queryErr)
		return
	}
	h.trackRunning(queryID, seq)
	defer h.untrackRunning(queryID)
	defer seq.Close()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("X-Chronos-Query-Id", queryID)
	cw := &countingWriter{w: w}
	queryErr = wire.WriteResultSequence(cw, seq)
	bytesWritten = cw.n
	if queryErr != nil {
		h.Logger.Error("query execution failed mid-stream", zap.String("queryId", queryID), zap.Error(queryErr))
	}
}

func (h *QueryHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	queryID := r.URL.Path[len("/druid/v2/"):]
	h.mu.Lock()
	closer, ok := h.running[queryID]
	h.mu.Unlock()
	if !ok {
		http.Error(w, "unknown or already-completed query", http.StatusNotFound)
		return
	}
	_ = closer.Close()
	w.WriteHeader(http.StatusAccepted)
}

func (h *QueryHandler) trackRunning(queryID string, seq query.ResultSequence) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.running[queryID] = seq
}

func (h *QueryHandler) untrackRunning(queryID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.running, queryID)
}

func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if chronoserr.KindOf(err) == chronoserr.IllegalArgument || chronoserr.KindOf(err) == chronoserr.ParseFailure {
		status = http.StatusBadRequest
	}
	http.Error(w, err.Error(), status)
}

// countingWriter tallies bytes written for EmitLogsAndMetrics's
// bytesWritten field.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
