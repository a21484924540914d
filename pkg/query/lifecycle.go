// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

// Package query implements the per-query lifecycle state machine of
// spec.md §4.6: initialize → plan → authorize → execute → emit, plus the
// tool-chest-driven runner composition and result forwarding that sit atop
// it.
package query

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chronoscale/chronos/pkg/chronoserr"
)

// State is one phase of a query's lifecycle.
type State string

const (
	StateNew          State = "NEW"
	StateInitialized  State = "INITIALIZED"
	StatePlanned      State = "PLANNED"
	StateAuthorizing  State = "AUTHORIZING"
	StateAuthorized   State = "AUTHORIZED"
	StateExecuting    State = "EXECUTING"
	StateUnauthorized State = "UNAUTHORIZED"
	StateDone         State = "DONE"
)

// transitions enumerates every legal (from, to) edge per spec.md §4.6's
// two permitted paths.
var transitions = map[State][]State{
	StateNew:          {StateInitialized},
	StateInitialized:  {StatePlanned},
	StatePlanned:      {StateAuthorizing},
	StateAuthorizing:  {StateAuthorized, StateUnauthorized},
	StateAuthorized:   {StateExecuting},
	StateExecuting:    {StateDone},
	StateUnauthorized: {StateDone},
	StateDone:         {StateDone}, // terminal, idempotent for metric emission only
}

// requiredFrom inverts transitions: requiredFrom[to] names the state a
// transition into to is legally reached from, so an IllegalState error can
// name that predecessor rather than the caller's actual (and possibly
// unrelated) state — e.g. calling Execute() on a NEW lifecycle must report
// "from=AUTHORIZED,to=EXECUTING,current=NEW" (spec.md §8 scenario S3), not
// "from=NEW,to=EXECUTING,current=NEW". StateDone has three predecessors
// (EXECUTING, UNAUTHORIZED and DONE itself); since it is terminal and only
// ever entered at the end of a real run, which of them wins this map build is
// immaterial to any scenario the spec names.
var requiredFrom = func() map[State]State {
	m := make(map[State]State, len(transitions))
	for from, tos := range transitions {
		for _, to := range tos {
			m[to] = from
		}
	}
	return m
}()

// PlannerResult is what plan() produces: datasources for authorization, a
// row-type description, and a lazy run() callable.
type PlannerResult struct {
	DataSources []string
	RowType     string
	Run         func() (ResultSequence, error)
}

// ResultSequence is a lazy, explicitly-closed sequence of result rows;
// closing it is the cancellation signal (spec.md §4.6 "execute").
type ResultSequence interface {
	Next() (row any, ok bool, err error)
	Close() error
}

// Authorizer decides whether principal may read dataSources.
type Authorizer interface {
	Authorize(principal string, dataSources []string) (allow bool, reason string)
}

// Planner turns a query body into a PlannerResult.
type Planner interface {
	Plan(sql string, context map[string]any) (PlannerResult, error)
}

// Lifecycle drives one query's state machine. A single mutex guards both
// state and phase outputs, per spec.md's "thread-safe... single mutex"
// requirement.
type Lifecycle struct {
	mu sync.Mutex

	state State
	id    string

	planner    Planner
	authorizer Authorizer // nil means authorization is disabled

	sql     string
	context map[string]any

	plannerResult PlannerResult
	allow         bool
	denyReason    string

	startedAt time.Time
	emitted   bool

	logger *zap.Logger
	stats  LifecycleMetrics
}

// LifecycleMetrics is the narrow recording surface emitLogsAndMetrics
// writes to; pkg/registry wires this to Prometheus counters/histograms.
type LifecycleMetrics interface {
	ObserveQueryTime(dims map[string]string, ms float64)
	ObserveQueryBytes(dims map[string]string, bytes int64)
}

// NewLifecycle builds a NEW-state lifecycle. planner is required;
// authorizer may be nil to disable authorization (auto-allow).
func NewLifecycle(planner Planner, authorizer Authorizer, metrics LifecycleMetrics, logger *zap.Logger) *Lifecycle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lifecycle{state: StateNew, planner: planner, authorizer: authorizer, stats: metrics, logger: logger}
}

func (l *Lifecycle) transition(to State) error {
	allowed := transitions[l.state]
	for _, s := range allowed {
		if s == to {
			l.state = to
			return nil
		}
	}
	return chronoserr.IllegalStatef(string(requiredFrom[to]), string(to), string(l.state))
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Initialize stamps a unique query id into context if absent and
// transitions NEW → INITIALIZED.
func (l *Lifecycle) Initialize(sql string, context map[string]any) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.transition(StateInitialized); err != nil {
		return "", err
	}
	if context == nil {
		context = map[string]any{}
	}
	if _, ok := context["queryId"]; !ok {
		context["queryId"] = uuid.NewString()
	}
	l.sql = sql
	l.context = context
	l.id = context["queryId"].(string)
	l.startedAt = time.Now()
	return l.id, nil
}

// Plan invokes the planner and transitions INITIALIZED → PLANNED.
func (l *Lifecycle) Plan() (PlannerResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.transition(StatePlanned); err != nil {
		return PlannerResult{}, err
	}
	pr, err := l.planner.Plan(l.sql, l.context)
	if err != nil {
		return PlannerResult{}, chronoserr.Wrap(chronoserr.IllegalArgument, err)
	}
	l.plannerResult = pr
	return pr, nil
}

// Authorize consults the authorizer (or auto-allows if disabled) and
// transitions PLANNED → AUTHORIZING → {AUTHORIZED, UNAUTHORIZED}.
func (l *Lifecycle) Authorize(principal string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.transition(StateAuthorizing); err != nil {
		return false, err
	}
	if l.authorizer == nil {
		l.allow = true
	} else {
		l.allow, l.denyReason = l.authorizer.Authorize(principal, l.plannerResult.DataSources)
	}
	next := StateAuthorized
	if !l.allow {
		next = StateUnauthorized
	}
	if err := l.transition(next); err != nil {
		return false, err
	}
	return l.allow, nil
}

// Execute calls plannerResult.Run() and transitions AUTHORIZED → EXECUTING.
func (l *Lifecycle) Execute() (ResultSequence, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.transition(StateExecuting); err != nil {
		return nil, err
	}
	return l.plannerResult.Run()
}

// EmitLogsAndMetrics is idempotent: a second call logs a warning and
// returns nil without duplicating metrics (spec.md invariant 5).
func (l *Lifecycle) EmitLogsAndMetrics(queryErr error, remoteAddress string, bytesWritten int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateDone {
		if err := l.transition(StateDone); err != nil {
			return err
		}
	}

	if l.emitted {
		l.logger.Warn("emitLogsAndMetrics called more than once", zap.String("queryId", l.id))
		return nil
	}
	l.emitted = true

	success := queryErr == nil
	dims := map[string]string{
		"id":            l.id,
		"remoteAddress": remoteAddress,
		"success":       boolDim(success),
	}
	elapsedMs := float64(time.Since(l.startedAt).Milliseconds())
	if l.stats != nil {
		l.stats.ObserveQueryTime(dims, elapsedMs)
		if bytesWritten >= 0 {
			l.stats.ObserveQueryBytes(dims, bytesWritten)
		}
	}

	fields := []zap.Field{
		zap.String("queryId", l.id),
		zap.String("sql", l.sql),
		zap.Float64("timeMs", elapsedMs),
		zap.Bool("success", success),
		zap.Strings("dataSources", l.plannerResult.DataSources),
	}
	if queryErr != nil {
		fields = append(fields, zap.Error(queryErr))
		l.logger.Error("query completed with error", fields...)
	} else {
		l.logger.Info("query completed", fields...)
	}
	return nil
}

func boolDim(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
