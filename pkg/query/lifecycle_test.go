// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chronoscale/chronos/pkg/chronoserr"
)

type fakePlanner struct {
	result PlannerResult
	err    error
}

func (p fakePlanner) Plan(sql string, context map[string]any) (PlannerResult, error) {
	return p.result, p.err
}

type fakeAuthorizer struct {
	allow  bool
	reason string
}

func (a fakeAuthorizer) Authorize(principal string, dataSources []string) (bool, string) {
	return a.allow, a.reason
}

type fakeSequence struct {
	rows   []any
	pos    int
	closed bool
}

func (s *fakeSequence) Next() (any, bool, error) {
	if s.pos >= len(s.rows) {
		return nil, false, nil
	}
	v := s.rows[s.pos]
	s.pos++
	return v, true, nil
}

func (s *fakeSequence) Close() error {
	s.closed = true
	return nil
}

type fakeMetrics struct {
	timeCalls, byteCalls int
}

func (m *fakeMetrics) ObserveQueryTime(dims map[string]string, ms float64)   { m.timeCalls++ }
func (m *fakeMetrics) ObserveQueryBytes(dims map[string]string, bytes int64) { m.byteCalls++ }

func newTestLifecycle(planner Planner, authorizer Authorizer, metrics LifecycleMetrics) *Lifecycle {
	return NewLifecycle(planner, authorizer, metrics, nil)
}

// TestExecuteOnNewLifecycleIsIllegalState is spec.md §8 scenario S3: calling
// Execute() on a NEW lifecycle must report the target transition's required
// predecessor (AUTHORIZED) as "from", not the caller's actual state (NEW).
func TestExecuteOnNewLifecycleIsIllegalState(t *testing.T) {
	require := require.New(t)

	lc := newTestLifecycle(fakePlanner{}, nil, nil)
	_, err := lc.Execute()
	require.Error(err)
	require.Equal(chronoserr.IllegalState, chronoserr.KindOf(err))
	require.Contains(err.Error(), "from=AUTHORIZED,to=EXECUTING,current=NEW")
}

// TestLifecycleStateTraceIsPrefixOfPermittedPath is spec.md §8 invariant 4:
// the observed state trace across a full successful run is a prefix of one
// of the two permitted paths (...AUTHORIZING -> AUTHORIZED -> EXECUTING ->
// DONE, or ...AUTHORIZING -> UNAUTHORIZED -> DONE).
func TestLifecycleStateTraceIsPrefixOfPermittedPath(t *testing.T) {
	require := require.New(t)

	lc := newTestLifecycle(fakePlanner{result: PlannerResult{
		DataSources: []string{"events"},
		Run:         func() (ResultSequence, error) { return &fakeSequence{}, nil },
	}}, nil, &fakeMetrics{})

	var trace []State
	trace = append(trace, lc.State())
	_, err := lc.Initialize("body", nil)
	require.NoError(err)
	trace = append(trace, lc.State())
	_, err = lc.Plan()
	require.NoError(err)
	trace = append(trace, lc.State())
	allow, err := lc.Authorize("alice")
	require.NoError(err)
	require.True(allow)
	trace = append(trace, lc.State())
	seq, err := lc.Execute()
	require.NoError(err)
	trace = append(trace, lc.State())
	require.NoError(lc.EmitLogsAndMetrics(nil, "127.0.0.1", 0))
	trace = append(trace, lc.State())
	require.NoError(seq.Close())

	require.Equal([]State{
		StateNew, StateInitialized, StatePlanned, StateAuthorized, StateExecuting, StateDone,
	}, trace)
}

// TestLifecycleUnauthorizedPath exercises the deny branch of the two
// permitted paths.
func TestLifecycleUnauthorizedPath(t *testing.T) {
	require := require.New(t)

	lc := newTestLifecycle(fakePlanner{result: PlannerResult{DataSources: []string{"events"}}}, fakeAuthorizer{allow: false, reason: "denied"}, &fakeMetrics{})

	_, err := lc.Initialize("body", nil)
	require.NoError(err)
	_, err = lc.Plan()
	require.NoError(err)
	allow, err := lc.Authorize("mallory")
	require.NoError(err)
	require.False(allow)
	require.Equal(StateUnauthorized, lc.State())

	_, err = lc.Execute()
	require.Error(err)
	require.Contains(err.Error(), "from=AUTHORIZED,to=EXECUTING,current=UNAUTHORIZED")
}

// TestEmitLogsAndMetricsIsIdempotent is spec.md §8 invariant 5: a second
// call logs a warning but does not duplicate metrics.
func TestEmitLogsAndMetricsIsIdempotent(t *testing.T) {
	require := require.New(t)

	metrics := &fakeMetrics{}
	lc := newTestLifecycle(fakePlanner{result: PlannerResult{
		Run: func() (ResultSequence, error) { return &fakeSequence{}, nil },
	}}, nil, metrics)

	_, err := lc.Initialize("body", nil)
	require.NoError(err)
	_, err = lc.Plan()
	require.NoError(err)
	_, err = lc.Authorize("alice")
	require.NoError(err)
	_, err = lc.Execute()
	require.NoError(err)

	require.NoError(lc.EmitLogsAndMetrics(nil, "127.0.0.1", 10))
	require.NoError(lc.EmitLogsAndMetrics(nil, "127.0.0.1", 10))

	require.Equal(1, metrics.timeCalls)
	require.Equal(1, metrics.byteCalls)
}
