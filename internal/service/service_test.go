package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jason-marshall/defense-pm-tool-sub005/internal/cpm"
	"github.com/jason-marshall/defense-pm-tool-sub005/internal/ctxlog"
	"github.com/jason-marshall/defense-pm-tool-sub005/internal/graph"
	"github.com/jason-marshall/defense-pm-tool-sub005/internal/metrics"
)

type slowEngine struct {
	delay time.Duration
}

func (e slowEngine) Calculate(a []graph.Activity, d []graph.Dependency) (*cpm.Schedule, error) {
	time.Sleep(e.delay)
	return cpm.Calculate(a, d)
}

func chain() ([]graph.Activity, []graph.Dependency) {
	return []graph.Activity{{ID: "a", Duration: 5}, {ID: "b", Duration: 3}},
		[]graph.Dependency{{Predecessor: "a", Successor: "b"}}
}

func testContext(buf *bytes.Buffer) context.Context {
	return ctxlog.WithLogger(context.Background(), ctxlog.New("debug", "text", buf))
}

func TestCalculate_Success(t *testing.T) {
	var logs bytes.Buffer
	svc := New(nil, Options{MaxActivities: 10, Timeout: time.Second})

	acts, deps := chain()
	s, err := svc.Calculate(testContext(&logs), acts, deps)
	require.NoError(t, err)
	assert.Equal(t, 8, s.ProjectDuration())
	assert.Contains(t, logs.String(), "schedule calculated")
	assert.Contains(t, logs.String(), "project_duration=8")
}

func TestCalculate_TooLarge(t *testing.T) {
	svc := New(nil, Options{MaxActivities: 1})

	acts, deps := chain()
	s, err := svc.Calculate(context.Background(), acts, deps)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Equal(t, metrics.OutcomeTooLarge, classify(err))
}

func TestCalculate_Timeout(t *testing.T) {
	var logs bytes.Buffer
	svc := New(slowEngine{delay: 200 * time.Millisecond}, Options{Timeout: 10 * time.Millisecond})

	acts, deps := chain()
	s, err := svc.Calculate(testContext(&logs), acts, deps)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, logs.String(), "outcome=timeout")
}

func TestCalculate_CancelledContext(t *testing.T) {
	svc := New(nil, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	acts, deps := chain()
	_, err := svc.Calculate(ctx, acts, deps)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculate_CycleNoPartialResult(t *testing.T) {
	svc := New(nil, Options{Timeout: time.Second})
	acts := []graph.Activity{{ID: "a"}, {ID: "b"}}
	deps := []graph.Dependency{{Predecessor: "a", Successor: "b"}, {Predecessor: "b", Successor: "a"}}

	s, err := svc.Calculate(context.Background(), acts, deps)
	assert.Nil(t, s)
	var cycleErr *graph.CycleError
	require.True(t, errors.As(err, &cycleErr))
	assert.Equal(t, []string{"a", "b"}, cycleErr.Cycle)
	assert.Equal(t, metrics.OutcomeCycle, classify(err))
}

func TestCompile(t *testing.T) {
	svc := New(nil, Options{MaxActivities: 5})
	acts, deps := chain()

	n, err := svc.Compile(context.Background(), acts, deps)
	require.NoError(t, err)
	assert.Equal(t, 2, n.Len())

	_, err = New(nil, Options{MaxActivities: 1}).Compile(context.Background(), acts, deps)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestSchedule_CompiledNetwork(t *testing.T) {
	var logs bytes.Buffer
	svc := New(nil, Options{MaxActivities: 10, Timeout: time.Second})

	acts, deps := chain()
	n, err := svc.Compile(context.Background(), acts, deps)
	require.NoError(t, err)

	s, err := svc.Schedule(testContext(&logs), n)
	require.NoError(t, err)
	assert.Equal(t, 8, s.ProjectDuration())
	assert.Equal(t, []string{"a", "b"}, s.CriticalPath())
	assert.Contains(t, logs.String(), "project_duration=8")
}

func TestSchedule_LimitsApply(t *testing.T) {
	acts, deps := chain()
	n, err := cpm.Compile(acts, deps)
	require.NoError(t, err)

	_, err = New(nil, Options{MaxActivities: 1}).Schedule(context.Background(), n)
	assert.ErrorIs(t, err, ErrTooLarge)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(nil, Options{}).Schedule(ctx, n)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, metrics.OutcomeOK, classify(nil))
	assert.Equal(t, metrics.OutcomeInvalid, classify(&graph.UnknownActivityError{ID: "x"}))
}
