package cron

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/angelmondragon/zedmarket-backend/pkg/logger"
	"github.com/angelmondragon/zedmarket-backend/pkg/metrics"
)

type fakeLock struct {
	held     bool
	err      error
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.releases++
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func TestRunCycleRunsAllJobsAndCombinesErrors(t *testing.T) {
	ok := &testJob{name: "ok"}
	failA := &testJob{name: "fail-a", err: errors.New("boom")}
	failB := &testJob{name: "fail-b", err: errors.New("bang")}
	registry, err := NewRegistry(failA, ok, failB)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	collector := metrics.NewCronJobMetrics(reg)
	lock := &fakeLock{}
	svc, err := NewService(ServiceParams{Logger: testLogger(), Registry: registry, Lock: lock, Metrics: collector})
	require.NoError(t, err)

	err = svc.runCycle(context.Background())
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Contains(t, err.Error(), "fail-a")
	assert.Contains(t, err.Error(), "fail-b")

	assert.Equal(t, 1, ok.runs)
	assert.Equal(t, 1, failA.runs)
	assert.Equal(t, 1, failB.runs)
	assert.Equal(t, 1, lock.releases)
	assert.False(t, lock.held)
}

func TestRunCycleSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "job"}
	registry, err := NewRegistry(job)
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{Logger: testLogger(), Registry: registry, Lock: &fakeLock{held: true}})
	require.NoError(t, err)

	require.NoError(t, svc.runCycle(context.Background()))
	assert.Zero(t, job.runs)
}

func TestRunCycleLockError(t *testing.T) {
	svc, err := NewService(ServiceParams{Logger: testLogger(), Lock: &fakeLock{err: errors.New("redis down")}})
	require.NoError(t, err)
	assert.ErrorContains(t, svc.runCycle(context.Background()), "lock acquire")
}

func TestRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "job"}
	registry, err := NewRegistry(job)
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{Logger: testLogger(), Registry: registry, Lock: &fakeLock{}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, svc.Run(ctx), context.Canceled)
	assert.Equal(t, 1, job.runs)
}

func TestNewServiceRequiresLock(t *testing.T) {
	_, err := NewService(ServiceParams{Logger: testLogger()})
	assert.Error(t, err)
}

func TestRunCycleRecordsMetrics(t *testing.T) {
	registry, err := NewRegistry(&testJob{name: "good"}, &testJob{name: "bad", err: errors.New("x")})
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	collector := metrics.NewCronJobMetrics(reg)
	svc, err := NewService(ServiceParams{Logger: testLogger(), Registry: registry, Lock: &fakeLock{}, Metrics: collector})
	require.NoError(t, err)

	_ = svc.runCycle(context.Background())
	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Positive(t, count)
}
