package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/chrono60/backend/internal/infrastructure/config"
)

// countingExecutor records executions and can fail the first N attempts
type countingExecutor struct {
	mu       sync.Mutex
	runs     int
	failures int
}

func (e *countingExecutor) Execute(_ context.Context, job *Job) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.runs++
	if e.failures > 0 {
		e.failures--
		return errors.New("transient failure")
	}
	return nil
}

func (e *countingExecutor) runCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runs
}

func TestJobLifecycle(t *testing.T) {
	job := NewJob(JobKindSettlement, time.Now().UTC(), 2)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.False(t, job.ShouldRetry())

	job.Start()
	assert.Equal(t, JobStatusRunning, job.Status)
	require.NotNil(t, job.StartedAt)

	job.Fail("upstream timeout")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "upstream timeout", job.Error)
	require.NotNil(t, job.CompletedAt)
	assert.True(t, job.ShouldRetry())

	job.ScheduleRetry(time.Minute)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	assert.Empty(t, job.Error)
	require.NotNil(t, job.NextRetryAt)

	job.Start()
	job.Fail("again")
	job.ScheduleRetry(time.Minute)
	job.Start()
	job.Fail("still failing")
	// retry budget exhausted
	assert.False(t, job.ShouldRetry())

	job.Complete()
	assert.Equal(t, JobStatusSuccess, job.Status)
}

func TestPool_ExecutesSubmittedJobs(t *testing.T) {
	executor := &countingExecutor{}
	pool := NewPool(PoolConfig{Workers: 2, JobTimeout: time.Second}, executor, zap.NewNop())

	ctx := context.Background()
	require.NoError(t, pool.Start(ctx))
	defer func() { _ = pool.Stop(context.Background()) }()

	job := NewJob(JobKindDepositExpiry, time.Now().UTC(), 0)
	require.NoError(t, pool.Submit(job))

	require.Eventually(t, func() bool {
		return executor.runCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, JobStatusSuccess, job.Status)
}

func TestPool_RetriesFailedJob(t *testing.T) {
	executor := &countingExecutor{failures: 1}
	pool := NewPool(PoolConfig{
		Workers:    1,
		JobTimeout: time.Second,
		RetryDelay: time.Millisecond,
	}, executor, zap.NewNop())

	ctx := context.Background()
	require.NoError(t, pool.Start(ctx))
	defer func() { _ = pool.Stop(context.Background()) }()

	job := NewJob(JobKindSettlement, time.Now().UTC(), 2)
	require.NoError(t, pool.Submit(job))

	require.Eventually(t, func() bool {
		return executor.runCount() == 2 && job.Status == JobStatusSuccess
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, job.RetryCount)
}

func TestPool_SubmitBeforeStart(t *testing.T) {
	pool := NewPool(DefaultPoolConfig(), &countingExecutor{}, zap.NewNop())
	err := pool.Submit(NewJob(JobKindSettlement, time.Now().UTC(), 0))
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func newTestScheduler(clock shared.Clock, executor JobExecutor) *SettlementScheduler {
	return NewSettlementScheduler(config.SettlementConfig{
		Enabled:       true,
		Hour:          3,
		CheckInterval: time.Minute,
		Workers:       1,
	}, executor, clock, zap.NewNop())
}

func TestSettlementScheduler_ShouldSettleOncePerDay(t *testing.T) {
	atHour := time.Date(2025, 8, 18, 3, 5, 0, 0, time.UTC)
	s := newTestScheduler(shared.FixedClock{Instant: atHour}, &countingExecutor{})

	assert.True(t, s.shouldSettle(atHour))
	assert.False(t, s.shouldSettle(atHour.Add(-2*time.Hour)), "wrong hour")

	// once the day is recorded, later ticks in the same hour stay quiet
	s.lastSettledDay = atHour.Truncate(24 * time.Hour)
	assert.False(t, s.shouldSettle(atHour.Add(10*time.Minute)))
	assert.True(t, s.shouldSettle(atHour.AddDate(0, 0, 1)))
}

func TestSettlementScheduler_NextRunTime(t *testing.T) {
	afterHour := time.Date(2025, 8, 18, 10, 0, 0, 0, time.UTC)
	s := newTestScheduler(shared.FixedClock{Instant: afterHour}, &countingExecutor{})

	s.calculateNextRunTime()
	require.NotNil(t, s.nextRunAt)
	assert.Equal(t, time.Date(2025, 8, 19, 3, 0, 0, 0, time.UTC), *s.nextRunAt)
}

func TestSettlementScheduler_TriggerManualRun(t *testing.T) {
	executor := &countingExecutor{}
	s := newTestScheduler(shared.FixedClock{Instant: time.Date(2025, 8, 18, 10, 0, 0, 0, time.UTC)}, executor)

	assert.ErrorIs(t, s.TriggerManualRun(), ErrSchedulerNotRunning)

	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	require.NoError(t, s.TriggerManualRun())
	require.Eventually(t, func() bool {
		return executor.runCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	status := s.GetStatus()
	assert.Equal(t, true, status["enabled"])
	assert.Equal(t, true, status["is_running"])
	assert.Equal(t, 3, status["settlement_hour_utc"])
}
