package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appsplitting "github.com/zenheart/ordersync/internal/application/splitting"
)

const testShopID = "teststore.myshopify.com"

// ---------------------------------------------------------------------------
// Test Helpers
// ---------------------------------------------------------------------------

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

// manualTestConfig is a valid config with periodic scheduling off, so tests
// control exactly which jobs run.
func manualTestConfig() SyncSchedulerConfig {
	cfg := DefaultSyncSchedulerConfig()
	cfg.Enabled = false
	cfg.ShopID = testShopID
	return cfg
}

// mockSyncExecutor implements SyncExecutor for testing
type mockSyncExecutor struct {
	executeFunc func(ctx context.Context, job *SyncJob) error
	execCount   int32
}

func (m *mockSyncExecutor) Execute(ctx context.Context, job *SyncJob) error {
	atomic.AddInt32(&m.execCount, 1)
	if m.executeFunc != nil {
		return m.executeFunc(ctx, job)
	}
	job.Complete(10, 10, 0, nil)
	return nil
}

// ---------------------------------------------------------------------------
// SyncJob Tests
// ---------------------------------------------------------------------------

func TestNewSyncJob(t *testing.T) {
	startTime := time.Now().Add(-1 * time.Hour)
	endTime := time.Now()

	job := NewSyncJob(testShopID, startTime, endTime, 3)

	assert.NotEqual(t, uuid.Nil, job.ID)
	assert.Equal(t, testShopID, job.ShopID)
	assert.Equal(t, startTime, job.StartTime)
	assert.Equal(t, endTime, job.EndTime)
	assert.Equal(t, SyncJobStatusPending, job.Status)
	assert.Equal(t, 3, job.MaxRetries)
	assert.Nil(t, job.StartedAt)
	assert.Nil(t, job.CompletedAt)
}

func TestSyncJob_Start(t *testing.T) {
	job := NewSyncJob(testShopID, time.Now(), time.Now(), 3)
	job.Error = "previous error"

	job.Start()

	assert.Equal(t, SyncJobStatusRunning, job.Status)
	assert.NotNil(t, job.StartedAt)
	assert.Empty(t, job.Error)
}

func TestSyncJob_Complete(t *testing.T) {
	tests := []struct {
		name         string
		total        int
		success      int
		failed       int
		expectStatus SyncJobStatus
	}{
		{"All success", 100, 100, 0, SyncJobStatusSuccess},
		{"Partial", 100, 80, 20, SyncJobStatusPartial},
		{"All failed", 100, 0, 100, SyncJobStatusFailed},
		{"Empty batch", 0, 0, 0, SyncJobStatusSuccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewSyncJob(testShopID, time.Now(), time.Now(), 3)
			job.Start()

			job.Complete(tt.total, tt.success, tt.failed, nil)

			assert.Equal(t, tt.expectStatus, job.Status)
			assert.NotNil(t, job.CompletedAt)
			assert.Equal(t, tt.total, job.TotalOrders)
		})
	}
}

func TestSyncJob_Fail(t *testing.T) {
	job := NewSyncJob(testShopID, time.Now(), time.Now(), 3)
	job.Start()

	job.Fail("connection timeout")

	assert.Equal(t, SyncJobStatusFailed, job.Status)
	assert.NotNil(t, job.CompletedAt)
	assert.Equal(t, "connection timeout", job.Error)
}

func TestSyncJob_ShouldRetry(t *testing.T) {
	tests := []struct {
		name       string
		status     SyncJobStatus
		retryCount int
		maxRetries int
		expected   bool
	}{
		{"Failed with retries available", SyncJobStatusFailed, 0, 3, true},
		{"Failed max retries reached", SyncJobStatusFailed, 3, 3, false},
		{"Success should not retry", SyncJobStatusSuccess, 0, 3, false},
		{"Partial should not retry", SyncJobStatusPartial, 0, 3, false},
		{"Running should not retry", SyncJobStatusRunning, 0, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &SyncJob{
				Status:     tt.status,
				RetryCount: tt.retryCount,
				MaxRetries: tt.maxRetries,
			}
			assert.Equal(t, tt.expected, job.ShouldRetry())
		})
	}
}

func TestSyncJob_ScheduleRetry_ExponentialBackoff(t *testing.T) {
	job := NewSyncJob(testShopID, time.Now(), time.Now(), 5)
	job.Status = SyncJobStatusFailed
	baseDelay := time.Minute

	// First retry: 1 minute
	job.ScheduleRetry(baseDelay)
	assert.Equal(t, 1, job.RetryCount)
	assert.Equal(t, SyncJobStatusPending, job.Status)
	require.NotNil(t, job.NextRetryAt)
	firstDelay := time.Until(*job.NextRetryAt)
	assert.True(t, firstDelay > 50*time.Second && firstDelay <= time.Minute+time.Second)

	// Second retry: 2 minutes
	job.Status = SyncJobStatusFailed
	job.ScheduleRetry(baseDelay)
	assert.Equal(t, 2, job.RetryCount)
	secondDelay := time.Until(*job.NextRetryAt)
	assert.True(t, secondDelay > 110*time.Second && secondDelay <= 2*time.Minute+time.Second)

	// Third retry: 4 minutes
	job.Status = SyncJobStatusFailed
	job.ScheduleRetry(baseDelay)
	assert.Equal(t, 3, job.RetryCount)
	thirdDelay := time.Until(*job.NextRetryAt)
	assert.True(t, thirdDelay > 230*time.Second && thirdDelay <= 4*time.Minute+time.Second)
}

// ---------------------------------------------------------------------------
// SyncSchedulerConfig Tests
// ---------------------------------------------------------------------------

func TestSyncSchedulerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SyncSchedulerConfig)
		wantErr bool
	}{
		{"Valid default config", func(c *SyncSchedulerConfig) {}, false},
		{"Invalid max concurrent jobs", func(c *SyncSchedulerConfig) { c.MaxConcurrentJobs = 0 }, true},
		{"Invalid job timeout", func(c *SyncSchedulerConfig) { c.JobTimeout = 0 }, true},
		{"Negative retry attempts", func(c *SyncSchedulerConfig) { c.RetryAttempts = -1 }, true},
		{"Invalid sync interval", func(c *SyncSchedulerConfig) { c.SyncInterval = 0 }, true},
		{"Invalid lookback window", func(c *SyncSchedulerConfig) { c.LookbackWindow = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultSyncSchedulerConfig()
			tt.mutate(&config)

			err := config.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// SyncScheduler Tests
// ---------------------------------------------------------------------------

func TestNewSyncScheduler_InvalidConfig(t *testing.T) {
	config := SyncSchedulerConfig{MaxConcurrentJobs: 0}

	scheduler, err := NewSyncScheduler(config, &mockSyncExecutor{}, newTestLogger())

	assert.Error(t, err)
	assert.Nil(t, scheduler)
}

func TestSyncScheduler_StartStop(t *testing.T) {
	scheduler, err := NewSyncScheduler(manualTestConfig(), &mockSyncExecutor{}, newTestLogger())
	require.NoError(t, err)

	ctx := context.Background()

	err = scheduler.Start(ctx)
	require.NoError(t, err)

	// Start again should be idempotent
	err = scheduler.Start(ctx)
	require.NoError(t, err)

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = scheduler.Stop(stopCtx)
	require.NoError(t, err)

	// Stop again should be idempotent
	err = scheduler.Stop(stopCtx)
	require.NoError(t, err)
}

func TestSyncScheduler_SubmitJob_NotRunning(t *testing.T) {
	scheduler, err := NewSyncScheduler(manualTestConfig(), &mockSyncExecutor{}, newTestLogger())
	require.NoError(t, err)

	job := NewSyncJob(testShopID, time.Now(), time.Now(), 3)
	err = scheduler.SubmitJob(job)

	assert.Equal(t, ErrSchedulerNotRunning, err)
}

func TestSyncScheduler_ScheduleSync_Executes(t *testing.T) {
	executor := &mockSyncExecutor{}
	scheduler, err := NewSyncScheduler(manualTestConfig(), executor, newTestLogger())
	require.NoError(t, err)

	ctx := context.Background()
	err = scheduler.Start(ctx)
	require.NoError(t, err)

	err = scheduler.ScheduleSync(time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = scheduler.Stop(stopCtx)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&executor.execCount))
}

func TestSyncScheduler_ScheduleSync_InvalidTimeRange(t *testing.T) {
	scheduler, err := NewSyncScheduler(manualTestConfig(), &mockSyncExecutor{}, newTestLogger())
	require.NoError(t, err)

	ctx := context.Background()
	err = scheduler.Start(ctx)
	require.NoError(t, err)
	defer func() {
		stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		scheduler.Stop(stopCtx)
	}()

	// Start time after end time
	err = scheduler.ScheduleSync(time.Now(), time.Now().Add(-time.Hour))
	assert.Equal(t, ErrInvalidTimeRange, err)

	// Window larger than 7 days
	err = scheduler.ScheduleSync(time.Now().Add(-8*24*time.Hour), time.Now())
	assert.Equal(t, ErrInvalidTimeRange, err)
}

func TestSyncScheduler_JobRetry(t *testing.T) {
	config := manualTestConfig()
	config.RetryDelay = 10 * time.Millisecond

	callCount := int32(0)
	executor := &mockSyncExecutor{
		executeFunc: func(ctx context.Context, job *SyncJob) error {
			count := atomic.AddInt32(&callCount, 1)
			if count < 3 {
				return errors.New("temporary failure")
			}
			job.Complete(10, 10, 0, nil)
			return nil
		},
	}

	scheduler, err := NewSyncScheduler(config, executor, newTestLogger())
	require.NoError(t, err)

	ctx := context.Background()
	err = scheduler.Start(ctx)
	require.NoError(t, err)

	job := NewSyncJob(testShopID, time.Now(), time.Now(), 5)
	err = scheduler.SubmitJob(job)
	require.NoError(t, err)

	// Wait for retries
	time.Sleep(500 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = scheduler.Stop(stopCtx)
	require.NoError(t, err)

	// Two failures then a success
	assert.GreaterOrEqual(t, atomic.LoadInt32(&callCount), int32(3))
}

func TestSyncScheduler_PeriodicScheduling(t *testing.T) {
	config := manualTestConfig()
	config.Enabled = true
	config.SyncInterval = 50 * time.Millisecond

	executor := &mockSyncExecutor{}
	scheduler, err := NewSyncScheduler(config, executor, newTestLogger())
	require.NoError(t, err)

	ctx := context.Background()
	err = scheduler.Start(ctx)
	require.NoError(t, err)

	// First job fires immediately, then one per interval.
	time.Sleep(180 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = scheduler.Stop(stopCtx)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, atomic.LoadInt32(&executor.execCount), int32(2))

	history := scheduler.GetJobHistory(10)
	require.NotEmpty(t, history)
	assert.Equal(t, testShopID, history[0].ShopID)
	// Each periodic job covers the lookback window.
	window := history[0].EndTime.Sub(history[0].StartTime)
	assert.Equal(t, config.LookbackWindow, window)
}

func TestSyncScheduler_GetJobHistory(t *testing.T) {
	executor := &mockSyncExecutor{}
	scheduler, err := NewSyncScheduler(manualTestConfig(), executor, newTestLogger())
	require.NoError(t, err)

	ctx := context.Background()
	err = scheduler.Start(ctx)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		job := NewSyncJob(testShopID, time.Now(), time.Now(), 3)
		err = scheduler.SubmitJob(job)
		require.NoError(t, err)
	}

	time.Sleep(200 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = scheduler.Stop(stopCtx)
	require.NoError(t, err)

	history := scheduler.GetJobHistory(10)
	assert.Len(t, history, 5)

	limitedHistory := scheduler.GetJobHistory(3)
	assert.Len(t, limitedHistory, 3)
}

func TestSyncScheduler_Stats(t *testing.T) {
	scheduler, err := NewSyncScheduler(manualTestConfig(), &mockSyncExecutor{}, newTestLogger())
	require.NoError(t, err)

	stats := scheduler.Stats()

	assert.Equal(t, false, stats["is_running"])
	assert.Contains(t, stats, "periodic_enabled")
	assert.Contains(t, stats, "sync_interval")
	assert.Contains(t, stats, "queued_jobs")
	assert.Contains(t, stats, "history_size")
}

// ---------------------------------------------------------------------------
// SplitSyncExecutor Tests
// ---------------------------------------------------------------------------

type mockSyncService struct {
	result *appsplitting.SyncResult
	err    error
	starts []time.Time
	ends   []time.Time
}

func (m *mockSyncService) SyncOrders(_ context.Context, start, end time.Time) (*appsplitting.SyncResult, error) {
	m.starts = append(m.starts, start)
	m.ends = append(m.ends, end)
	return m.result, m.err
}

func TestSplitSyncExecutor_Execute_Success(t *testing.T) {
	service := &mockSyncService{
		result: &appsplitting.SyncResult{TotalOrders: 5, SuccessCount: 5},
	}
	executor := NewSplitSyncExecutor(service, newTestLogger())

	start := time.Now().Add(-time.Hour)
	end := time.Now()
	job := NewSyncJob(testShopID, start, end, 3)

	err := executor.Execute(context.Background(), job)

	require.NoError(t, err)
	assert.Equal(t, SyncJobStatusSuccess, job.Status)
	assert.Equal(t, 5, job.TotalOrders)
	require.Len(t, service.starts, 1)
	assert.Equal(t, start, service.starts[0])
	assert.Equal(t, end, service.ends[0])
}

func TestSplitSyncExecutor_Execute_PartialBatch(t *testing.T) {
	service := &mockSyncService{
		result: &appsplitting.SyncResult{
			TotalOrders:    5,
			SuccessCount:   3,
			FailedCount:    2,
			FailedOrderIDs: []int64{100, 200},
		},
	}
	executor := NewSplitSyncExecutor(service, newTestLogger())
	job := NewSyncJob(testShopID, time.Now(), time.Now(), 3)

	err := executor.Execute(context.Background(), job)

	// Per-order failures do not fail the job.
	require.NoError(t, err)
	assert.Equal(t, SyncJobStatusPartial, job.Status)
	assert.Equal(t, []int64{100, 200}, job.FailedOrderIDs)
}

func TestSplitSyncExecutor_Execute_BatchError(t *testing.T) {
	service := &mockSyncService{err: errors.New("platform unreachable")}
	executor := NewSplitSyncExecutor(service, newTestLogger())
	job := NewSyncJob(testShopID, time.Now(), time.Now(), 3)

	err := executor.Execute(context.Background(), job)

	assert.ErrorIs(t, err, ErrSyncFailed)
}

func TestSplitSyncExecutor_Execute_Timeout(t *testing.T) {
	service := &mockSyncService{err: context.DeadlineExceeded}
	executor := NewSplitSyncExecutor(service, newTestLogger())
	job := NewSyncJob(testShopID, time.Now(), time.Now(), 3)

	err := executor.Execute(context.Background(), job)

	assert.ErrorIs(t, err, ErrSyncTimeout)
}
