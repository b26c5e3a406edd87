package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	appsplitting "github.com/zenheart/ordersync/internal/application/splitting"
)

// SyncService is the slice of the split application service the executor
// needs. Satisfied by *appsplitting.SplitService.
type SyncService interface {
	SyncOrders(ctx context.Context, start, end time.Time) (*appsplitting.SyncResult, error)
}

// SplitSyncExecutor bridges sync jobs to the split service's batch run.
type SplitSyncExecutor struct {
	service SyncService
	logger  *zap.Logger
}

// NewSplitSyncExecutor creates a new executor around the split service
func NewSplitSyncExecutor(service SyncService, logger *zap.Logger) *SplitSyncExecutor {
	return &SplitSyncExecutor{
		service: service,
		logger:  logger,
	}
}

// Execute runs the fetch-and-split batch for the job's window and records
// the batch counters on the job. Per-order failures inside the batch do not
// fail the job; they surface as a PARTIAL status.
func (e *SplitSyncExecutor) Execute(ctx context.Context, job *SyncJob) error {
	result, err := e.service.SyncOrders(ctx, job.StartTime, job.EndTime)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return ErrSyncTimeout
		}
		return fmt.Errorf("%w: %v", ErrSyncFailed, err)
	}

	job.Complete(result.TotalOrders, result.SuccessCount, result.FailedCount, result.FailedOrderIDs)

	if result.FailedCount > 0 {
		e.logger.Warn("Sync batch completed with failed orders",
			zap.String("job_id", job.ID.String()),
			zap.String("shop_id", job.ShopID),
			zap.Int("failed_count", result.FailedCount),
			zap.Int64s("failed_order_ids", result.FailedOrderIDs),
		)
	}
	return nil
}

// Ensure SplitSyncExecutor implements SyncExecutor
var _ SyncExecutor = (*SplitSyncExecutor)(nil)
