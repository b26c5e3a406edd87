package splitting

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zenheart/ordersync/internal/domain/splitting"
	"github.com/zenheart/ordersync/internal/infrastructure/logger"
	"github.com/zenheart/ordersync/internal/infrastructure/telemetry"
)

// PayloadParser converts a stored platform payload into a RawOrder. The
// same parser handles fresh pulls and re-splits of persisted snapshots, so
// both paths see identical semantics.
type PayloadParser func(payload []byte) (*splitting.RawOrder, error)

// SyncResult summarizes one batch run. Per-order failures are skipped and
// counted, never fatal to the batch.
type SyncResult struct {
	TotalOrders    int
	SuccessCount   int
	FailedCount    int
	FailedOrderIDs []int64
}

// SplitOutcome describes the derived sub-order set of a single order.
type SplitOutcome struct {
	SourceOrderID int64
	ParentOrderNo string
	SubOrders     []splitting.SubOrder
	Reconciled    bool
}

// SplitService drives the fetch → snapshot → split → replace pipeline for
// one shop. All writes for a given source order are serialized through a
// keyed mutex, so overlapping batch runs and manual triggers cannot
// interleave a replace.
type SplitService struct {
	shopID    string
	source    splitting.OrderSource
	parse     PayloadParser
	rawOrders splitting.RawOrderRepository
	subOrders splitting.SubOrderRepository
	splitter  *splitting.Splitter
	logger    *zap.Logger

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
}

// NewSplitService creates a SplitService for a single shop.
func NewSplitService(
	shopID string,
	source splitting.OrderSource,
	parse PayloadParser,
	rawOrders splitting.RawOrderRepository,
	subOrders splitting.SubOrderRepository,
	splitter *splitting.Splitter,
	logger *zap.Logger,
) *SplitService {
	return &SplitService{
		shopID:    shopID,
		source:    source,
		parse:     parse,
		rawOrders: rawOrders,
		subOrders: subOrders,
		splitter:  splitter,
		logger:    logger,
		locks:     make(map[int64]*sync.Mutex),
	}
}

// ShopID returns the shop this service operates on.
func (s *SplitService) ShopID() string {
	return s.shopID
}

// ---------------------------------------------------------------------------
// Batch Sync
// ---------------------------------------------------------------------------

// SyncOrders pulls all orders created within [start, end] from the platform,
// stores each snapshot, and replaces its sub-order set. Orders that fail to
// store or split are logged and counted, and the batch continues. A fetch
// failure aborts the batch only when no page has been processed yet;
// otherwise the partial result is returned.
func (s *SplitService) SyncOrders(ctx context.Context, start, end time.Time) (*SyncResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "split", "sync_orders",
		telemetry.WithAttribute(telemetry.SpanAttrShopID, s.shopID),
	)
	defer span.End()

	ctx = logger.WithShopID(ctx, s.shopID)
	clog := logger.WithLogger(ctx, s.logger)

	result := &SyncResult{FailedOrderIDs: make([]int64, 0)}
	cursor := ""

	for {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		page, err := s.source.PullOrders(ctx, splitting.PullRequest{
			CreatedAtMin: start,
			CreatedAtMax: end,
			Cursor:       cursor,
		})
		if err != nil {
			if result.TotalOrders > 0 {
				clog.Error("Order pull failed mid-batch, keeping partial result",
					zap.Int("orders_so_far", result.TotalOrders),
					zap.Error(err),
				)
				telemetry.AddEvent(span, "pull_aborted_mid_batch",
					telemetry.SpanAttrTotalOrders, result.TotalOrders,
				)
				return result, nil
			}
			telemetry.RecordError(span, err)
			return nil, err
		}

		for i := range page.Orders {
			pulled := &page.Orders[i]
			result.TotalOrders++

			if _, err := s.processOrder(ctx, pulled.Order, pulled.Payload); err != nil {
				clog.Error("Failed to process pulled order",
					zap.Int64("source_order_id", pulled.Order.ID),
					zap.Error(err),
				)
				result.FailedCount++
				result.FailedOrderIDs = append(result.FailedOrderIDs, pulled.Order.ID)
				continue
			}
			result.SuccessCount++
		}

		if !page.HasMore || len(page.Orders) == 0 {
			break
		}
		cursor = page.NextCursor
	}

	clog.Info("Order sync batch finished",
		zap.Time("created_at_min", start),
		zap.Time("created_at_max", end),
		zap.Int("total_orders", result.TotalOrders),
		zap.Int("success_count", result.SuccessCount),
		zap.Int("failed_count", result.FailedCount),
	)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTotalOrders, result.TotalOrders,
		telemetry.SpanAttrFailedOrders, result.FailedCount,
	)
	telemetry.SetOK(span)
	return result, nil
}

// ---------------------------------------------------------------------------
// Single-Order Operations
// ---------------------------------------------------------------------------

// IngestSnapshot stores an externally supplied raw order payload and derives
// its sub-order set. This is the offline path: the payload never touched the
// platform adapter, so it is parsed here before anything is written.
func (s *SplitService) IngestSnapshot(ctx context.Context, payload []byte) (*SplitOutcome, error) {
	raw, err := s.parse(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", splitting.ErrInvalidPayload, err)
	}
	return s.processOrder(ctx, raw, payload)
}

// SplitOrder re-derives the sub-order set of an already stored snapshot.
// Returns ErrRawOrderNotFound when no snapshot exists.
func (s *SplitService) SplitOrder(ctx context.Context, sourceOrderID int64) (*SplitOutcome, error) {
	record, err := s.rawOrders.FindByID(ctx, s.shopID, sourceOrderID)
	if err != nil {
		return nil, err
	}

	raw, err := s.parse(record.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", splitting.ErrInvalidPayload, err)
	}
	return s.processOrder(ctx, raw, record.Payload)
}

// SplitRange re-splits every stored snapshot whose order-created instant
// falls within [min, max]. Used after a region table change to rebuild
// sub-order sets without refetching.
func (s *SplitService) SplitRange(ctx context.Context, min, max time.Time) (*SyncResult, error) {
	records, err := s.rawOrders.FindByCreatedAtRange(ctx, s.shopID, min, max)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithShopID(ctx, s.shopID)
	clog := logger.WithLogger(ctx, s.logger)

	result := &SyncResult{FailedOrderIDs: make([]int64, 0)}
	for i := range records {
		record := &records[i]
		result.TotalOrders++

		raw, err := s.parse(record.Payload)
		if err != nil {
			clog.Warn("Skipping snapshot with unparsable payload",
				zap.Int64("source_order_id", record.SourceOrderID),
				zap.Error(err),
			)
			result.FailedCount++
			result.FailedOrderIDs = append(result.FailedOrderIDs, record.SourceOrderID)
			continue
		}

		if _, err := s.processOrder(ctx, raw, record.Payload); err != nil {
			clog.Error("Failed to re-split stored order",
				zap.Int64("source_order_id", record.SourceOrderID),
				zap.Error(err),
			)
			result.FailedCount++
			result.FailedOrderIDs = append(result.FailedOrderIDs, record.SourceOrderID)
			continue
		}
		result.SuccessCount++
	}
	return result, nil
}

// ListSubOrders returns persisted sub-orders matching the filter.
func (s *SplitService) ListSubOrders(ctx context.Context, filter splitting.ExportFilter) ([]splitting.SubOrder, error) {
	return s.subOrders.FindForExport(ctx, s.shopID, filter)
}

// ---------------------------------------------------------------------------
// Pipeline
// ---------------------------------------------------------------------------

// processOrder runs store → split → reconcile → replace for one order while
// holding that order's lock. The snapshot upsert and the sub-order replace
// are each idempotent, so a retry after any failure converges.
func (s *SplitService) processOrder(ctx context.Context, raw *splitting.RawOrder, payload []byte) (*SplitOutcome, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "split", "process_order",
		telemetry.WithAttribute(telemetry.SpanAttrShopID, s.shopID),
		telemetry.WithAttribute(telemetry.SpanAttrSourceOrderID, raw.ID),
	)
	defer span.End()

	ctx = logger.WithShopID(ctx, s.shopID)
	ctx = logger.WithOrderID(ctx, raw.ID)

	lock := s.orderLock(raw.ID)
	lock.Lock()
	defer lock.Unlock()

	record := &splitting.RawOrderRecord{
		ShopID:         s.shopID,
		SourceOrderID:  raw.ID,
		Payload:        payload,
		OrderCreatedAt: nonZeroTime(raw.CreatedAt),
		OrderUpdatedAt: nonZeroTime(raw.UpdatedAt),
	}
	if err := s.rawOrders.Upsert(ctx, record); err != nil {
		err = fmt.Errorf("store raw order snapshot: %w", err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	subOrders := s.splitter.Split(s.shopID, raw)

	rec := splitting.Reconcile(raw, subOrders)
	if !rec.WithinTolerance() {
		// Advisory only. The computed breakdown is persisted as-is.
		logger.WithLogger(ctx, s.logger).Warn("Sub-order totals diverge from reported order total",
			zap.String("reported_total", rec.Reported.StringFixed(2)),
			zap.String("computed_total", rec.Computed.StringFixed(2)),
			zap.String("diff", rec.Diff.StringFixed(2)),
		)
	}

	if err := s.subOrders.ReplaceForOrder(ctx, s.shopID, raw.ID, subOrders); err != nil {
		err = fmt.Errorf("replace sub-order set: %w", err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrParentOrderNo, splitting.ParentOrderNo(raw.ID),
		telemetry.SpanAttrSubOrderCount, len(subOrders),
	)
	telemetry.SetOK(span)

	return &SplitOutcome{
		SourceOrderID: raw.ID,
		ParentOrderNo: splitting.ParentOrderNo(raw.ID),
		SubOrders:     subOrders,
		Reconciled:    rec.WithinTolerance(),
	}, nil
}

// orderLock returns the mutex serializing writes for one source order.
// Locks are never released from the map; the order id space of a single
// shop is small enough that this does not matter.
func (s *SplitService) orderLock(sourceOrderID int64) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.locks[sourceOrderID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sourceOrderID] = lock
	}
	return lock
}

func nonZeroTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
