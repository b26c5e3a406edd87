package splitting

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zenheart/ordersync/internal/domain/splitting"
	"github.com/zenheart/ordersync/internal/infrastructure/telemetry"
)

// utf8BOM prefixes every CSV so spreadsheet tools detect the encoding and
// render the Chinese headers correctly.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ObjectStorage uploads finished export files. Implemented by the
// S3-compatible storage adapter.
type ObjectStorage interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
}

// ExportResult holds a rendered CSV export. RowCount includes the header row.
type ExportResult struct {
	Data       []byte
	RowCount   int
	StorageKey string
}

// ExportService renders persisted sub-orders as fulfillment CSV files and
// optionally uploads them to object storage.
type ExportService struct {
	shopID    string
	subOrders splitting.SubOrderRepository
	storage   ObjectStorage
	opts      splitting.ExportOptions
	logger    *zap.Logger
}

// NewExportService creates an ExportService. storage may be nil, in which
// case ExportToStorage is unavailable.
func NewExportService(
	shopID string,
	subOrders splitting.SubOrderRepository,
	storage ObjectStorage,
	opts splitting.ExportOptions,
	logger *zap.Logger,
) *ExportService {
	if opts.ShopAccount == "" {
		opts.ShopAccount = splitting.DefaultExportOptions().ShopAccount
	}
	if opts.Warehouse == "" {
		opts.Warehouse = splitting.DefaultExportOptions().Warehouse
	}
	return &ExportService{
		shopID:    shopID,
		subOrders: subOrders,
		storage:   storage,
		opts:      opts,
		logger:    logger,
	}
}

// Export renders the sub-orders matching the filter as a BOM-prefixed CSV.
// The header row is always present, even for an empty selection.
func (e *ExportService) Export(ctx context.Context, filter splitting.ExportFilter) (*ExportResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "export", "render_csv",
		telemetry.WithAttribute(telemetry.SpanAttrShopID, e.shopID),
	)
	defer span.End()

	subOrders, err := e.subOrders.FindForExport(ctx, e.shopID, filter)
	if err != nil {
		err = fmt.Errorf("load sub-orders for export: %w", err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	rows := splitting.ExportRows(subOrders, e.opts)

	var buf bytes.Buffer
	buf.Write(utf8BOM)
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write export csv: %w", err)
	}

	e.logger.Info("Export rendered",
		zap.String("shop_id", e.shopID),
		zap.Int("sub_orders", len(subOrders)),
		zap.Int("rows", len(rows)),
	)
	telemetry.SetAttribute(span, telemetry.SpanAttrExportRows, len(rows))
	telemetry.SetOK(span)

	return &ExportResult{
		Data:     buf.Bytes(),
		RowCount: len(rows),
	}, nil
}

// ExportToStorage renders the export and uploads it under a timestamped key.
// Returns the storage key alongside the rendered data.
func (e *ExportService) ExportToStorage(ctx context.Context, filter splitting.ExportFilter) (*ExportResult, error) {
	if e.storage == nil {
		return nil, fmt.Errorf("object storage is not configured")
	}

	result, err := e.Export(ctx, filter)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("exports/suborders-%s.csv", time.Now().UTC().Format("20060102T150405Z"))
	if err := e.storage.Upload(ctx, key, result.Data, "text/csv; charset=utf-8"); err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}

	result.StorageKey = key
	e.logger.Info("Export uploaded",
		zap.String("shop_id", e.shopID),
		zap.String("storage_key", key),
		zap.Int("bytes", len(result.Data)),
	)
	return result, nil
}
