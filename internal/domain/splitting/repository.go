package splitting

import (
	"context"
	"time"
)

// RawOrderRecord is one stored source-order snapshot keyed by
// (shop_id, source_order_id). Payload is the verbatim platform document;
// the created/updated instants are derived from it at upsert time so range
// queries work without re-parsing.
type RawOrderRecord struct {
	ShopID         string
	SourceOrderID  int64
	Payload        []byte
	OrderCreatedAt *time.Time
	OrderUpdatedAt *time.Time
}

// RawOrderRepository persists verbatim source-order snapshots.
type RawOrderRepository interface {
	// Upsert stores or replaces the snapshot for (shopID, sourceOrderID)
	// with last-write-wins semantics, deriving the order's created/updated
	// instants from the payload.
	Upsert(ctx context.Context, record *RawOrderRecord) error

	// FindByID returns the snapshot for one source order, or
	// ErrRawOrderNotFound.
	FindByID(ctx context.Context, shopID string, sourceOrderID int64) (*RawOrderRecord, error)

	// FindByCreatedAtRange returns snapshots whose order-created instant
	// falls within [min, max], ordered by that instant.
	FindByCreatedAtRange(ctx context.Context, shopID string, min, max time.Time) ([]RawOrderRecord, error)
}

// ExportFilter selects persisted sub-orders for export. SourceOrderID takes
// precedence over the time range when set.
type ExportFilter struct {
	SourceOrderID *int64
	CreatedAtMin  *time.Time
	CreatedAtMax  *time.Time
}

// SubOrderRepository persists derived sub-order sets.
type SubOrderRepository interface {
	// ReplaceForOrder atomically replaces the full sub-order set of one
	// source order: every existing row for (shopID, sourceOrderID) is
	// deleted and the new set inserted inside a single transaction. No
	// observer sees a state that is neither all-old nor all-new, and a
	// failed call leaves the old set intact, so retrying is safe.
	ReplaceForOrder(ctx context.Context, shopID string, sourceOrderID int64, subOrders []SubOrder) error

	// FindForExport returns sub-orders matching the filter, ordered by
	// order-created instant then sub-order number.
	FindForExport(ctx context.Context, shopID string, filter ExportFilter) ([]SubOrder, error)
}
