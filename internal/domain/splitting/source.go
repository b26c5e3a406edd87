package splitting

import (
	"context"
	"time"
)

// PullRequest asks an order source for a page of orders created inside a
// closed time window. Cursor is the opaque continuation token from the
// previous page, empty for the first page.
type PullRequest struct {
	CreatedAtMin time.Time
	CreatedAtMax time.Time
	Cursor       string
	PageSize     int
}

// PulledOrder pairs the decoded order with the verbatim payload bytes it was
// decoded from. The payload is what gets persisted; re-decoding it must yield
// the same order.
type PulledOrder struct {
	Order   *RawOrder
	Payload []byte
}

// PullResult is one page of pulled orders.
type PullResult struct {
	Orders     []PulledOrder
	HasMore    bool
	NextCursor string
}

// OrderSource pulls order snapshots from the upstream order platform.
type OrderSource interface {
	PullOrders(ctx context.Context, req PullRequest) (*PullResult, error)
}
