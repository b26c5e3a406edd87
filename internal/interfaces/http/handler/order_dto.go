package handler

import (
	"time"

	appsplitting "github.com/zenheart/ordersync/internal/application/splitting"
	"github.com/zenheart/ordersync/internal/domain/splitting"
)

// SplitOutcomeResponse represents the derived sub-order set of one order
// @Description Split outcome response
type SplitOutcomeResponse struct {
	SourceOrderID int64              `json:"source_order_id" example:"126216516"`
	ParentOrderNo string             `json:"parent_order_no" example:"Order126216516"`
	Reconciled    bool               `json:"reconciled" example:"true"`
	SubOrders     []SubOrderResponse `json:"sub_orders"`
}

// SyncResultResponse summarizes a batch run
// @Description Batch result response
type SyncResultResponse struct {
	TotalOrders    int     `json:"total_orders" example:"120"`
	SuccessCount   int     `json:"success_count" example:"118"`
	FailedCount    int     `json:"failed_count" example:"2"`
	FailedOrderIDs []int64 `json:"failed_order_ids"`
}

// SubOrderResponse represents a sub-order in API responses
// @Description Sub-order response
type SubOrderResponse struct {
	ParentOrderNo      string                    `json:"parent_order_no" example:"Order126216516"`
	SubOrderNo         string                    `json:"sub_order_no" example:"Order126216516-1"`
	Sequence           int                       `json:"sequence" example:"1"`
	ShopID             string                    `json:"shop_id" example:"teststore.myshopify.com"`
	SourceOrderID      int64                     `json:"source_order_id" example:"126216516"`
	Region             string                    `json:"region" example:"台北"`
	Items              []splitting.LineItem      `json:"items"`
	Amount             splitting.AmountBreakdown `json:"amount"`
	HasShipping        bool                      `json:"has_shipping" example:"true"`
	ShippingOriginal   string                    `json:"shipping_original,omitempty" example:"80.00"`
	ShippingDiscounted string                    `json:"shipping_discounted,omitempty" example:"80.00"`
	Currency           string                    `json:"currency" example:"TWD"`
	PaymentStatus      string                    `json:"payment_status,omitempty" example:"paid"`
	PaymentMethod      string                    `json:"payment_method,omitempty"`
	OrderCreatedAt     *time.Time                `json:"order_created_at,omitempty"`
	OrderUpdatedAt     *time.Time                `json:"order_updated_at,omitempty"`
}

func toSubOrderResponse(sub *splitting.SubOrder) SubOrderResponse {
	return SubOrderResponse{
		ParentOrderNo:      sub.ParentOrderNo,
		SubOrderNo:         sub.SubOrderNo,
		Sequence:           sub.Sequence,
		ShopID:             sub.ShopID,
		SourceOrderID:      sub.SourceOrderID,
		Region:             string(sub.Region),
		Items:              sub.Items,
		Amount:             sub.Amount,
		HasShipping:        sub.HasShipping,
		ShippingOriginal:   sub.ShippingOriginal,
		ShippingDiscounted: sub.ShippingDiscounted,
		Currency:           sub.Currency,
		PaymentStatus:      sub.PaymentStatus,
		PaymentMethod:      sub.PaymentMethod,
		OrderCreatedAt:     sub.OrderCreatedAt,
		OrderUpdatedAt:     sub.OrderUpdatedAt,
	}
}

func toSplitOutcomeResponse(outcome *appsplitting.SplitOutcome) SplitOutcomeResponse {
	subOrders := make([]SubOrderResponse, 0, len(outcome.SubOrders))
	for i := range outcome.SubOrders {
		subOrders = append(subOrders, toSubOrderResponse(&outcome.SubOrders[i]))
	}
	return SplitOutcomeResponse{
		SourceOrderID: outcome.SourceOrderID,
		ParentOrderNo: outcome.ParentOrderNo,
		Reconciled:    outcome.Reconciled,
		SubOrders:     subOrders,
	}
}

func toSyncResultResponse(result *appsplitting.SyncResult) SyncResultResponse {
	return SyncResultResponse{
		TotalOrders:    result.TotalOrders,
		SuccessCount:   result.SuccessCount,
		FailedCount:    result.FailedCount,
		FailedOrderIDs: result.FailedOrderIDs,
	}
}
