package splitting

import "time"

// SubOrder is one region-scoped fragment of a RawOrder, the unit of
// downstream fulfillment. The full set for a source order is derived fresh on
// every split run and supersedes the prior set.
type SubOrder struct {
	ParentOrderNo string
	SubOrderNo    string
	Sequence      int
	ShopID        string
	SourceOrderID int64
	Region        Region
	Items         []LineItem
	Amount        AmountBreakdown
	// HasShipping marks the single sub-order per parent that carries the
	// order's entire shipping charge.
	HasShipping        bool
	ShippingOriginal   string
	ShippingDiscounted string
	Currency           string
	PaymentStatus      string
	PaymentMethod      string
	Customer           CustomerSnapshot
	Marketing          *MarketingInfo
	DeliveryLines      []ShippingLine
	Extra              ExtraInfo
	OrderCreatedAt     *time.Time
	OrderUpdatedAt     *time.Time
}

// AmountBreakdown holds the reconciled totals at order, sub-order, and item
// scope. All values are decimal strings rounded to 2 places.
type AmountBreakdown struct {
	OrderOriginalTotal      string       `json:"order_original_total"`
	OrderDiscountedTotal    string       `json:"order_discounted_total"`
	SubOrderOriginalTotal   string       `json:"sub_order_original_total"`
	SubOrderDiscountedTotal string       `json:"sub_order_discounted_total"`
	Items                   []ItemAmount `json:"items"`
}

// ItemAmount is the per-item slice of an AmountBreakdown.
type ItemAmount struct {
	SkuID           int64  `json:"sku_id"`
	OriginalTotal   string `json:"original_total"`
	DiscountedTotal string `json:"discounted_total"`
}

// MarketingInfo carries the optional channel metadata of the source order.
type MarketingInfo struct {
	SourceName   string `json:"source_name,omitempty"`
	SalesChannel string `json:"sales_channel,omitempty"`
}

// ExtraInfo carries free-form notes propagated from the source order.
type ExtraInfo struct {
	OrderName      string          `json:"shopify_order_name,omitempty"`
	Note           string          `json:"note,omitempty"`
	StaffNote      string          `json:"staff_note,omitempty"`
	NoteAttributes []NoteAttribute `json:"note_attributes,omitempty"`
}
