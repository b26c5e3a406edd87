package models

import (
	"encoding/json"
	"time"

	"github.com/zenheart/ordersync/internal/domain/splitting"
)

// RawOrderModel is the persistence model for one stored source-order
// snapshot. The payload column keeps the platform document verbatim.
type RawOrderModel struct {
	ID             int64      `gorm:"primaryKey;autoIncrement"`
	ShopID         string     `gorm:"type:varchar(255);not null;uniqueIndex:idx_raw_orders_shop_source,priority:1"`
	SourceOrderID  int64      `gorm:"not null;uniqueIndex:idx_raw_orders_shop_source,priority:2"`
	Payload        string     `gorm:"type:jsonb;not null"`
	OrderCreatedAt *time.Time `gorm:"index:idx_raw_orders_order_created"`
	OrderUpdatedAt *time.Time
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RawOrderModel) TableName() string {
	return "raw_orders"
}

// ToDomain converts the persistence model to a domain RawOrderRecord.
func (m *RawOrderModel) ToDomain() *splitting.RawOrderRecord {
	return &splitting.RawOrderRecord{
		ShopID:         m.ShopID,
		SourceOrderID:  m.SourceOrderID,
		Payload:        []byte(m.Payload),
		OrderCreatedAt: m.OrderCreatedAt,
		OrderUpdatedAt: m.OrderUpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain RawOrderRecord.
func (m *RawOrderModel) FromDomain(r *splitting.RawOrderRecord) {
	m.ShopID = r.ShopID
	m.SourceOrderID = r.SourceOrderID
	m.Payload = string(r.Payload)
	m.OrderCreatedAt = r.OrderCreatedAt
	m.OrderUpdatedAt = r.OrderUpdatedAt
}

// RawOrderModelFromDomain creates a new persistence model from a domain
// RawOrderRecord.
func RawOrderModelFromDomain(r *splitting.RawOrderRecord) *RawOrderModel {
	m := &RawOrderModel{}
	m.FromDomain(r)
	return m
}

// SubOrderModel is the persistence model for one derived sub-order. The
// structured parts (items, amounts, customer, delivery, extra) are stored as
// JSON documents; the columns used for filtering and ordering stay scalar.
type SubOrderModel struct {
	ID                 int64  `gorm:"primaryKey;autoIncrement"`
	ShopID             string `gorm:"type:varchar(255);not null;index:idx_sub_orders_shop_source,priority:1;uniqueIndex:idx_sub_orders_shop_no,priority:1"`
	SourceOrderID      int64  `gorm:"not null;index:idx_sub_orders_shop_source,priority:2"`
	ParentOrderNo      string `gorm:"type:varchar(64);not null"`
	SubOrderNo         string `gorm:"type:varchar(64);not null;uniqueIndex:idx_sub_orders_shop_no,priority:2"`
	Sequence           int    `gorm:"not null"`
	Region             string `gorm:"type:varchar(64);not null"`
	ItemsJSON          string `gorm:"type:jsonb;column:items"`
	AmountJSON         string `gorm:"type:jsonb;column:amount"`
	HasShipping        bool   `gorm:"not null;default:false"`
	ShippingOriginal   string `gorm:"type:varchar(32);not null;default:'0.00'"`
	ShippingDiscounted string `gorm:"type:varchar(32);not null;default:'0.00'"`
	Currency           string `gorm:"type:varchar(3);not null"`
	PaymentStatus      string `gorm:"type:varchar(32)"`
	PaymentMethod      string `gorm:"type:varchar(255)"`
	CustomerJSON       string `gorm:"type:jsonb;column:customer"`
	MarketingJSON      string `gorm:"type:jsonb;column:marketing"`
	DeliveryJSON       string `gorm:"type:jsonb;column:delivery_lines"`
	ExtraJSON          string `gorm:"type:jsonb;column:extra"`
	OrderCreatedAt     *time.Time `gorm:"index:idx_sub_orders_order_created"`
	OrderUpdatedAt     *time.Time
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SubOrderModel) TableName() string {
	return "sub_orders"
}

// ToDomain converts the persistence model to a domain SubOrder.
func (m *SubOrderModel) ToDomain() *splitting.SubOrder {
	sub := &splitting.SubOrder{
		ParentOrderNo:      m.ParentOrderNo,
		SubOrderNo:         m.SubOrderNo,
		Sequence:           m.Sequence,
		ShopID:             m.ShopID,
		SourceOrderID:      m.SourceOrderID,
		Region:             splitting.Region(m.Region),
		Items:              make([]splitting.LineItem, 0),
		HasShipping:        m.HasShipping,
		ShippingOriginal:   m.ShippingOriginal,
		ShippingDiscounted: m.ShippingDiscounted,
		Currency:           m.Currency,
		PaymentStatus:      m.PaymentStatus,
		PaymentMethod:      m.PaymentMethod,
		OrderCreatedAt:     m.OrderCreatedAt,
		OrderUpdatedAt:     m.OrderUpdatedAt,
	}

	if m.ItemsJSON != "" {
		var items []splitting.LineItem
		if err := json.Unmarshal([]byte(m.ItemsJSON), &items); err == nil {
			sub.Items = items
		}
	}
	if m.AmountJSON != "" {
		_ = json.Unmarshal([]byte(m.AmountJSON), &sub.Amount)
	}
	if m.CustomerJSON != "" {
		_ = json.Unmarshal([]byte(m.CustomerJSON), &sub.Customer)
	}
	if m.MarketingJSON != "" && m.MarketingJSON != "null" {
		var marketing splitting.MarketingInfo
		if err := json.Unmarshal([]byte(m.MarketingJSON), &marketing); err == nil {
			sub.Marketing = &marketing
		}
	}
	if m.DeliveryJSON != "" {
		var lines []splitting.ShippingLine
		if err := json.Unmarshal([]byte(m.DeliveryJSON), &lines); err == nil {
			sub.DeliveryLines = lines
		}
	}
	if m.ExtraJSON != "" {
		_ = json.Unmarshal([]byte(m.ExtraJSON), &sub.Extra)
	}

	return sub
}

// FromDomain populates the persistence model from a domain SubOrder.
func (m *SubOrderModel) FromDomain(sub *splitting.SubOrder) {
	m.ShopID = sub.ShopID
	m.SourceOrderID = sub.SourceOrderID
	m.ParentOrderNo = sub.ParentOrderNo
	m.SubOrderNo = sub.SubOrderNo
	m.Sequence = sub.Sequence
	m.Region = string(sub.Region)
	m.HasShipping = sub.HasShipping
	m.ShippingOriginal = sub.ShippingOriginal
	m.ShippingDiscounted = sub.ShippingDiscounted
	m.Currency = sub.Currency
	m.PaymentStatus = sub.PaymentStatus
	m.PaymentMethod = sub.PaymentMethod
	m.OrderCreatedAt = sub.OrderCreatedAt
	m.OrderUpdatedAt = sub.OrderUpdatedAt

	m.ItemsJSON = marshalOrEmptyArray(sub.Items)
	m.AmountJSON = marshalOrNull(sub.Amount)
	m.CustomerJSON = marshalOrNull(sub.Customer)
	m.DeliveryJSON = marshalOrEmptyArray(sub.DeliveryLines)
	m.ExtraJSON = marshalOrNull(sub.Extra)
	// A nil Marketing must become SQL-representable JSON null, never the
	// empty string, which PostgreSQL rejects as jsonb input.
	m.MarketingJSON = marshalOrNull(sub.Marketing)
}

// SubOrderModelFromDomain creates a new persistence model from a domain
// SubOrder.
func SubOrderModelFromDomain(sub *splitting.SubOrder) *SubOrderModel {
	m := &SubOrderModel{}
	m.FromDomain(sub)
	return m
}

func marshalOrNull(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func marshalOrEmptyArray(v any) string {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return "[]"
	}
	return string(b)
}
