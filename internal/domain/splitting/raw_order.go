package splitting

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawOrder is the immutable snapshot of one source order as fetched from the
// order platform. The splitting engine only reads it; the platform owns it.
//
// All monetary fields are kept as the platform's decimal strings. Missing or
// unparsable values resolve to zero through the *OrZero accessors rather than
// failing, so a partially filled snapshot still splits.
type RawOrder struct {
	ID                int64
	Name              string
	Email             string
	Phone             string
	Currency          string
	TotalPrice        string
	SubtotalPrice     string
	TotalTax          string
	TotalDiscounts    string
	TotalShipping     string
	FinancialStatus   string
	FulfillmentStatus string
	Note              string
	StaffNote         string
	NoteAttributes    []NoteAttribute
	LineItems         []LineItem
	ShippingLines     []ShippingLine
	ShippingAddress   *Address
	SourceName        string
	SalesChannel      string
	PaymentGateways   []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NoteAttribute is a key/value custom attribute attached to the order.
type NoteAttribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Address is the shipping address snapshot of a raw order.
type Address struct {
	Name          string `json:"name,omitempty"`
	FirstName     string `json:"firstName,omitempty"`
	LastName      string `json:"lastName,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Address1      string `json:"address1,omitempty"`
	Address2      string `json:"address2,omitempty"`
	City          string `json:"city,omitempty"`
	Province      string `json:"province,omitempty"`
	ProvinceCode  string `json:"provinceCode,omitempty"`
	Zip           string `json:"zip,omitempty"`
	Country       string `json:"country,omitempty"`
	CountryCodeV2 string `json:"countryCodeV2,omitempty"`
}

// LineItem is one order line. It belongs to exactly one RawOrder.
type LineItem struct {
	Name                string `json:"name,omitempty"`
	SkuID               int64  `json:"sku_id,omitempty"`
	VariantLabel        string `json:"variant_title,omitempty"`
	Quantity            int    `json:"quantity"`
	Price               string `json:"price,omitempty"`
	OriginalUnitPrice   string `json:"original_unit_price,omitempty"`
	DiscountedUnitPrice string `json:"discounted_unit_price,omitempty"`
	OriginalTotal       string `json:"original_total,omitempty"`
	DiscountedTotal     string `json:"discounted_total,omitempty"`
	TotalDiscount       string `json:"total_discount,omitempty"`
}

// ShippingLine is one shipping charge of a raw order.
type ShippingLine struct {
	Title                       string `json:"title,omitempty"`
	Source                      string `json:"source,omitempty"`
	Code                        string `json:"code,omitempty"`
	OriginalAmount              string `json:"original_amount,omitempty"`
	DiscountedAmount            string `json:"discounted_amount,omitempty"`
	DiscountedPresentmentAmount string `json:"discounted_presentment_amount,omitempty"`
	CurrencyCode                string `json:"currency_code,omitempty"`
}

// AmountOrZero parses a decimal string defensively. Blank or malformed input
// yields zero, never an error.
func AmountOrZero(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// UnitPriceOrZero returns the effective discounted unit price: the
// discounted unit price when present, else the plain price, else zero.
func (li LineItem) UnitPriceOrZero() decimal.Decimal {
	if li.DiscountedUnitPrice != "" {
		return AmountOrZero(li.DiscountedUnitPrice)
	}
	return AmountOrZero(li.Price)
}

// OriginalUnitPriceOrZero returns the original unit price, falling back to
// the plain price when the original is absent.
func (li LineItem) OriginalUnitPriceOrZero() decimal.Decimal {
	if li.OriginalUnitPrice != "" {
		return AmountOrZero(li.OriginalUnitPrice)
	}
	return AmountOrZero(li.Price)
}

// OriginalTotalOrDerived returns the source-provided original line total when
// present and non-blank, otherwise original unit price times quantity.
func (li LineItem) OriginalTotalOrDerived() decimal.Decimal {
	if li.OriginalTotal != "" {
		return AmountOrZero(li.OriginalTotal)
	}
	return li.OriginalUnitPriceOrZero().Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// DiscountedTotalDerived recomputes the discounted line total from the
// discounted unit price and quantity. The platform's per-line discount
// allocation can differ from the per-unit price, so aggregates that must sum
// to the order total use this derivation instead of the source field.
func (li LineItem) DiscountedTotalDerived() decimal.Decimal {
	return li.UnitPriceOrZero().Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// DiscountedTotalOrDerived returns the source-provided discounted line total
// when present, else the unit-price derivation.
func (li LineItem) DiscountedTotalOrDerived() decimal.Decimal {
	if li.DiscountedTotal != "" {
		return AmountOrZero(li.DiscountedTotal)
	}
	return li.DiscountedTotalDerived()
}

// OriginalAmountOrZero returns the pre-discount shipping amount.
func (sl ShippingLine) OriginalAmountOrZero() decimal.Decimal {
	return AmountOrZero(sl.OriginalAmount)
}

// DiscountedAmountOrZero returns the discounted shipping amount, preferring
// the presentment-currency value when present.
func (sl ShippingLine) DiscountedAmountOrZero() decimal.Decimal {
	if sl.DiscountedPresentmentAmount != "" {
		return AmountOrZero(sl.DiscountedPresentmentAmount)
	}
	return AmountOrZero(sl.DiscountedAmount)
}

// ShippingOriginal returns the original amount of the first shipping line,
// or zero when the order has none.
func (o *RawOrder) ShippingOriginal() decimal.Decimal {
	if len(o.ShippingLines) == 0 {
		return decimal.Zero
	}
	return o.ShippingLines[0].OriginalAmountOrZero()
}

// ShippingDiscounted returns the discounted amount of the first shipping
// line. When the line carries no discounted value, or the order has no
// shipping lines at all, the order-level total shipping price stands in.
func (o *RawOrder) ShippingDiscounted() decimal.Decimal {
	if len(o.ShippingLines) > 0 {
		sl := o.ShippingLines[0]
		if sl.DiscountedPresentmentAmount != "" || sl.DiscountedAmount != "" {
			return sl.DiscountedAmountOrZero()
		}
	}
	return AmountOrZero(o.TotalShipping)
}

// CurrencyCode returns the 3-character currency code, defaulting to TWD.
func (o *RawOrder) CurrencyCode() string {
	c := o.Currency
	if c == "" {
		c = "TWD"
	}
	if len(c) > 3 {
		c = c[:3]
	}
	return c
}

// CustomerSnapshot is the customer view carried on every derived sub-order.
type CustomerSnapshot struct {
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Address1    string `json:"address1,omitempty"`
	Address2    string `json:"address2,omitempty"`
	City        string `json:"city,omitempty"`
	Province    string `json:"province,omitempty"`
	Zip         string `json:"zip,omitempty"`
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"countryCodeV2,omitempty"`
}

// Customer extracts the customer snapshot from the raw order's shipping
// address, order email, and phone. The address phone wins over the order
// phone when both are present.
func (o *RawOrder) Customer() CustomerSnapshot {
	snap := CustomerSnapshot{
		Email: o.Email,
		Phone: o.Phone,
	}
	if addr := o.ShippingAddress; addr != nil {
		snap.Name = addr.Name
		snap.Address1 = addr.Address1
		snap.Address2 = addr.Address2
		snap.City = addr.City
		snap.Province = addr.Province
		snap.Zip = addr.Zip
		snap.Country = addr.Country
		snap.CountryCode = addr.CountryCodeV2
		if addr.Phone != "" {
			snap.Phone = addr.Phone
		}
	}
	return snap
}
