package splitting

import "github.com/shopspring/decimal"

// reconcileTolerance is the maximum absolute difference allowed between the
// computed sum of sub-order discounted totals and the order's reported total
// before the split is flagged for review.
var reconcileTolerance = decimal.RequireFromString("0.02")

// round2 finalizes a monetary aggregate: 2 decimal places, half-to-even.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(2)
}

// ItemsOriginalSubtotal sums the original line totals of a group. Each line
// uses the source-provided original total when present, else original unit
// price times quantity. Rounded once at the end.
func ItemsOriginalSubtotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.OriginalTotalOrDerived())
	}
	return round2(total)
}

// ItemsDiscountedSubtotalByUnit sums discounted unit price times quantity
// over a group. Recomputing from the unit price keeps sub-order totals
// consistent when the platform's per-line discount allocation differs from
// its per-unit price.
func ItemsDiscountedSubtotalByUnit(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.DiscountedTotalDerived())
	}
	return round2(total)
}

// OrderOriginalTotal computes the order-level pre-discount total: every line
// item's original total plus the original shipping amount. Always computed,
// never trusted from the source.
func OrderOriginalTotal(raw *RawOrder) decimal.Decimal {
	return round2(ItemsOriginalSubtotal(raw.LineItems).Add(raw.ShippingOriginal()))
}

// Reconciliation is the outcome of cross-checking computed sub-order totals
// against the order's reported discounted total.
type Reconciliation struct {
	Reported decimal.Decimal
	Computed decimal.Decimal
	Diff     decimal.Decimal
}

// WithinTolerance reports whether the computed and reported totals agree to
// within the allowed absolute tolerance.
func (r Reconciliation) WithinTolerance() bool {
	return r.Diff.Abs().LessThanOrEqual(reconcileTolerance)
}

// Reconcile sums the discounted totals of the derived sub-orders (shipping
// included) and compares them to the raw order's reported discounted total.
// A mismatch is advisory: callers log it and persist the computed values.
func Reconcile(raw *RawOrder, subOrders []SubOrder) Reconciliation {
	computed := decimal.Zero
	for _, sub := range subOrders {
		computed = computed.Add(AmountOrZero(sub.Amount.SubOrderDiscountedTotal))
	}
	computed = round2(computed)
	reported := AmountOrZero(raw.TotalPrice)
	return Reconciliation{
		Reported: reported,
		Computed: computed,
		Diff:     computed.Sub(reported),
	}
}
