package splitting

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ParentOrderNo derives the identifier shared by all sub-orders of one
// source order. It is a pure function of the source order id, so re-splitting
// an unchanged order at any later instant yields an identical set.
func ParentOrderNo(sourceOrderID int64) string {
	return fmt.Sprintf("Order%d", sourceOrderID)
}

// SubOrderNo derives the sub-order identifier from the parent and the
// 1-based sequence assigned by group ordering.
func SubOrderNo(parentOrderNo string, seq int) string {
	return fmt.Sprintf("%s-%d", parentOrderNo, seq)
}

// Splitter derives region-scoped sub-orders from raw order snapshots.
type Splitter struct {
	classifier *Classifier
}

// NewSplitter creates a Splitter using the given region classifier.
func NewSplitter(classifier *Classifier) *Splitter {
	return &Splitter{classifier: classifier}
}

// Split groups a raw order's line items by region and produces the ordered
// sub-order set:
//
//   - every line item lands in exactly one sub-order;
//   - an order with zero items still yields one RegionOther sub-order with
//     empty items and zero amounts;
//   - groups are ordered with RegionOther last and all other regions by
//     ascending label; that ordering, not input order, assigns sequence
//     suffixes 1..n;
//   - the order's entire shipping charge (original and discounted) goes to
//     the sub-order at sequence 1, all others carry zero shipping.
//
// Split never fails: malformed numeric fields resolve to zero.
func (s *Splitter) Split(shopID string, raw *RawOrder) []SubOrder {
	groups := s.groupByRegion(raw.LineItems)

	regions := make([]Region, 0, len(groups))
	for region := range groups {
		regions = append(regions, region)
	}
	sort.Slice(regions, func(i, j int) bool {
		if (regions[i] == RegionOther) != (regions[j] == RegionOther) {
			return regions[j] == RegionOther
		}
		return strings.Compare(string(regions[i]), string(regions[j])) < 0
	})

	parentOrderNo := ParentOrderNo(raw.ID)
	currency := raw.CurrencyCode()
	customer := raw.Customer()
	orderOriginal := OrderOriginalTotal(raw)
	orderDiscounted := raw.TotalPrice
	if orderDiscounted == "" {
		orderDiscounted = "0"
	}
	shippingOriginal := raw.ShippingOriginal()
	shippingDiscounted := raw.ShippingDiscounted()
	marketing := marketingInfo(raw)
	extra := ExtraInfo{
		OrderName:      raw.Name,
		Note:           raw.Note,
		StaffNote:      raw.StaffNote,
		NoteAttributes: raw.NoteAttributes,
	}
	createdAt := timePtr(raw.CreatedAt)
	updatedAt := timePtr(raw.UpdatedAt)

	subOrders := make([]SubOrder, 0, len(regions))
	for i, region := range regions {
		seq := i + 1
		items := groups[region]

		sub := SubOrder{
			ParentOrderNo:  parentOrderNo,
			SubOrderNo:     SubOrderNo(parentOrderNo, seq),
			Sequence:       seq,
			ShopID:         shopID,
			SourceOrderID:  raw.ID,
			Region:         region,
			Items:          items,
			Currency:       currency,
			PaymentStatus:  raw.FinancialStatus,
			PaymentMethod:  strings.Join(raw.PaymentGateways, ", "),
			Customer:       customer,
			Marketing:      marketing,
			DeliveryLines:  raw.ShippingLines,
			Extra:          extra,
			OrderCreatedAt: createdAt,
			OrderUpdatedAt: updatedAt,
		}

		originalSubtotal := ItemsOriginalSubtotal(items)
		discountedSubtotal := ItemsDiscountedSubtotalByUnit(items)
		if seq == 1 {
			// The whole shipping charge rides on the first group. This is the
			// established business rule, not a fair allocation.
			sub.HasShipping = true
			sub.ShippingOriginal = round2(shippingOriginal).StringFixed(2)
			sub.ShippingDiscounted = round2(shippingDiscounted).StringFixed(2)
			originalSubtotal = round2(originalSubtotal.Add(shippingOriginal))
			discountedSubtotal = round2(discountedSubtotal.Add(shippingDiscounted))
		} else {
			sub.ShippingOriginal = "0.00"
			sub.ShippingDiscounted = "0.00"
		}

		itemAmounts := make([]ItemAmount, 0, len(items))
		for _, item := range items {
			itemAmounts = append(itemAmounts, ItemAmount{
				SkuID:           item.SkuID,
				OriginalTotal:   round2(item.OriginalTotalOrDerived()).StringFixed(2),
				DiscountedTotal: round2(item.DiscountedTotalOrDerived()).StringFixed(2),
			})
		}

		sub.Amount = AmountBreakdown{
			OrderOriginalTotal:      orderOriginal.StringFixed(2),
			OrderDiscountedTotal:    orderDiscounted,
			SubOrderOriginalTotal:   originalSubtotal.StringFixed(2),
			SubOrderDiscountedTotal: discountedSubtotal.StringFixed(2),
			Items:                   itemAmounts,
		}

		subOrders = append(subOrders, sub)
	}

	return subOrders
}

// groupByRegion buckets line items by classified region, preserving input
// order within each bucket. An empty item list yields a single empty
// RegionOther bucket so the split never produces an empty result.
func (s *Splitter) groupByRegion(items []LineItem) map[Region][]LineItem {
	groups := make(map[Region][]LineItem)
	for _, item := range items {
		region := s.classifier.Classify(item.VariantLabel)
		groups[region] = append(groups[region], item)
	}
	if len(groups) == 0 {
		groups[RegionOther] = []LineItem{}
	}
	return groups
}

func marketingInfo(raw *RawOrder) *MarketingInfo {
	if raw.SourceName == "" && raw.SalesChannel == "" {
		return nil
	}
	return &MarketingInfo{
		SourceName:   raw.SourceName,
		SalesChannel: raw.SalesChannel,
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
