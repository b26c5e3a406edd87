package splitting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testShopID = "teststore.myshopify.com"

func testRawOrder() *RawOrder {
	created := time.Date(2026, 2, 14, 1, 13, 2, 0, time.UTC)
	return &RawOrder{
		ID:              126216516,
		Name:            "#1001",
		Email:           "buyer@example.com",
		Currency:        "TWD",
		TotalPrice:      "1060.00",
		FinancialStatus: "PAID",
		PaymentGateways: []string{"bogus"},
		LineItems: []LineItem{
			{Name: "香火袋", SkuID: 101, VariantLabel: "艋舺龍山寺", Quantity: 2, Price: "200.00", OriginalUnitPrice: "250.00", DiscountedUnitPrice: "200.00", OriginalTotal: "500.00"},
			{Name: "平安符", SkuID: 102, VariantLabel: "天壇天公廟", Quantity: 1, Price: "300.00", OriginalUnitPrice: "300.00", DiscountedUnitPrice: "300.00", OriginalTotal: "300.00"},
			{Name: "御守", SkuID: 103, VariantLabel: "限定款", Quantity: 3, Price: "100.00", OriginalUnitPrice: "120.00", DiscountedUnitPrice: "100.00", OriginalTotal: "360.00"},
		},
		ShippingLines: []ShippingLine{
			{Title: "標準運送", OriginalAmount: "80.00", DiscountedAmount: "60.00", DiscountedPresentmentAmount: "60.00"},
		},
		ShippingAddress: &Address{
			Name:          "王小明",
			Phone:         "0912345678",
			Address1:      "中正路100號",
			City:          "台北市",
			Zip:           "100",
			CountryCodeV2: "TW",
		},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestSplitter_Split_GroupsAndOrdersRegions(t *testing.T) {
	splitter := NewSplitter(NewDefaultClassifier())
	subs := splitter.Split(testShopID, testRawOrder())

	require.Len(t, subs, 3)

	// Ascending by region label, Other last, regardless of item input order.
	assert.Equal(t, Region("台北"), subs[0].Region)
	assert.Equal(t, Region("台南"), subs[1].Region)
	assert.Equal(t, RegionOther, subs[2].Region)

	assert.Equal(t, "Order126216516-1", subs[0].SubOrderNo)
	assert.Equal(t, "Order126216516-2", subs[1].SubOrderNo)
	assert.Equal(t, "Order126216516-3", subs[2].SubOrderNo)
	for i, sub := range subs {
		assert.Equal(t, "Order126216516", sub.ParentOrderNo)
		assert.Equal(t, i+1, sub.Sequence)
		assert.Equal(t, testShopID, sub.ShopID)
		assert.Equal(t, int64(126216516), sub.SourceOrderID)
	}
}

func TestSplitter_Split_EveryItemInExactlyOneSubOrder(t *testing.T) {
	splitter := NewSplitter(NewDefaultClassifier())
	raw := testRawOrder()
	subs := splitter.Split(testShopID, raw)

	seen := make(map[int64]int)
	total := 0
	for _, sub := range subs {
		for _, item := range sub.Items {
			seen[item.SkuID]++
			total++
		}
	}
	assert.Equal(t, len(raw.LineItems), total)
	for _, item := range raw.LineItems {
		assert.Equal(t, 1, seen[item.SkuID], "sku %d must appear exactly once", item.SkuID)
	}
}

func TestSplitter_Split_ShippingOnFirstGroupOnly(t *testing.T) {
	splitter := NewSplitter(NewDefaultClassifier())
	subs := splitter.Split(testShopID, testRawOrder())

	withShipping := 0
	for _, sub := range subs {
		if sub.HasShipping {
			withShipping++
			assert.Equal(t, 1, sub.Sequence)
			assert.Equal(t, "80.00", sub.ShippingOriginal)
			assert.Equal(t, "60.00", sub.ShippingDiscounted)
		} else {
			assert.Equal(t, "0.00", sub.ShippingOriginal)
			assert.Equal(t, "0.00", sub.ShippingDiscounted)
		}
	}
	assert.Equal(t, 1, withShipping)
}

func TestSplitter_Split_AmountBreakdown(t *testing.T) {
	splitter := NewSplitter(NewDefaultClassifier())
	raw := testRawOrder()
	subs := splitter.Split(testShopID, raw)
	require.Len(t, subs, 3)

	// Order level: computed original (items 500+300+360 + shipping 80),
	// reported discounted passed through untouched.
	for _, sub := range subs {
		assert.Equal(t, "1240.00", sub.Amount.OrderOriginalTotal)
		assert.Equal(t, "1060.00", sub.Amount.OrderDiscountedTotal)
	}

	// 台北: 500 original + 80 shipping; 200*2 + 60 shipping discounted.
	assert.Equal(t, "580.00", subs[0].Amount.SubOrderOriginalTotal)
	assert.Equal(t, "460.00", subs[0].Amount.SubOrderDiscountedTotal)

	// 台南: no shipping.
	assert.Equal(t, "300.00", subs[1].Amount.SubOrderOriginalTotal)
	assert.Equal(t, "300.00", subs[1].Amount.SubOrderDiscountedTotal)

	// 其他: 360 original, 100*3 discounted.
	assert.Equal(t, "360.00", subs[2].Amount.SubOrderOriginalTotal)
	assert.Equal(t, "300.00", subs[2].Amount.SubOrderDiscountedTotal)

	// Per-item amounts carried in the breakdown.
	require.Len(t, subs[0].Amount.Items, 1)
	assert.Equal(t, int64(101), subs[0].Amount.Items[0].SkuID)
	assert.Equal(t, "500.00", subs[0].Amount.Items[0].OriginalTotal)
	assert.Equal(t, "400.00", subs[0].Amount.Items[0].DiscountedTotal)

	// Sub-order discounted totals reconcile with the reported order total.
	rec := Reconcile(raw, subs)
	assert.True(t, rec.WithinTolerance(), "diff %s", rec.Diff.String())
}

func TestSplitter_Split_ZeroItems(t *testing.T) {
	splitter := NewSplitter(NewDefaultClassifier())
	raw := &RawOrder{ID: 42, Name: "#42", Currency: "TWD", TotalPrice: "0"}
	subs := splitter.Split(testShopID, raw)

	require.Len(t, subs, 1)
	assert.Equal(t, RegionOther, subs[0].Region)
	assert.Empty(t, subs[0].Items)
	assert.True(t, subs[0].HasShipping)
	assert.Equal(t, "0.00", subs[0].Amount.SubOrderOriginalTotal)
	assert.Equal(t, "0.00", subs[0].Amount.SubOrderDiscountedTotal)
	assert.Equal(t, "Order42-1", subs[0].SubOrderNo)
}

func TestSplitter_Split_Idempotent(t *testing.T) {
	splitter := NewSplitter(NewDefaultClassifier())
	raw := testRawOrder()

	first := splitter.Split(testShopID, raw)
	second := splitter.Split(testShopID, raw)

	assert.Equal(t, first, second, "re-splitting unchanged input must be identical")
}

func TestSplitter_Split_OrderingIndependentOfInputOrder(t *testing.T) {
	splitter := NewSplitter(NewDefaultClassifier())

	raw := testRawOrder()
	reversed := testRawOrder()
	for i, j := 0, len(reversed.LineItems)-1; i < j; i, j = i+1, j-1 {
		reversed.LineItems[i], reversed.LineItems[j] = reversed.LineItems[j], reversed.LineItems[i]
	}

	subs := splitter.Split(testShopID, raw)
	subsReversed := splitter.Split(testShopID, reversed)

	require.Len(t, subsReversed, len(subs))
	for i := range subs {
		assert.Equal(t, subs[i].Region, subsReversed[i].Region)
		assert.Equal(t, subs[i].SubOrderNo, subsReversed[i].SubOrderNo)
		assert.Equal(t, subs[i].Amount, subsReversed[i].Amount)
	}
}

func TestSplitter_Split_CustomerSnapshot(t *testing.T) {
	splitter := NewSplitter(NewDefaultClassifier())
	subs := splitter.Split(testShopID, testRawOrder())

	for _, sub := range subs {
		assert.Equal(t, "王小明", sub.Customer.Name)
		assert.Equal(t, "0912345678", sub.Customer.Phone)
		assert.Equal(t, "buyer@example.com", sub.Customer.Email)
		assert.Equal(t, "TW", sub.Customer.CountryCode)
	}
}

func TestParentOrderNo_Deterministic(t *testing.T) {
	assert.Equal(t, ParentOrderNo(126216516), ParentOrderNo(126216516))
	assert.NotEqual(t, ParentOrderNo(1), ParentOrderNo(2))
	assert.Equal(t, "Order7-3", SubOrderNo(ParentOrderNo(7), 3))
}
