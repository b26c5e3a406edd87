package integration

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	appsplitting "github.com/zenheart/ordersync/internal/application/splitting"
	"github.com/zenheart/ordersync/internal/domain/splitting"
	"github.com/zenheart/ordersync/internal/infrastructure/ecommerce"
	"github.com/zenheart/ordersync/internal/infrastructure/persistence"
)

// orderNodePayload is a trimmed Shopify order node with items that map to
// two regions plus one unmapped label.
const orderNodePayload = `{
	"id": "gid://shopify/Order/126216516",
	"name": "#1001",
	"email": "buyer@example.com",
	"createdAt": "2026-03-10T08:30:00Z",
	"updatedAt": "2026-03-10T08:35:00Z",
	"currencyCode": "TWD",
	"displayFinancialStatus": "PAID",
	"paymentGatewayNames": ["credit_card"],
	"totalPriceSet": {"shopMoney": {"amount": "560.00", "currencyCode": "TWD"}},
	"subtotalPriceSet": {"shopMoney": {"amount": "500.00", "currencyCode": "TWD"}},
	"shippingAddress": {"name": "王小明", "city": "台北市", "countryCodeV2": "TW"},
	"shippingLines": {"edges": [{"node": {
		"title": "宅配",
		"originalPriceSet": {"shopMoney": {"amount": "60.00", "currencyCode": "TWD"}},
		"discountedPriceSet": {"shopMoney": {"amount": "60.00", "currencyCode": "TWD"}}
	}}]},
	"lineItems": {"edges": [
		{"node": {
			"name": "平安符", "quantity": 1, "variantTitle": "艋舺龍山寺",
			"originalUnitPriceSet": {"shopMoney": {"amount": "150.00"}},
			"discountedUnitPriceAfterAllDiscountsSet": {"shopMoney": {"amount": "150.00"}},
			"originalTotalSet": {"shopMoney": {"amount": "150.00"}},
			"discountedTotalSet": {"shopMoney": {"amount": "150.00"}}
		}},
		{"node": {
			"name": "光明燈", "quantity": 1, "variantTitle": "佛光山",
			"originalUnitPriceSet": {"shopMoney": {"amount": "200.00"}},
			"discountedUnitPriceAfterAllDiscountsSet": {"shopMoney": {"amount": "200.00"}},
			"originalTotalSet": {"shopMoney": {"amount": "200.00"}},
			"discountedTotalSet": {"shopMoney": {"amount": "200.00"}}
		}},
		{"node": {
			"name": "御守", "quantity": 1, "variantTitle": "未知宮廟",
			"originalUnitPriceSet": {"shopMoney": {"amount": "150.00"}},
			"discountedUnitPriceAfterAllDiscountsSet": {"shopMoney": {"amount": "150.00"}},
			"originalTotalSet": {"shopMoney": {"amount": "150.00"}},
			"discountedTotalSet": {"shopMoney": {"amount": "150.00"}}
		}}
	]}
}`

func newSplitServiceForTest(t *testing.T, tdb *TestDB) *appsplitting.SplitService {
	t.Helper()
	return appsplitting.NewSplitService(
		testShop,
		nil,
		ecommerce.OrderFromNode,
		persistence.NewGormRawOrderRepository(tdb.DB),
		persistence.NewGormSubOrderRepository(tdb.DB),
		splitting.NewSplitter(splitting.NewDefaultClassifier()),
		zaptest.NewLogger(t),
	)
}

func TestSplitFlow_IngestPersistsSnapshotAndSubOrders(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewSharedTestDB(t)
	tdb.CleanTables()
	ctx := context.Background()

	service := newSplitServiceForTest(t, tdb)

	outcome, err := service.IngestSnapshot(ctx, []byte(orderNodePayload))
	require.NoError(t, err)
	assert.Equal(t, int64(126216516), outcome.SourceOrderID)
	require.Len(t, outcome.SubOrders, 3)

	// Region groups are ordered with the unmapped group last
	assert.Equal(t, splitting.Region("台北"), outcome.SubOrders[0].Region)
	assert.Equal(t, splitting.Region("高雄"), outcome.SubOrders[1].Region)
	assert.Equal(t, splitting.RegionOther, outcome.SubOrders[2].Region)
	assert.Equal(t, "Order126216516-1", outcome.SubOrders[0].SubOrderNo)

	// The whole shipping charge rides on the first sub-order
	assert.True(t, outcome.SubOrders[0].HasShipping)
	assert.Equal(t, "60.00", outcome.SubOrders[0].ShippingOriginal)
	assert.Equal(t, "0.00", outcome.SubOrders[1].ShippingOriginal)

	// Everything landed in the database
	subRepo := persistence.NewGormSubOrderRepository(tdb.DB)
	stored, err := subRepo.FindForExport(ctx, testShop, splitting.ExportFilter{})
	require.NoError(t, err)
	assert.Len(t, stored, 3)

	rawRepo := persistence.NewGormRawOrderRepository(tdb.DB)
	snapshot, err := rawRepo.FindByID(ctx, testShop, 126216516)
	require.NoError(t, err)
	assert.JSONEq(t, orderNodePayload, string(snapshot.Payload))
}

func TestSplitFlow_ResplitIsIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewSharedTestDB(t)
	tdb.CleanTables()
	ctx := context.Background()

	service := newSplitServiceForTest(t, tdb)

	first, err := service.IngestSnapshot(ctx, []byte(orderNodePayload))
	require.NoError(t, err)

	// Re-splitting the stored snapshot yields the identical set
	second, err := service.SplitOrder(ctx, 126216516)
	require.NoError(t, err)
	require.Len(t, second.SubOrders, len(first.SubOrders))
	for i := range first.SubOrders {
		assert.Equal(t, first.SubOrders[i].SubOrderNo, second.SubOrders[i].SubOrderNo)
		assert.Equal(t, first.SubOrders[i].Region, second.SubOrders[i].Region)
	}

	// No row duplication after the re-split
	var count int64
	require.NoError(t, tdb.DB.Table("sub_orders").
		Where("shop_id = ?", testShop).
		Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestSplitFlow_ExportRendersStoredSubOrders(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewSharedTestDB(t)
	tdb.CleanTables()
	ctx := context.Background()

	service := newSplitServiceForTest(t, tdb)
	_, err := service.IngestSnapshot(ctx, []byte(orderNodePayload))
	require.NoError(t, err)

	exporter := appsplitting.NewExportService(
		testShop,
		persistence.NewGormSubOrderRepository(tdb.DB),
		nil,
		splitting.ExportOptions{},
		zaptest.NewLogger(t),
	)

	result, err := exporter.Export(ctx, splitting.ExportFilter{})
	require.NoError(t, err)

	csv := string(result.Data)
	assert.True(t, strings.HasPrefix(csv, "\xEF\xBB\xBF"), "export must be BOM prefixed")
	assert.Contains(t, csv, "Order126216516-1")
	assert.Contains(t, csv, "Order126216516-3")

	// One line per item row plus the header
	lines := strings.Split(strings.TrimRight(csv, "\n"), "\n")
	assert.Len(t, lines, 4)
}
