package splitting

import (
	"strconv"
	"strings"
	"time"
)

// ExportHeaders are the fixed export columns, in order. The row/column
// contract is owned here; writing the delimited file is the caller's concern.
var ExportHeaders = []string{
	"订单号",
	"店铺账号",
	"SKU",
	"属性",
	"数量",
	"单价",
	"币种",
	"发货仓库",
	"买家姓名",
	"地址1",
	"城市",
	"省/州",
	"区县",
	"国家二字码",
	"邮编",
	"手机",
	"Email",
	"买家备注",
	"下单时间",
	"客服备注",
}

// exportTimeZone is the fixed display offset for the order-time column.
// Stored instants stay UTC; the conversion happens only at export time.
var exportTimeZone = time.FixedZone("UTC+8", 8*60*60)

// ExportOptions control the constant columns of an export.
type ExportOptions struct {
	// ShopAccount fills the 店铺账号 column.
	ShopAccount string
	// Warehouse fills the 发货仓库 column.
	Warehouse string
}

// DefaultExportOptions returns the fallback column values used when the
// caller supplies none.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		ShopAccount: "默认店铺",
		Warehouse:   "默认仓库",
	}
}

// ExportRows flattens sub-orders into export rows: the header row followed by
// one row per line item. The header is always present, even with no data.
func ExportRows(subOrders []SubOrder, opts ExportOptions) [][]string {
	if opts.ShopAccount == "" {
		opts.ShopAccount = DefaultExportOptions().ShopAccount
	}
	if opts.Warehouse == "" {
		opts.Warehouse = DefaultExportOptions().Warehouse
	}

	rows := [][]string{ExportHeaders}
	for _, sub := range subOrders {
		rows = append(rows, subOrderRows(&sub, opts)...)
	}
	return rows
}

// subOrderRows expands one sub-order into one row per line item.
func subOrderRows(sub *SubOrder, opts ExportOptions) [][]string {
	orderNo := sub.SubOrderNo
	if name := sub.Extra.OrderName; name != "" {
		orderNo = name + "-" + sub.SubOrderNo
	}

	customer := sub.Customer
	address := customer.Address1
	if customer.Address2 != "" {
		address = strings.TrimSpace(address + " " + customer.Address2)
	}
	province := customer.Province
	if province == "" {
		province = "台湾"
	}
	countryCode := strings.ToLower(customer.CountryCode)
	if countryCode == "" {
		countryCode = "tw"
	}

	currency := sub.Currency
	if currency == "" {
		currency = "TWD"
	}

	orderTime := ""
	if sub.OrderCreatedAt != nil {
		orderTime = sub.OrderCreatedAt.In(exportTimeZone).Format("2006-01-02 15:04:05")
	}

	rows := make([][]string, 0, len(sub.Items))
	for _, item := range sub.Items {
		unitPrice := item.DiscountedUnitPrice
		if unitPrice == "" {
			unitPrice = item.Price
		}
		if unitPrice == "" {
			unitPrice = "0"
		}
		sku := ""
		if item.SkuID != 0 {
			sku = strconv.FormatInt(item.SkuID, 10)
		}
		rows = append(rows, []string{
			orderNo,
			opts.ShopAccount,
			sku,
			item.VariantLabel,
			strconv.Itoa(item.Quantity),
			unitPrice,
			currency,
			opts.Warehouse,
			customer.Name,
			address,
			customer.City,
			province,
			customer.City,
			countryCode,
			customer.Zip,
			customer.Phone,
			customer.Email,
			sub.Extra.Note,
			orderTime,
			sub.Extra.StaffNote,
		})
	}
	return rows
}
