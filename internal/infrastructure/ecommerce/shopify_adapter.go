package ecommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/zenheart/ordersync/internal/domain/splitting"
)

// maxResponseSize limits response bodies to prevent memory exhaustion.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// ShopifyAdapter implements splitting.OrderSource against the Shopify Admin
// GraphQL API.
type ShopifyAdapter struct {
	config     *ShopifyConfig
	tokens     TokenProvider
	httpClient *http.Client
}

// NewShopifyAdapter creates a new adapter with the given configuration and
// token provider. A nil provider gets one derived from the config.
func NewShopifyAdapter(config *ShopifyConfig, tokens TokenProvider) (*ShopifyAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: config.Timeout}
	if tokens == nil {
		tokens = NewTokenProvider(config, httpClient)
	}

	return &ShopifyAdapter{
		config:     config,
		tokens:     tokens,
		httpClient: httpClient,
	}, nil
}

// ShopDomain returns the store's myshopify domain, used as the shop key on
// persisted snapshots.
func (a *ShopifyAdapter) ShopDomain() string {
	return a.config.ShopDomain()
}

// PullOrders pulls one page of orders created inside the request window.
func (a *ShopifyAdapter) PullOrders(ctx context.Context, req splitting.PullRequest) (*splitting.PullResult, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = a.config.PageSize
	}

	variables := map[string]any{
		"first": pageSize,
		"query": createdAtQuery(req.CreatedAtMin, req.CreatedAtMax),
	}
	if req.Cursor != "" {
		variables["after"] = req.Cursor
	}

	respBody, err := a.doRequest(ctx, ordersQuery, variables)
	if err != nil {
		return nil, err
	}

	var data ordersData
	if err := json.Unmarshal(respBody, &data); err != nil {
		return nil, fmt.Errorf("shopify: failed to parse orders response: %w", err)
	}

	result := &splitting.PullResult{
		Orders:     make([]splitting.PulledOrder, 0, len(data.Orders.Edges)),
		HasMore:    data.Orders.PageInfo.HasNextPage,
		NextCursor: data.Orders.PageInfo.EndCursor,
	}

	for _, edge := range data.Orders.Edges {
		order, err := OrderFromNode(edge.Node)
		if err != nil {
			return nil, err
		}
		result.Orders = append(result.Orders, splitting.PulledOrder{
			Order:   order,
			Payload: edge.Node,
		})
	}

	return result, nil
}

// createdAtQuery builds the orders search filter for a creation window.
func createdAtQuery(min, max time.Time) string {
	var parts []string
	if !min.IsZero() {
		parts = append(parts, fmt.Sprintf("created_at:>='%s'", min.UTC().Format(time.RFC3339)))
	}
	if !max.IsZero() {
		parts = append(parts, fmt.Sprintf("created_at:<='%s'", max.UTC().Format(time.RFC3339)))
	}
	return strings.Join(parts, " AND ")
}

// doRequest posts a GraphQL query and returns the data payload.
func (a *ShopifyAdapter) doRequest(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	token, err := a.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	bodyBytes, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("shopify: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.GraphQLURL(), bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("shopify: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shopify-Access-Token", token)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", splitting.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("shopify: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", splitting.ErrSourceRequestFailed, resp.StatusCode)
	}

	var envelope graphQLResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("shopify: failed to parse response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return nil, fmt.Errorf("%w: %s", splitting.ErrSourceRequestFailed, envelope.Errors[0].Message)
	}
	if envelope.Data == nil {
		return nil, fmt.Errorf("%w: empty response data", splitting.ErrSourceRequestFailed)
	}

	return envelope.Data, nil
}

// OrderFromNode decodes one order node payload into the domain model. It is
// the single decode path for both freshly pulled orders and stored snapshot
// payloads read back for re-splitting.
func OrderFromNode(payload []byte) (*splitting.RawOrder, error) {
	var node orderNode
	if err := json.Unmarshal(payload, &node); err != nil {
		return nil, fmt.Errorf("%w: %v", splitting.ErrInvalidPayload, err)
	}

	orderID, err := orderIDFromGID(node.ID)
	if err != nil {
		return nil, err
	}

	order := &splitting.RawOrder{
		ID:                orderID,
		Name:              node.Name,
		Email:             node.Email,
		Phone:             node.Phone,
		Currency:          node.CurrencyCode,
		TotalPrice:        node.TotalPriceSet.ShopMoney.Amount,
		SubtotalPrice:     node.SubtotalPriceSet.ShopMoney.Amount,
		TotalTax:          node.TotalTaxSet.ShopMoney.Amount,
		TotalDiscounts:    node.TotalDiscountsSet.ShopMoney.Amount,
		TotalShipping:     node.TotalShippingPriceSet.ShopMoney.Amount,
		FinancialStatus:   node.DisplayFinancialStatus,
		FulfillmentStatus: node.DisplayFulfillmentStatus,
		Note:              node.Note,
		SourceName:        node.SourceName,
		PaymentGateways:   node.PaymentGatewayNames,
		CreatedAt:         parseTime(node.CreatedAt),
		UpdatedAt:         parseTime(node.UpdatedAt),
	}

	for _, attr := range node.CustomAttributes {
		order.NoteAttributes = append(order.NoteAttributes, splitting.NoteAttribute{
			Key:   attr.Key,
			Value: attr.Value,
		})
	}
	// The top-level note is the buyer message. The staff note travels as a
	// custom attribute under one of a few conventional keys.
	order.StaffNote = staffNoteFromAttributes(node.CustomAttributes)

	if addr := node.ShippingAddress; addr != nil {
		order.ShippingAddress = &splitting.Address{
			Name:          addr.Name,
			FirstName:     addr.FirstName,
			LastName:      addr.LastName,
			Phone:         addr.Phone,
			Address1:      addr.Address1,
			Address2:      addr.Address2,
			City:          addr.City,
			Province:      addr.Province,
			ProvinceCode:  addr.ProvinceCode,
			Zip:           addr.Zip,
			Country:       addr.Country,
			CountryCodeV2: addr.CountryCodeV2,
		}
	}

	for _, edge := range node.ShippingLines.Edges {
		sl := edge.Node
		order.ShippingLines = append(order.ShippingLines, splitting.ShippingLine{
			Title:                       sl.Title,
			Source:                      sl.Source,
			Code:                        sl.Code,
			OriginalAmount:              sl.OriginalPriceSet.ShopMoney.Amount,
			DiscountedAmount:            sl.DiscountedPriceSet.ShopMoney.Amount,
			DiscountedPresentmentAmount: sl.DiscountedPriceSet.PresentmentMoney.Amount,
			CurrencyCode:                sl.OriginalPriceSet.ShopMoney.CurrencyCode,
		})
	}

	for _, edge := range node.LineItems.Edges {
		li := edge.Node
		item := splitting.LineItem{
			Name:                li.Name,
			VariantLabel:        li.VariantTitle,
			Quantity:            li.Quantity,
			Price:               unitPrice(li),
			OriginalUnitPrice:   li.OriginalUnitPriceSet.ShopMoney.Amount,
			DiscountedUnitPrice: li.DiscountedUnitPriceSet.ShopMoney.Amount,
			OriginalTotal:       li.OriginalTotalSet.ShopMoney.Amount,
			DiscountedTotal:     li.DiscountedTotalSet.ShopMoney.Amount,
			TotalDiscount:       li.TotalDiscountSet.ShopMoney.Amount,
		}
		if li.Variant != nil {
			if skuID, err := strconv.ParseInt(li.Variant.LegacyResourceID, 10, 64); err == nil {
				item.SkuID = skuID
			}
		}
		order.LineItems = append(order.LineItems, item)
	}

	return order, nil
}

// staffNoteKeys are the custom attribute keys a storefront may use for the
// internal note shown to support staff.
var staffNoteKeys = []string{"staff_note", "客服备注", "internal_note", "staffnote"}

// staffNoteFromAttributes returns the first staff-note attribute value.
func staffNoteFromAttributes(attrs []orderAttribute) string {
	for _, attr := range attrs {
		if slices.Contains(staffNoteKeys, strings.ToLower(strings.TrimSpace(attr.Key))) {
			return attr.Value
		}
	}
	return ""
}

// unitPrice returns the effective per-unit amount, preferring the discounted
// price and falling back to the original when the platform omits it.
func unitPrice(li lineItemNode) string {
	if amount := li.DiscountedUnitPriceSet.ShopMoney.Amount; amount != "" {
		return amount
	}
	return li.OriginalUnitPriceSet.ShopMoney.Amount
}

// orderIDFromGID extracts the numeric order id from a global id like
// "gid://shopify/Order/126216516".
func orderIDFromGID(gid string) (int64, error) {
	idx := strings.LastIndex(gid, "/")
	if idx < 0 || idx == len(gid)-1 {
		return 0, fmt.Errorf("%w: malformed order id %q", splitting.ErrInvalidPayload, gid)
	}
	id, err := strconv.ParseInt(gid[idx+1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed order id %q", splitting.ErrInvalidPayload, gid)
	}
	return id, nil
}

// parseTime parses an RFC3339 timestamp, returning the zero time on failure.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// Ensure ShopifyAdapter implements the order source interface
var _ splitting.OrderSource = (*ShopifyAdapter)(nil)
