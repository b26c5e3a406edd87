package ecommerce

import "encoding/json"

// ordersQuery pulls a page of orders with everything the splitting engine
// reads: identity, money totals, line items with variant labels, shipping
// lines and address, and the marketing channel attribution.
const ordersQuery = `query Orders($first: Int!, $after: String, $query: String) {
  orders(first: $first, after: $after, query: $query, sortKey: CREATED_AT) {
    pageInfo {
      hasNextPage
      endCursor
    }
    edges {
      node {
        id
        name
        email
        phone
        note
        createdAt
        updatedAt
        currencyCode
        displayFinancialStatus
        displayFulfillmentStatus
        sourceName
        paymentGatewayNames
        customAttributes {
          key
          value
        }
        totalPriceSet { shopMoney { amount currencyCode } }
        subtotalPriceSet { shopMoney { amount currencyCode } }
        totalTaxSet { shopMoney { amount currencyCode } }
        totalDiscountsSet { shopMoney { amount currencyCode } }
        totalShippingPriceSet { shopMoney { amount currencyCode } }
        shippingAddress {
          name
          firstName
          lastName
          phone
          address1
          address2
          city
          province
          provinceCode
          zip
          country
          countryCodeV2
        }
        shippingLines(first: 5) {
          edges {
            node {
              title
              source
              code
              originalPriceSet { shopMoney { amount currencyCode } }
              discountedPriceSet {
                shopMoney { amount currencyCode }
                presentmentMoney { amount currencyCode }
              }
            }
          }
        }
        lineItems(first: 100) {
          edges {
            node {
              name
              quantity
              variantTitle
              variant { legacyResourceId }
              originalUnitPriceSet { shopMoney { amount currencyCode } }
              discountedUnitPriceAfterAllDiscountsSet { shopMoney { amount currencyCode } }
              originalTotalSet { shopMoney { amount currencyCode } }
              discountedTotalSet(withCodeDiscounts: true) { shopMoney { amount currencyCode } }
              totalDiscountSet { shopMoney { amount currencyCode } }
            }
          }
        }
      }
    }
  }
}`

// graphQLRequest is the request envelope for the admin GraphQL endpoint.
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphQLResponse is the response envelope. Data is kept raw so order nodes
// can be stored verbatim and re-parsed later.
type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors,omitempty"`
}

// graphQLError is one entry of the response errors array.
type graphQLError struct {
	Message string `json:"message"`
}

// ordersData is the data payload of the orders query.
type ordersData struct {
	Orders ordersConnection `json:"orders"`
}

// ordersConnection is the paginated orders result.
type ordersConnection struct {
	PageInfo pageInfo    `json:"pageInfo"`
	Edges    []orderEdge `json:"edges"`
}

// pageInfo carries cursor pagination state.
type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

// orderEdge wraps one order node. Node stays raw: the adapter stores the
// bytes as the immutable snapshot payload and parses a copy into the domain
// model, so stored and fetched orders share one decode path.
type orderEdge struct {
	Node json.RawMessage `json:"node"`
}

// money is a single amount in one currency.
type money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

// moneyBag is an amount in shop and presentment currency.
type moneyBag struct {
	ShopMoney        money `json:"shopMoney"`
	PresentmentMoney money `json:"presentmentMoney"`
}

// orderAttribute is a key/value custom attribute on the order.
type orderAttribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// orderAddress is the shipping address node.
type orderAddress struct {
	Name          string `json:"name"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Phone         string `json:"phone"`
	Address1      string `json:"address1"`
	Address2      string `json:"address2"`
	City          string `json:"city"`
	Province      string `json:"province"`
	ProvinceCode  string `json:"provinceCode"`
	Zip           string `json:"zip"`
	Country       string `json:"country"`
	CountryCodeV2 string `json:"countryCodeV2"`
}

// shippingLineNode is one shipping charge node.
type shippingLineNode struct {
	Title              string   `json:"title"`
	Source             string   `json:"source"`
	Code               string   `json:"code"`
	OriginalPriceSet   moneyBag `json:"originalPriceSet"`
	DiscountedPriceSet moneyBag `json:"discountedPriceSet"`
}

// shippingLinesConnection wraps shipping line edges.
type shippingLinesConnection struct {
	Edges []struct {
		Node shippingLineNode `json:"node"`
	} `json:"edges"`
}

// lineItemVariant carries the numeric variant id.
type lineItemVariant struct {
	LegacyResourceID string `json:"legacyResourceId"`
}

// lineItemNode is one order line node. The discounted unit price is the
// after-all-discounts variant so order-level discount codes are reflected in
// the per-unit amount.
type lineItemNode struct {
	Name                   string           `json:"name"`
	Quantity               int              `json:"quantity"`
	VariantTitle           string           `json:"variantTitle"`
	Variant                *lineItemVariant `json:"variant"`
	OriginalUnitPriceSet   moneyBag         `json:"originalUnitPriceSet"`
	DiscountedUnitPriceSet moneyBag         `json:"discountedUnitPriceAfterAllDiscountsSet"`
	OriginalTotalSet       moneyBag         `json:"originalTotalSet"`
	DiscountedTotalSet     moneyBag         `json:"discountedTotalSet"`
	TotalDiscountSet       moneyBag         `json:"totalDiscountSet"`
}

// lineItemsConnection wraps line item edges.
type lineItemsConnection struct {
	Edges []struct {
		Node lineItemNode `json:"node"`
	} `json:"edges"`
}

// orderNode is the decoded form of one order snapshot.
type orderNode struct {
	ID                       string                  `json:"id"`
	Name                     string                  `json:"name"`
	Email                    string                  `json:"email"`
	Phone                    string                  `json:"phone"`
	Note                     string                  `json:"note"`
	CreatedAt                string                  `json:"createdAt"`
	UpdatedAt                string                  `json:"updatedAt"`
	CurrencyCode             string                  `json:"currencyCode"`
	DisplayFinancialStatus   string                  `json:"displayFinancialStatus"`
	DisplayFulfillmentStatus string                  `json:"displayFulfillmentStatus"`
	SourceName               string                  `json:"sourceName"`
	PaymentGatewayNames      []string                `json:"paymentGatewayNames"`
	CustomAttributes         []orderAttribute        `json:"customAttributes"`
	TotalPriceSet            moneyBag                `json:"totalPriceSet"`
	SubtotalPriceSet         moneyBag                `json:"subtotalPriceSet"`
	TotalTaxSet              moneyBag                `json:"totalTaxSet"`
	TotalDiscountsSet        moneyBag                `json:"totalDiscountsSet"`
	TotalShippingPriceSet    moneyBag                `json:"totalShippingPriceSet"`
	ShippingAddress          *orderAddress           `json:"shippingAddress"`
	ShippingLines            shippingLinesConnection `json:"shippingLines"`
	LineItems                lineItemsConnection     `json:"lineItems"`
}
