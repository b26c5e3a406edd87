package ecommerce

import (
	"errors"
	"fmt"
	"time"
)

// ShopifyConfig holds configuration for the Shopify Admin GraphQL API.
// Authentication is either a static admin access token or a client
// credentials pair exchanged for short-lived tokens at runtime.
type ShopifyConfig struct {
	// StoreName is the store handle, e.g. "mystore" for mystore.myshopify.com
	StoreName string
	// APIVersion is the admin API version, e.g. "2025-01"
	APIVersion string
	// AccessToken is a static admin access token (shpat_...)
	AccessToken string
	// ClientID and ClientSecret are used for the client-credentials token grant
	ClientID     string
	ClientSecret string
	// Timeout is the HTTP request timeout
	Timeout time.Duration
	// PageSize is the page size for order pulls
	PageSize int
	// APIBaseURL overrides the store URL, e.g. for a test double. Empty
	// means the real myshopify domain.
	APIBaseURL string
}

// Errors for Shopify configuration
var (
	ErrShopifyConfigMissingStore       = errors.New("shopify: store name is required")
	ErrShopifyConfigMissingCredentials = errors.New("shopify: access token or client credentials are required")
)

// NewShopifyConfig creates a configuration using a static admin token.
func NewShopifyConfig(storeName, accessToken string) *ShopifyConfig {
	return &ShopifyConfig{
		StoreName:   storeName,
		APIVersion:  "2025-01",
		AccessToken: accessToken,
		Timeout:     30 * time.Second,
		PageSize:    50,
	}
}

// Validate validates the Shopify configuration and fills in defaults.
func (c *ShopifyConfig) Validate() error {
	if c.StoreName == "" {
		return ErrShopifyConfigMissingStore
	}
	if c.AccessToken == "" && (c.ClientID == "" || c.ClientSecret == "") {
		return ErrShopifyConfigMissingCredentials
	}
	if c.APIVersion == "" {
		c.APIVersion = "2025-01"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.PageSize <= 0 || c.PageSize > 250 {
		c.PageSize = 50
	}
	return nil
}

// ShopDomain returns the full myshopify domain for the store.
func (c *ShopifyConfig) ShopDomain() string {
	return c.StoreName + ".myshopify.com"
}

// GraphQLURL returns the admin GraphQL endpoint for the store.
func (c *ShopifyConfig) GraphQLURL() string {
	return fmt.Sprintf("%s/admin/api/%s/graphql.json", c.baseURL(), c.APIVersion)
}

// TokenURL returns the client-credentials token endpoint for the store.
func (c *ShopifyConfig) TokenURL() string {
	return fmt.Sprintf("%s/admin/oauth/access_token", c.baseURL())
}

func (c *ShopifyConfig) baseURL() string {
	if c.APIBaseURL != "" {
		return c.APIBaseURL
	}
	return "https://" + c.ShopDomain()
}
