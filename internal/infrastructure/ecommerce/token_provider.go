package ecommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/zenheart/ordersync/internal/domain/splitting"
)

// expiryBuffer is how long before the reported expiry a cached token is
// treated as stale. Refreshing early avoids racing the platform clock.
const expiryBuffer = 5 * time.Minute

// TokenProvider supplies an admin access token for API calls. Implementations
// may cache and refresh tokens; Token must be safe for concurrent use.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenProvider returns a fixed admin token.
type StaticTokenProvider struct {
	token string
}

// NewStaticTokenProvider creates a provider for a long-lived admin token.
func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{token: token}
}

// Token implements TokenProvider.
func (p *StaticTokenProvider) Token(_ context.Context) (string, error) {
	return p.token, nil
}

// ClientCredentialsTokenProvider exchanges a client id/secret pair for
// short-lived admin tokens and caches them until shortly before expiry.
type ClientCredentialsTokenProvider struct {
	config     *ShopifyConfig
	httpClient *http.Client
	now        func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewClientCredentialsTokenProvider creates a refreshing token provider.
func NewClientCredentialsTokenProvider(config *ShopifyConfig, httpClient *http.Client) *ClientCredentialsTokenProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}
	return &ClientCredentialsTokenProvider{
		config:     config,
		httpClient: httpClient,
		now:        time.Now,
	}
}

// Token implements TokenProvider. A cached token is reused until it is
// within expiryBuffer of its expiry, then a fresh one is fetched. The mutex
// ensures only one refresh is in flight at a time.
func (p *ClientCredentialsTokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && p.now().Add(expiryBuffer).Before(p.expiresAt) {
		return p.token, nil
	}

	token, expiresIn, err := p.fetchToken(ctx)
	if err != nil {
		return "", err
	}

	p.token = token
	p.expiresAt = p.now().Add(time.Duration(expiresIn) * time.Second)
	return p.token, nil
}

// tokenResponse is the token endpoint payload.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (p *ClientCredentialsTokenProvider) fetchToken(ctx context.Context) (string, int64, error) {
	payload := map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     p.config.ClientID,
		"client_secret": p.config.ClientSecret,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", 0, fmt.Errorf("shopify: failed to marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL(), bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("shopify: failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", splitting.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", 0, fmt.Errorf("shopify: failed to read token response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return "", 0, fmt.Errorf("%w: token endpoint HTTP %d", splitting.ErrSourceRequestFailed, resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.Unmarshal(respBody, &tok); err != nil {
		return "", 0, fmt.Errorf("shopify: failed to parse token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", 0, fmt.Errorf("%w: token endpoint returned empty token", splitting.ErrSourceRequestFailed)
	}
	if tok.ExpiresIn <= 0 {
		tok.ExpiresIn = 3600
	}

	return tok.AccessToken, tok.ExpiresIn, nil
}

// NewTokenProvider picks the provider matching the configured credentials:
// a static provider when an admin token is set, else client credentials.
func NewTokenProvider(config *ShopifyConfig, httpClient *http.Client) TokenProvider {
	if config.AccessToken != "" {
		return NewStaticTokenProvider(config.AccessToken)
	}
	return NewClientCredentialsTokenProvider(config, httpClient)
}
