// Package plaid is a small REST client for the Plaid API endpoints used by
// the sync engine and the investment views.
package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"finboard/internal/shared/errs"
)

const (
	apiVersion     = "2020-09-14"
	defaultTimeout = 60 * time.Second
	syncPageSize   = 500

	// investments/transactions/get caps count at 500
	investmentPageSize = 500
	dateLayout         = "2006-01-02"
)

var baseURLs = map[string]string{
	"sandbox":     "https://sandbox.plaid.com",
	"development": "https://development.plaid.com",
	"production":  "https://production.plaid.com",
}

type Config struct {
	ClientID   string
	Secret     string
	Env        string
	ClientName string
	Timeout    time.Duration
	RateLimit  float64 // requests per second, 0 = unlimited
	BaseURL    string  // overrides Env when set
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	secret     string
	clientName string
	limiter    *rate.Limiter
}

var _ ClientInterface = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		var ok bool
		if baseURL, ok = baseURLs[cfg.Env]; !ok {
			return nil, fmt.Errorf("unknown plaid environment %q", cfg.Env)
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(1, int(cfg.RateLimit)))
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL:    baseURL,
		clientID:   cfg.ClientID,
		secret:     cfg.Secret,
		clientName: cfg.ClientName,
		limiter:    limiter,
	}, nil
}

func (c *Client) CreateLinkToken(ctx context.Context, clientUserID string) (string, error) {
	req := linkTokenCreateRequest{
		ClientName:   c.clientName,
		User:         linkTokenUser{ClientUserID: clientUserID},
		Products:     []string{"transactions"},
		CountryCodes: []string{"US"},
		Language:     "en",
	}

	var resp linkTokenCreateResponse
	if err := c.post(ctx, "/link/token/create", req, &resp); err != nil {
		return "", errs.Provider("create link token", err)
	}
	return resp.LinkToken, nil
}

func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (*ExchangeResult, error) {
	var resp ExchangeResult
	if err := c.post(ctx, "/item/public_token/exchange", publicTokenExchangeRequest{PublicToken: publicToken}, &resp); err != nil {
		return nil, errs.Provider("exchange public token", err)
	}
	return &resp, nil
}

func (c *Client) GetAccounts(ctx context.Context, accessToken string) ([]Account, error) {
	var resp accountsGetResponse
	if err := c.post(ctx, "/accounts/get", accessTokenRequest{AccessToken: accessToken}, &resp); err != nil {
		return nil, errs.Provider("get accounts", err)
	}
	return resp.Accounts, nil
}

// SyncTransactions fetches one page of the transactions feed. An empty cursor
// starts from the beginning of the item's history.
func (c *Client) SyncTransactions(ctx context.Context, accessToken, cursor string) (*SyncPage, error) {
	req := transactionsSyncRequest{
		AccessToken: accessToken,
		Cursor:      cursor,
		Count:       syncPageSize,
	}

	var page SyncPage
	if err := c.post(ctx, "/transactions/sync", req, &page); err != nil {
		return nil, errs.Provider("sync transactions", err)
	}
	return &page, nil
}

func (c *Client) RemoveItem(ctx context.Context, accessToken string) error {
	if err := c.post(ctx, "/item/remove", accessTokenRequest{AccessToken: accessToken}, nil); err != nil {
		return errs.Provider("remove item", err)
	}
	return nil
}

func (c *Client) GetInvestmentHoldings(ctx context.Context, accessToken string) (*HoldingsResponse, error) {
	var resp HoldingsResponse
	if err := c.post(ctx, "/investments/holdings/get", accessTokenRequest{AccessToken: accessToken}, &resp); err != nil {
		return nil, errs.Provider("get investment holdings", err)
	}
	return &resp, nil
}

// GetInvestmentTransactions pages through the whole [start, end] window and
// returns the merged result.
func (c *Client) GetInvestmentTransactions(ctx context.Context, accessToken string, start, end time.Time) (*InvestmentTransactionsResponse, error) {
	req := investmentTransactionsRequest{
		AccessToken: accessToken,
		StartDate:   start.Format(dateLayout),
		EndDate:     end.Format(dateLayout),
		Options:     investmentTransactionsOptions{Count: investmentPageSize},
	}

	var out *InvestmentTransactionsResponse
	for {
		var page InvestmentTransactionsResponse
		if err := c.post(ctx, "/investments/transactions/get", req, &page); err != nil {
			return nil, errs.Provider("get investment transactions", err)
		}

		if out == nil {
			out = &page
		} else {
			out.InvestmentTransactions = append(out.InvestmentTransactions, page.InvestmentTransactions...)
		}

		req.Options.Offset += len(page.InvestmentTransactions)
		if len(page.InvestmentTransactions) == 0 || req.Options.Offset >= page.TotalInvestmentTransactions {
			return out, nil
		}
	}
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("PLAID-CLIENT-ID", c.clientID)
	req.Header.Set("PLAID-SECRET", c.secret)
	req.Header.Set("Plaid-Version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		perr := &Error{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(raw, perr); err != nil || perr.ErrorCode == "" {
			return fmt.Errorf("%s failed with status %d: %s", path, resp.StatusCode, truncate(raw, 256))
		}
		return perr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s response: %w", path, err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
