package plaid

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finboard/internal/shared/errs"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		ClientID:   "cid",
		Secret:     "sec",
		ClientName: "Budget App",
		BaseURL:    srv.URL,
		Timeout:    5 * time.Second,
	})
	require.NoError(t, err)
	return c
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func TestNewClient_UnknownEnv(t *testing.T) {
	_, err := NewClient(Config{Env: "staging"})
	assert.Error(t, err)

	c, err := NewClient(Config{Env: "sandbox"})
	require.NoError(t, err)
	assert.Equal(t, "https://sandbox.plaid.com", c.baseURL)
}

func TestCreateLinkToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/link/token/create", r.URL.Path)
		assert.Equal(t, "cid", r.Header.Get("PLAID-CLIENT-ID"))
		assert.Equal(t, "sec", r.Header.Get("PLAID-SECRET"))

		body := decodeBody(t, r)
		assert.Equal(t, "Budget App", body["client_name"])
		assert.Equal(t, map[string]any{"client_user_id": "42"}, body["user"])
		assert.Equal(t, []any{"transactions"}, body["products"])
		assert.Equal(t, []any{"US"}, body["country_codes"])
		assert.Equal(t, "en", body["language"])

		w.Write([]byte(`{"link_token":"link-sandbox-123","expiration":"2026-01-01T00:00:00Z"}`))
	})

	token, err := c.CreateLinkToken(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "link-sandbox-123", token)
}

func TestSyncTransactions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		assert.Equal(t, "access-1", body["access_token"])
		_, hasCursor := body["cursor"]
		assert.False(t, hasCursor, "empty cursor must be omitted")

		w.Write([]byte(`{
			"added":[{"transaction_id":"t1","account_id":"a1","amount":12.5,"date":"2024-03-02","name":"Cafe",
				"merchant_name":null,"category":["Food and Drink","Coffee"],
				"personal_finance_category":{"primary":"FOOD_AND_DRINK","detailed":"FOOD_AND_DRINK_COFFEE"},"pending":true}],
			"modified":[],
			"removed":[{"transaction_id":"t0"}],
			"next_cursor":"c1",
			"has_more":true
		}`))
	})

	page, err := c.SyncTransactions(context.Background(), "access-1", "")
	require.NoError(t, err)

	require.Len(t, page.Added, 1)
	tx := page.Added[0]
	assert.Equal(t, "t1", tx.TransactionID)
	assert.Equal(t, "12.5", tx.Amount.String())
	assert.Nil(t, tx.MerchantName)
	assert.Equal(t, "FOOD_AND_DRINK", tx.PersonalFinanceCategory.Primary)
	assert.True(t, tx.Pending)
	assert.Equal(t, []RemovedTransaction{{TransactionID: "t0"}}, page.Removed)
	assert.Equal(t, "c1", page.NextCursor)
	assert.True(t, page.HasMore)
}

func TestGetAccounts_NullBalances(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"accounts":[{"account_id":"a1","name":"Checking","type":"depository","mask":"0000",
			"balances":{"current":110.25,"available":null,"iso_currency_code":"USD"}}]}`))
	})

	accounts, err := c.GetAccounts(context.Background(), "access-1")
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	b := accounts[0].Balances
	assert.True(t, b.Current.Valid)
	assert.Equal(t, "110.25", b.Current.Decimal.String())
	assert.False(t, b.Available.Valid)
}

func TestProviderErrorDecoding(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error_type":"ITEM_ERROR","error_code":"PRODUCT_NOT_READY","error_message":"not ready"}`))
	})

	_, err := c.GetInvestmentHoldings(context.Background(), "access-1")
	require.Error(t, err)

	assert.True(t, errors.Is(err, errs.ErrProviderUnavailable))
	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "ITEM_ERROR", perr.ErrorType)
	assert.Equal(t, http.StatusBadRequest, perr.StatusCode)
	assert.True(t, HasErrorCode(err, CodeProductNotReady, CodeProductsNotSupported))
	assert.False(t, HasErrorCode(err, CodeItemLoginRequired))
}

func TestProviderErrorWithoutBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	err := c.RemoveItem(context.Background(), "access-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrProviderUnavailable))

	var perr *Error
	assert.False(t, errors.As(err, &perr))
}

func TestGetInvestmentTransactions_Paginates(t *testing.T) {
	var offsets []float64
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		assert.Equal(t, "2024-01-01", body["start_date"])
		assert.Equal(t, "2024-12-31", body["end_date"])
		opts := body["options"].(map[string]any)
		offsets = append(offsets, opts["offset"].(float64))

		if opts["offset"].(float64) == 0 {
			w.Write([]byte(`{"investment_transactions":[{"investment_transaction_id":"i1","amount":1},{"investment_transaction_id":"i2","amount":2}],"total_investment_transactions":3}`))
			return
		}
		w.Write([]byte(`{"investment_transactions":[{"investment_transaction_id":"i3","amount":3}],"total_investment_transactions":3}`))
	})

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	resp, err := c.GetInvestmentTransactions(context.Background(), "access-1", start, end)
	require.NoError(t, err)

	assert.Len(t, resp.InvestmentTransactions, 3)
	assert.Equal(t, []float64{0, 2}, offsets)
}

func TestContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetAccounts(ctx, "access-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
