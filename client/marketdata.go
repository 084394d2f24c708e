package client

import (
	"fmt"
	"net/http"
	"net/url"
)

// Public-capability reads. Each issues one blocking GET with no retries;
// transport failures surface as NetworkError, non-2xx as RemoteError.

// AccountBy selects the lookup key for GetAccount.
type AccountBy string

const (
	AccountByIndex   AccountBy = "index"
	AccountByAddress AccountBy = "address"
)

// GetAccount fetches an account snapshot through the public endpoint.
func (c *Client) GetAccount(by AccountBy, value string) (*Account, error) {
	query := url.Values{}
	query.Set("by", string(by))
	query.Set("value", value)

	var resp accountResponse
	if err := c.getJSON("/api/v1/account", query, &resp); err != nil {
		return nil, err
	}
	if len(resp.Accounts) == 0 {
		return nil, fmt.Errorf("account %s=%s missing from response", by, value)
	}
	return &resp.Accounts[0], nil
}

// GetAccountAuthenticated fetches this session's account snapshot with
// auth headers. On an auth failure it degrades to the public read-only
// endpoint; the degradation is always logged because it can mask a
// credential misconfiguration.
func (c *Client) GetAccountAuthenticated() (*Account, error) {
	query := url.Values{}
	query.Set("by", string(AccountByIndex))
	query.Set("value", formatInt(c.config.AccountIndex))

	var resp accountResponse
	err := c.getJSONAuthed("/api/v1/account", query, &resp)
	if err != nil {
		if remote, ok := err.(*RemoteError); ok &&
			(remote.Status == http.StatusUnauthorized || remote.Status == http.StatusForbidden) {
			c.logf("⚠️  Authenticated account fetch failed (%d), falling back to public endpoint", remote.Status)
			return c.GetAccount(AccountByIndex, formatInt(c.config.AccountIndex))
		}
		return nil, err
	}
	if len(resp.Accounts) == 0 {
		return nil, fmt.Errorf("account %d missing from response", c.config.AccountIndex)
	}
	return &resp.Accounts[0], nil
}

// GetOrderBook fetches the resting book for one market.
func (c *Client) GetOrderBook(market string) (*OrderBook, error) {
	query := url.Values{}
	query.Set("market", market)

	var resp orderBookResponse
	if err := c.getJSON("/api/v1/orderBookDetails", query, &resp); err != nil {
		return nil, err
	}
	if len(resp.OrderBookDetails) == 0 {
		return nil, fmt.Errorf("order book for %s missing from response", market)
	}
	return &resp.OrderBookDetails[0], nil
}

// GetAllOrderBooks fetches the book summaries for every listed market.
func (c *Client) GetAllOrderBooks() ([]OrderBook, error) {
	var resp allOrderBooksResponse
	if err := c.getJSON("/api/v1/orderBooks", nil, &resp); err != nil {
		return nil, err
	}
	return resp.OrderBooks, nil
}

// GetExchangeStats fetches the exchange-wide activity summary.
func (c *Client) GetExchangeStats() (*ExchangeStats, error) {
	var resp ExchangeStats
	if err := c.getJSON("/api/v1/exchangeStats", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetRecentTrades fetches up to limit recent trades for a market.
func (c *Client) GetRecentTrades(market string, limit int) ([]Trade, error) {
	query := url.Values{}
	query.Set("market", market)
	query.Set("limit", formatInt(int64(limit)))

	var resp recentTradesResponse
	if err := c.getJSON("/api/v1/recentTrades", query, &resp); err != nil {
		return nil, err
	}
	return resp.Trades, nil
}
