package nexus

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// CoinPrice is a spot price with 24h change.
type CoinPrice struct {
	USD          float64 `json:"usd"`
	USD24hChange float64 `json:"usd_24h_change"`
}

// Prices is the backend's cached CoinGecko snapshot.
type Prices struct {
	Bitcoin  CoinPrice `json:"bitcoin"`
	Ethereum CoinPrice `json:"ethereum"`
	Solana   CoinPrice `json:"solana"`
}

// WalletBalance is the balance lookup result for one address.
type WalletBalance struct {
	Chain    string  `json:"chain"`
	Address  string  `json:"address"`
	Balance  float64 `json:"balance"`
	USDValue float64 `json:"usd_value"`
}

// Prices fetches the backend's price cache. The backend caches upstream for
// 30 seconds; callers needing fresher data go to CoinGecko directly via the
// market package.
func (c *Client) Prices(ctx context.Context) (Prices, error) {
	var p Prices
	if err := c.doJSON(ctx, http.MethodGet, "/prices", nil, &p); err != nil {
		return Prices{}, fmt.Errorf("fetch prices: %w", err)
	}
	return p, nil
}

// Balance looks up the balance of one wallet address on the given chain
// (sol, eth or btc).
func (c *Client) Balance(ctx context.Context, chain, address string) (WalletBalance, error) {
	var b WalletBalance
	path := "/balances/" + url.PathEscape(chain) + "/" + url.PathEscape(address)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &b); err != nil {
		return WalletBalance{}, fmt.Errorf("fetch balance %s/%s: %w", chain, address, err)
	}
	return b, nil
}
