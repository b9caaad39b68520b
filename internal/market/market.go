// Package market aggregates crypto market data for the console: spot prices
// through the backend's cache with a direct CoinGecko fallback, the Fear &
// Greed index, and USD valuation of tracked wallets.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"nexusctl/internal/nexus"
	"nexusctl/internal/store"
)

// Default upstream endpoints. Overridable for tests.
const (
	DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"
	DefaultFearGreedURL = "https://api.alternative.me/fng/"
)

// priceCacheTTL mirrors the backend's own cache window; polling tighter than
// this only returns the same snapshot.
const priceCacheTTL = 30 * time.Second

// FearGreed is the latest Fear & Greed index reading.
type FearGreed struct {
	Value          int
	Classification string
	Timestamp      string
}

// WalletValue pairs a tracked wallet with its looked-up balance.
type WalletValue struct {
	Wallet   store.Wallet
	Balance  float64
	USDValue float64
	Err      error
}

// Portfolio is the valuation of all tracked wallets.
type Portfolio struct {
	Wallets  []WalletValue
	TotalUSD float64
}

// Service fetches market data. The backend is tried first for prices since
// it caches upstream calls; CoinGecko is the fallback when the backend is
// down.
type Service struct {
	backend      *nexus.Client
	httpClient   *http.Client
	logger       *slog.Logger
	coinGeckoURL string
	fearGreedURL string

	mu       sync.Mutex
	cached   nexus.Prices
	cachedAt time.Time
}

// ServiceOpts holds parameters for creating a market Service.
type ServiceOpts struct {
	Backend      *nexus.Client // optional; CoinGecko-only when nil
	HTTPClient   *http.Client
	Logger       *slog.Logger
	CoinGeckoURL string // defaults to DefaultCoinGeckoURL
	FearGreedURL string // defaults to DefaultFearGreedURL
}

// NewService creates a market data service.
func NewService(opts ServiceOpts) (*Service, error) {
	if opts.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	cg := opts.CoinGeckoURL
	if cg == "" {
		cg = DefaultCoinGeckoURL
	}
	fng := opts.FearGreedURL
	if fng == "" {
		fng = DefaultFearGreedURL
	}
	return &Service{
		backend:      opts.Backend,
		httpClient:   hc,
		logger:       opts.Logger,
		coinGeckoURL: cg,
		fearGreedURL: fng,
	}, nil
}

// Prices returns the latest snapshot, serving from the short-lived local
// cache when fresh. The backend cache is preferred; CoinGecko is queried
// directly only when the backend fails.
func (s *Service) Prices(ctx context.Context) (nexus.Prices, error) {
	s.mu.Lock()
	if !s.cachedAt.IsZero() && time.Since(s.cachedAt) < priceCacheTTL {
		p := s.cached
		s.mu.Unlock()
		return p, nil
	}
	s.mu.Unlock()

	if s.backend != nil {
		p, err := s.backend.Prices(ctx)
		if err == nil && p.Bitcoin.USD > 0 {
			s.storeCache(p)
			return p, nil
		}
		if err != nil {
			s.logger.Warn("backend price cache unavailable, falling back to CoinGecko", "error", err)
		}
	}

	p, err := s.fetchCoinGecko(ctx)
	if err != nil {
		return nexus.Prices{}, err
	}
	s.storeCache(p)
	return p, nil
}

func (s *Service) storeCache(p nexus.Prices) {
	s.mu.Lock()
	s.cached = p
	s.cachedAt = time.Now()
	s.mu.Unlock()
}

func (s *Service) fetchCoinGecko(ctx context.Context) (nexus.Prices, error) {
	url := s.coinGeckoURL + "/simple/price?ids=bitcoin,ethereum,solana&vs_currencies=usd&include_24hr_change=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nexus.Prices{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nexus.Prices{}, fmt.Errorf("coingecko request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nexus.Prices{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nexus.Prices{}, fmt.Errorf("coingecko error: %s - %s", resp.Status, string(body))
	}

	var prices nexus.Prices
	if err := json.Unmarshal(body, &prices); err != nil {
		return nexus.Prices{}, fmt.Errorf("failed to unmarshal prices: %w", err)
	}
	return prices, nil
}

// FearGreed fetches the latest Fear & Greed index reading. The upstream
// returns values as strings.
func (s *Service) FearGreed(ctx context.Context) (FearGreed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.fearGreedURL, nil)
	if err != nil {
		return FearGreed{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return FearGreed{}, fmt.Errorf("fear/greed request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return FearGreed{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return FearGreed{}, fmt.Errorf("fear/greed error: %s", resp.Status)
	}

	var payload struct {
		Data []struct {
			Value               string `json:"value"`
			ValueClassification string `json:"value_classification"`
			Timestamp           string `json:"timestamp"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return FearGreed{}, fmt.Errorf("failed to unmarshal fear/greed: %w", err)
	}
	if len(payload.Data) == 0 {
		return FearGreed{}, fmt.Errorf("fear/greed returned no data")
	}

	latest := payload.Data[0]
	value, err := strconv.Atoi(latest.Value)
	if err != nil {
		return FearGreed{}, fmt.Errorf("unexpected fear/greed value %q: %w", latest.Value, err)
	}
	return FearGreed{
		Value:          value,
		Classification: latest.ValueClassification,
		Timestamp:      latest.Timestamp,
	}, nil
}

// Portfolio values every tracked wallet through the backend's balance
// lookup. A failed lookup marks that wallet's entry instead of failing the
// whole portfolio.
func (s *Service) Portfolio(ctx context.Context, wallets []store.Wallet) (Portfolio, error) {
	if s.backend == nil {
		return Portfolio{}, fmt.Errorf("no backend configured for balance lookups")
	}

	var portfolio Portfolio
	for _, w := range wallets {
		balance, err := s.backend.Balance(ctx, w.Chain, w.Address)
		entry := WalletValue{Wallet: w}
		if err != nil {
			s.logger.Warn("balance lookup failed", "chain", w.Chain, "address", w.Address, "error", err)
			entry.Err = err
		} else {
			entry.Balance = balance.Balance
			entry.USDValue = balance.USDValue
			portfolio.TotalUSD += balance.USDValue
		}
		portfolio.Wallets = append(portfolio.Wallets, entry)
	}
	return portfolio, nil
}
