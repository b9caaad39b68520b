package market

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"nexusctl/internal/nexus"
	"nexusctl/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func samplePrices() nexus.Prices {
	return nexus.Prices{
		Bitcoin:  nexus.CoinPrice{USD: 65000, USD24hChange: 1.2},
		Ethereum: nexus.CoinPrice{USD: 3200, USD24hChange: -0.5},
		Solana:   nexus.CoinPrice{USD: 150, USD24hChange: 4.1},
	}
}

// backendStub serves the backend's price and balance endpoints.
type backendStub struct {
	mu         sync.Mutex
	priceCalls int
	failPrices bool
}

func (b *backendStub) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /prices", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.priceCalls++
		fail := b.failPrices
		b.mu.Unlock()
		if fail {
			http.Error(w, `{"detail":"cache cold"}`, http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(samplePrices())
	})
	mux.HandleFunc("GET /balances/{chain}/{address}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("chain") == "btc" {
			http.Error(w, `{"detail":"explorer timeout"}`, http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(nexus.WalletBalance{
			Chain:    r.PathValue("chain"),
			Address:  r.PathValue("address"),
			Balance:  2,
			USDValue: 100,
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func coinGeckoServer(t *testing.T, calls *int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		json.NewEncoder(w).Encode(map[string]map[string]float64{
			"bitcoin":  {"usd": 64000, "usd_24h_change": 0.9},
			"ethereum": {"usd": 3100, "usd_24h_change": -1.1},
			"solana":   {"usd": 140, "usd_24h_change": 3.3},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestService(t *testing.T, backend *nexus.Client, coinGeckoURL string) *Service {
	t.Helper()
	svc, err := NewService(ServiceOpts{
		Backend:      backend,
		Logger:       testLogger(),
		CoinGeckoURL: coinGeckoURL,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func newBackendClient(t *testing.T, url string) *nexus.Client {
	t.Helper()
	c, err := nexus.NewClient(url, nil, testLogger())
	if err != nil {
		t.Fatalf("nexus.NewClient: %v", err)
	}
	return c
}

func TestPricesPrefersBackend(t *testing.T) {
	stub := &backendStub{}
	backend := newBackendClient(t, stub.server(t).URL)
	cgCalls := 0
	svc := newTestService(t, backend, coinGeckoServer(t, &cgCalls).URL)

	p, err := svc.Prices(context.Background())
	if err != nil {
		t.Fatalf("Prices: %v", err)
	}
	if p.Bitcoin.USD != 65000 {
		t.Errorf("BTC = %v, want the backend's price", p.Bitcoin.USD)
	}
	if cgCalls != 0 {
		t.Errorf("CoinGecko called %d times while backend healthy, want 0", cgCalls)
	}
}

func TestPricesFallsBackToCoinGecko(t *testing.T) {
	stub := &backendStub{failPrices: true}
	backend := newBackendClient(t, stub.server(t).URL)
	cgCalls := 0
	svc := newTestService(t, backend, coinGeckoServer(t, &cgCalls).URL)

	p, err := svc.Prices(context.Background())
	if err != nil {
		t.Fatalf("Prices: %v", err)
	}
	if p.Bitcoin.USD != 64000 {
		t.Errorf("BTC = %v, want CoinGecko's price", p.Bitcoin.USD)
	}
	if cgCalls != 1 {
		t.Errorf("CoinGecko calls = %d, want 1", cgCalls)
	}
}

func TestPricesServedFromLocalCache(t *testing.T) {
	stub := &backendStub{}
	backend := newBackendClient(t, stub.server(t).URL)
	svc := newTestService(t, backend, "http://127.0.0.1:1")

	ctx := context.Background()
	if _, err := svc.Prices(ctx); err != nil {
		t.Fatalf("Prices: %v", err)
	}
	if _, err := svc.Prices(ctx); err != nil {
		t.Fatalf("Prices (cached): %v", err)
	}

	stub.mu.Lock()
	defer stub.mu.Unlock()
	if stub.priceCalls != 1 {
		t.Errorf("backend price calls = %d, want 1; second read should hit the local cache", stub.priceCalls)
	}
}

func TestPricesWithoutBackendUsesCoinGecko(t *testing.T) {
	cgCalls := 0
	svc := newTestService(t, nil, coinGeckoServer(t, &cgCalls).URL)

	p, err := svc.Prices(context.Background())
	if err != nil {
		t.Fatalf("Prices: %v", err)
	}
	if p.Solana.USD != 140 || cgCalls != 1 {
		t.Errorf("SOL = %v (cg calls %d), want direct CoinGecko read", p.Solana.USD, cgCalls)
	}
}

func TestFearGreed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"value":"72","value_classification":"Greed","timestamp":"1756684800"}]}`))
	}))
	defer srv.Close()

	svc, err := NewService(ServiceOpts{Logger: testLogger(), FearGreedURL: srv.URL})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	fng, err := svc.FearGreed(context.Background())
	if err != nil {
		t.Fatalf("FearGreed: %v", err)
	}
	if fng.Value != 72 || fng.Classification != "Greed" {
		t.Errorf("FearGreed = %+v, want value 72 / Greed", fng)
	}
}

func TestFearGreedEmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	svc, err := NewService(ServiceOpts{Logger: testLogger(), FearGreedURL: srv.URL})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if _, err := svc.FearGreed(context.Background()); err == nil {
		t.Fatal("expected error for empty data")
	}
}

func TestPortfolioMarksFailedLookups(t *testing.T) {
	stub := &backendStub{}
	backend := newBackendClient(t, stub.server(t).URL)
	svc := newTestService(t, backend, "http://127.0.0.1:1")

	wallets := []store.Wallet{
		{ID: "1", Chain: store.ChainEth, Address: "0xabc", Label: "ETH"},
		{ID: "2", Chain: store.ChainBtc, Address: "bc1q", Label: "BTC"},
		{ID: "3", Chain: store.ChainSol, Address: "Sol1", Label: "SOL"},
	}

	p, err := svc.Portfolio(context.Background(), wallets)
	if err != nil {
		t.Fatalf("Portfolio: %v", err)
	}
	if len(p.Wallets) != 3 {
		t.Fatalf("portfolio entries = %d, want one per wallet", len(p.Wallets))
	}

	var failed int
	for _, entry := range p.Wallets {
		if entry.Err != nil {
			failed++
			if entry.Wallet.Chain != store.ChainBtc {
				t.Errorf("unexpected failure for chain %s", entry.Wallet.Chain)
			}
		}
	}
	if failed != 1 {
		t.Errorf("failed entries = %d, want only the btc one", failed)
	}
	if p.TotalUSD != 200 {
		t.Errorf("TotalUSD = %v, want 200 from the two successful lookups", p.TotalUSD)
	}
}

func TestPortfolioWithoutBackend(t *testing.T) {
	svc := newTestService(t, nil, "http://127.0.0.1:1")
	if _, err := svc.Portfolio(context.Background(), nil); err == nil {
		t.Fatal("expected error without a backend")
	}
}
