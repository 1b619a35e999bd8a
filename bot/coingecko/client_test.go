package coingecko

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/harshitajha4680/cryptobot/core/logger"
)

func TestMain(m *testing.M) {
	_ = logger.InitLogger(nil)
	os.Exit(m.Run())
}

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:   srv.URL,
		Attempts:  5,
		BackoffMS: 1,
	}, srv.Client())
}

func TestSimplePriceRetriesHTTPErrors(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"bitcoin":{"usd":50000.5,"usd_24h_change":1.2,"usd_market_cap":900000000,"usd_24h_vol":35000000}}`))
	})

	q, err := c.SimplePrice(context.Background(), "bitcoin", "usd")
	if err != nil {
		t.Fatalf("SimplePrice: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 calls, got %d", got)
	}
	if q.Price != 50000.5 {
		t.Fatalf("unexpected price: %v", q.Price)
	}
	if q.Change24h == nil || *q.Change24h != 1.2 {
		t.Fatalf("unexpected 24h change: %v", q.Change24h)
	}
}

func TestSimplePriceExhaustsAttempts(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.SimplePrice(context.Background(), "bitcoin", "usd")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if got := calls.Load(); got != 5 {
		t.Fatalf("expected 5 calls, got %d", got)
	}
}

func TestSimplePriceMalformedBodyAbortsImmediately(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{not json`))
	})

	_, err := c.SimplePrice(context.Background(), "bitcoin", "usd")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("malformed body must not be retried, got %d calls", got)
	}
}

func TestSimplePriceMissingOptionalFields(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"bitcoin":{"usd":42}}`))
	})

	q, err := c.SimplePrice(context.Background(), "bitcoin", "usd")
	if err != nil {
		t.Fatalf("SimplePrice: %v", err)
	}
	if q.Price != 42 {
		t.Fatalf("unexpected price: %v", q.Price)
	}
	if q.Change24h != nil || q.MarketCap != nil || q.Volume24h != nil {
		t.Fatalf("optional fields must stay nil when omitted: %+v", q)
	}
}

func TestSimplePriceConnectivityFailureAbortsImmediately(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Attempts: 5, BackoffMS: 1}, nil)

	start := time.Now()
	_, err := c.SimplePrice(context.Background(), "bitcoin", "usd")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	// no backoff waits means the call returns well before 5 * backoff
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("connectivity failure appears to have been retried: took %v", elapsed)
	}
}

func TestSimplePriceMissingAsset(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := c.SimplePrice(context.Background(), "doesnotexist", "usd")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestTopMarketsQuery(t *testing.T) {
	var gotQuery url.Values
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`[{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":50000,"market_cap":900000000}]`))
	})

	markets, err := c.TopMarkets(context.Background(), "usd", 100)
	if err != nil {
		t.Fatalf("TopMarkets: %v", err)
	}
	if len(markets) != 1 || markets[0].ID != "bitcoin" {
		t.Fatalf("unexpected markets: %+v", markets)
	}
	want := map[string]string{
		"vs_currency": "usd",
		"order":       "market_cap_desc",
		"per_page":    "100",
		"page":        "1",
		"sparkline":   "false",
	}
	for k, v := range want {
		if got := gotQuery.Get(k); got != v {
			t.Fatalf("query param %s = %q, want %q", k, got, v)
		}
	}
}

func TestTrending(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"coins":[{"item":{"id":"pepe","name":"Pepe","symbol":"PEPE","market_cap_rank":40}}]}`))
	})

	coins, err := c.Trending(context.Background())
	if err != nil {
		t.Fatalf("Trending: %v", err)
	}
	if len(coins) != 1 || coins[0].ID != "pepe" {
		t.Fatalf("unexpected coins: %+v", coins)
	}
}

func TestSearch(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("query"); got != "doge" {
			t.Errorf("unexpected query param: %q", got)
		}
		_, _ = w.Write([]byte(`{"coins":[{"id":"dogecoin","name":"Dogecoin","symbol":"DOGE","market_cap_rank":10}]}`))
	})

	coins, err := c.Search(context.Background(), "doge")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(coins) != 1 || coins[0].ID != "dogecoin" {
		t.Fatalf("unexpected coins: %+v", coins)
	}
}
