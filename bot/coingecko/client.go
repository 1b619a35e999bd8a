package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/harshitajha4680/cryptobot/core/logger"

	"log/slog"
)

// ErrUnavailable is the only error callers see when upstream data could not
// be fetched. The cause is logged, never surfaced.
var ErrUnavailable = errors.New("coingecko: data unavailable")

const (
	defaultBaseURL  = "https://api.coingecko.com/api/v3"
	defaultAttempts = 5
	defaultBackoff  = 2 * time.Second
	defaultTimeout  = 10 * time.Second
)

// Config tunes the CoinGecko client. Zero values fall back to defaults.
type Config struct {
	BaseURL        string `yaml:"base_url" envconfig:"COINGECKO_BASE_URL"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"COINGECKO_TIMEOUT_SECONDS"`
	Attempts       int    `yaml:"attempts" envconfig:"COINGECKO_ATTEMPTS"`
	BackoffMS      int    `yaml:"backoff_ms" envconfig:"COINGECKO_BACKOFF_MS"`
}

// Client fetches market data from the CoinGecko public API.
type Client struct {
	baseURL  string
	http     *http.Client
	attempts int
	backoff  time.Duration
}

// NewClient builds a Client from cfg. A nil httpClient gets a default with
// the configured timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	backoff := time.Duration(cfg.BackoffMS) * time.Millisecond
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	if httpClient == nil {
		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:  baseURL,
		http:     httpClient,
		attempts: attempts,
		backoff:  backoff,
	}
}

// TopMarkets returns the first limit coins by market cap in vsCurrency.
func (c *Client) TopMarkets(ctx context.Context, vsCurrency string, limit int) ([]Market, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	q := url.Values{}
	q.Set("vs_currency", vsCurrency)
	q.Set("order", "market_cap_desc")
	q.Set("per_page", strconv.Itoa(limit))
	q.Set("page", "1")
	q.Set("sparkline", "false")

	var markets []Market
	if err := c.getJSON(ctx, "/coins/markets", q, &markets); err != nil {
		return nil, err
	}
	return markets, nil
}

// Trending returns the coins currently trending on CoinGecko.
func (c *Client) Trending(ctx context.Context) ([]TrendingCoin, error) {
	var resp trendingResponse
	if err := c.getJSON(ctx, "/search/trending", nil, &resp); err != nil {
		return nil, err
	}
	coins := make([]TrendingCoin, 0, len(resp.Coins))
	for _, it := range resp.Coins {
		coins = append(coins, it.Item)
	}
	return coins, nil
}

// Search performs a free-text coin lookup.
func (c *Client) Search(ctx context.Context, query string) ([]SearchCoin, error) {
	q := url.Values{}
	q.Set("query", query)

	var resp searchResponse
	if err := c.getJSON(ctx, "/search", q, &resp); err != nil {
		return nil, err
	}
	return resp.Coins, nil
}

// SimplePrice fetches the current quote of assetID denominated in currency.
// Missing change/cap/volume figures stay nil; a missing price yields
// ErrUnavailable.
func (c *Client) SimplePrice(ctx context.Context, assetID, currency string) (*Quote, error) {
	cur := strings.ToLower(currency)
	q := url.Values{}
	q.Set("ids", assetID)
	q.Set("vs_currencies", cur)
	q.Set("include_24hr_change", "true")
	q.Set("include_market_cap", "true")
	q.Set("include_24hr_vol", "true")

	var resp map[string]map[string]*float64
	if err := c.getJSON(ctx, "/simple/price", q, &resp); err != nil {
		return nil, err
	}

	fields, ok := resp[assetID]
	if !ok {
		logger.CG.Warn("asset missing in response",
			slog.String("event", "quote.missing"),
			slog.String("asset", assetID),
			slog.String("currency", cur),
		)
		return nil, ErrUnavailable
	}
	price := fields[cur]
	if price == nil {
		logger.CG.Warn("price missing in response",
			slog.String("event", "quote.missing"),
			slog.String("asset", assetID),
			slog.String("currency", cur),
		)
		return nil, ErrUnavailable
	}

	return &Quote{
		AssetID:   assetID,
		Currency:  cur,
		Price:     *price,
		Change24h: fields[cur+"_24h_change"],
		MarketCap: fields[cur+"_market_cap"],
		Volume24h: fields[cur+"_24h_vol"],
	}, nil
}

// getJSON performs a GET with retries. HTTP error statuses are retried with
// a fixed backoff; anything else aborts immediately. All failure modes
// collapse into ErrUnavailable.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	reqURL := endpoint
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	start := time.Now()
	var lastErr error

attemptLoop:
	for attempt := 1; attempt <= c.attempts; attempt++ {
		err := c.doOnce(ctx, reqURL, out)
		if err == nil {
			if attempt > 1 {
				logger.CG.Info("fetch recovered",
					slog.String("event", "fetch.retry.success"),
					slog.String("endpoint", path),
					slog.Int("attempt", attempt),
					slog.Duration("duration", logger.RoundMS(time.Since(start))),
				)
			}
			return nil
		}
		lastErr = err

		if !retryable(err) || attempt == c.attempts {
			break
		}

		logger.CG.Warn("fetch failed, retrying",
			slog.String("event", "fetch.retry"),
			slog.String("endpoint", path),
			slog.Int("attempt", attempt),
			slog.Int("backoff_ms", int(c.backoff/time.Millisecond)),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)

		timer := time.NewTimer(c.backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			lastErr = ctx.Err()
			break attemptLoop
		case <-timer.C:
		}
	}

	logger.CG.Error("fetch failed",
		slog.String("event", "fetch.fail"),
		slog.String("endpoint", path),
		slog.Int("attempts", c.attempts),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
		slog.String("err", logger.SanitizeLimit(lastErr.Error(), 256)),
	)
	return fmt.Errorf("%w: %s", ErrUnavailable, path)
}

func (c *Client) doOnce(ctx context.Context, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return &statusError{code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// statusError marks an HTTP error response. Retried uniformly, 429 included.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("http status %d", e.code)
}

// retryable is true only for HTTP error responses; connectivity and decode
// failures abort the attempt loop immediately.
func retryable(err error) bool {
	var status *statusError
	return errors.As(err, &status)
}
