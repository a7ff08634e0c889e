package openfoodfacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/allergenapp/backend/internal/domain"
)

// DefaultBaseURL is the public Open Food Facts API
const DefaultBaseURL = "https://world.openfoodfacts.org"

// ClientConfig holds configuration for the Open Food Facts client
type ClientConfig struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int

	// Consecutive failed lookups before the breaker opens, and how long it stays open
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// Client looks products up in Open Food Facts
type Client struct {
	http        *resty.Client
	rateLimiter *rate.Limiter
	breaker     *gobreaker.CircuitBreaker
	maxRetries  int
	logger      *zap.Logger
}

// NewClient creates a new Open Food Facts client
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "AllergenApp/1.0"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	// Open Food Facts asks for at most 100 product reads per minute
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 100.0 / 60.0
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json")

	breakerFailures := cfg.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openfoodfacts",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Client{
		http:        httpClient,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker:     breaker,
		maxRetries:  cfg.MaxRetries,
		logger:      logger,
	}
}

// Name identifies the source in logs
func (c *Client) Name() string {
	return "openfoodfacts"
}

// LookupBarcode fetches a product by barcode. Unknown barcodes return a not-found record.
func (c *Client) LookupBarcode(ctx context.Context, barcode string) (domain.RawProductRecord, error) {
	path := "/api/v0/product/" + url.PathEscape(barcode) + ".json"

	var resp productResponse
	found, err := c.fetch(ctx, path, nil, &resp)
	if err != nil {
		return nil, err
	}
	if !found || resp.Status != 1 {
		c.logger.Debug("barcode not in Open Food Facts", zap.String("barcode", barcode))
		return domain.NotFoundRecord(), nil
	}

	record := MapProduct(resp.Product)
	if record.Barcode == "" {
		record.Barcode = barcode
	}
	return record, nil
}

// SearchByName runs a full-text search and returns the first hit
func (c *Client) SearchByName(ctx context.Context, query string) (domain.RawProductRecord, error) {
	params := map[string]string{
		"search_terms":  query,
		"search_simple": "1",
		"action":        "process",
		"json":          "1",
		"page_size":     "1",
	}

	var resp searchResponse
	found, err := c.fetch(ctx, "/cgi/search.pl", params, &resp)
	if err != nil {
		return nil, err
	}
	if !found || len(resp.Products) == 0 {
		c.logger.Debug("no Open Food Facts search results", zap.String("query", query))
		return domain.NotFoundRecord(), nil
	}

	return MapProduct(resp.Products[0]), nil
}

// fetch runs a GET through the breaker, rate limiter and retry loop.
// found is false on 404.
func (c *Client) fetch(ctx context.Context, path string, params map[string]string, out interface{}) (bool, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.getWithRetry(ctx, path, params)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return false, fmt.Errorf("%w: %v", domain.ErrAcquisitionFailed, err)
		}
		return false, err
	}

	body, _ := result.([]byte)
	if body == nil {
		return false, nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Error("Open Food Facts decode error", zap.String("path", path), zap.Error(err))
		return false, fmt.Errorf("%w: failed to decode response: %v", domain.ErrAcquisitionFailed, err)
	}
	return true, nil
}

// getWithRetry returns the body of a 200 response, or nil for 404
func (c *Client) getWithRetry(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrAcquisitionFailed, err)
		}

		req := c.http.R().SetContext(ctx)
		if params != nil {
			req.SetQueryParams(params)
		}

		resp, err := req.Get(path)
		if err != nil {
			c.logger.Warn("Open Food Facts request error",
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Error(err))
			lastErr = fmt.Errorf("%w: %v", domain.ErrAcquisitionFailed, err)
			if ctx.Err() != nil {
				return nil, lastErr
			}
			c.backoff(ctx, attempt)
			continue
		}

		switch status := resp.StatusCode(); {
		case status == http.StatusOK:
			return resp.Body(), nil
		case status == http.StatusNotFound:
			return nil, nil
		case status == http.StatusTooManyRequests:
			c.logger.Warn("Open Food Facts rate limited us",
				zap.String("path", path),
				zap.Int("attempt", attempt))
			lastErr = fmt.Errorf("%w: %w", domain.ErrAcquisitionFailed, domain.ErrRateLimited)
			c.backoff(ctx, attempt)
		case status >= 500:
			c.logger.Warn("Open Food Facts API error",
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Int("status", status))
			lastErr = fmt.Errorf("%w: status %d", domain.ErrAcquisitionFailed, status)
			c.backoff(ctx, attempt)
		default:
			return nil, fmt.Errorf("%w: status %d", domain.ErrAcquisitionFailed, status)
		}
	}

	c.logger.Error("all Open Food Facts retries failed", zap.String("path", path), zap.Error(lastErr))
	return nil, lastErr
}

func (c *Client) backoff(ctx context.Context, attempt int) {
	if attempt >= c.maxRetries {
		return
	}
	timer := time.NewTimer(exponentialBackoff(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// exponentialBackoff returns 500ms, 1s, 2s, ...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}
