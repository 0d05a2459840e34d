// Package catalog provides the remote course collection client with
// cooperative cancellation, retries, and error classification.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Prometheus metrics for catalog client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_requests_total",
		Help: "Total catalog requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_request_duration_seconds",
		Help:    "Catalog request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_errors_total",
		Help: "Total catalog errors by class",
	}, []string{"class"})
)

// Client is the remote collection client.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the collection API root, e.g. "https://api.example.com/api/v1".
	BaseURL string

	// Timeout is the fixed per-request timeout. A timeout is a generic
	// failure, never cancellation.
	Timeout time.Duration

	// RequestsPerSecond paces outbound requests so scroll storms never
	// reach the remote faster than this. Zero disables pacing.
	RequestsPerSecond float64

	// Retry controls backoff behavior for server and network failures.
	Retry RetryConfig
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:           baseURL,
		Timeout:           10 * time.Second,
		RequestsPerSecond: 10,
		Retry:             DefaultRetryConfig(),
	}
}

// New creates a new catalog client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	logger := log.With().Str("component", "catalog-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(limit, 1),
		config:  cfg,
		logger:  logger,
	}, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// List fetches one page of the collection. Empty search and category
// values are omitted from the request entirely, as is the pseudo
// category "All", so the server sees "no filter" rather than an
// empty-string filter. Cancelling ctx surfaces as ErrCancelled.
func (c *Client) List(ctx context.Context, q Query) ([]Item, error) {
	if q.Page < 1 {
		return nil, fmt.Errorf("page must be >= 1 (got %d)", q.Page)
	}
	if q.PageSize < 1 {
		return nil, fmt.Errorf("page size must be >= 1 (got %d)", q.PageSize)
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("limit", strconv.Itoa(q.PageSize))

	norm := q.Normalized()
	if norm.Search != "" {
		params.Set("search", norm.Search)
	}
	if norm.Category != "" {
		params.Set("category", norm.Category)
	}

	var raw []rawCourse
	if err := c.getJSON(ctx, "/collection", params, &raw); err != nil {
		return nil, err
	}

	items := make([]Item, len(raw))
	for i, r := range raw {
		items[i] = r.toSummary()
	}

	c.logger.Debug().
		Int("page", q.Page).
		Int("count", len(items)).
		Str("search", norm.Search).
		Str("category", norm.Category).
		Msg("Fetched collection page")

	return items, nil
}

// GetOne fetches the full detail record for a single course.
func (c *Client) GetOne(ctx context.Context, id string) (Item, error) {
	if id == "" {
		return Item{}, fmt.Errorf("course id is required")
	}

	var raw rawCourse
	if err := c.getJSON(ctx, "/collection/"+url.PathEscape(id), nil, &raw); err != nil {
		return Item{}, err
	}

	item := raw.toDetail()

	c.logger.Debug().
		Str("course_id", id).
		Int("syllabus_len", len(item.Syllabus)).
		Msg("Fetched course detail")

	return item, nil
}

// getJSON performs a GET against endpoint with rate limiting, retry,
// and error classification, decoding the body into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		if IsCancelled(err) {
			return fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		return fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := c.config.BaseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var body []byte
	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			class := classify(nil, err)
			if class == ErrorClassCancelled {
				return fmt.Errorf("%w: %v", ErrCancelled, err)
			}
			errorsTotal.WithLabelValues(string(class)).Inc()
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
			return &APIError{Class: class, Message: "request failed", Err: err}
		}
		defer resp.Body.Close()

		requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode >= 400 {
			class := classify(resp, nil)
			errorsTotal.WithLabelValues(string(class)).Inc()
			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("error_class", string(class)).
				Msg("Catalog request error")

			if resp.StatusCode == http.StatusNotFound {
				return fmt.Errorf("%w: %s", ErrNotFound, endpoint)
			}
			return &APIError{
				StatusCode: resp.StatusCode,
				Class:      class,
				Message:    resp.Status,
			}
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			return &APIError{Class: ErrorClassNetwork, Message: "read body", Err: err}
		}
		return nil
	}

	err := retryWithBackoff(ctx, c.config.Retry, attempt, func(err error) ErrorClass {
		if IsCancelled(err) {
			return ErrorClassCancelled
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return apiErr.Class
		}
		return ErrorClassClient
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
