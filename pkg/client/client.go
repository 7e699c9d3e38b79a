// Package client provides the core Torn API dispatcher: key selection,
// rate-limit admission, transport, error-envelope detection, and response
// decoding.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tornsdk/torn-api-client/pkg/keypool"
	"github.com/tornsdk/torn-api-client/pkg/params"
	"github.com/tornsdk/torn-api-client/pkg/ratelimit"
)

// DefaultBaseURL is the Torn API v2 root.
const DefaultBaseURL = "https://api.torn.com/v2"

// Prometheus metrics for dispatcher operations.
var (
	tornRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "torn_requests_total",
		Help: "Total Torn API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	tornRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "torn_request_duration_seconds",
		Help:    "Torn API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	tornErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "torn_errors_total",
		Help: "Total Torn API errors by class",
	}, []string{"class"})
)

// Config holds the client configuration.
type Config struct {
	// APIKeys is the list of credentials (required, non-empty).
	APIKeys []string

	// BaseURL of the API. Default: DefaultBaseURL.
	BaseURL string

	// Mode is the rate-limit behavior. Default: AutoDelay.
	Mode ratelimit.Mode

	// Balancing is the key selection strategy. Default: RoundRobin.
	Balancing keypool.Strategy

	// Comment is appended as the "comment" query parameter to every
	// request when set. Torn shows it in the key's access log.
	Comment string

	// Headers are static headers added to every request.
	Headers map[string]string

	// Timeout for the underlying HTTP client. Default: 30s.
	Timeout time.Duration
}

// DefaultConfig returns a safe default configuration for the given keys.
func DefaultConfig(keys ...string) Config {
	return Config{
		APIKeys:   keys,
		BaseURL:   DefaultBaseURL,
		Mode:      ratelimit.ModeAutoDelay,
		Balancing: keypool.RoundRobin,
		Timeout:   30 * time.Second,
	}
}

// Client is the Torn API dispatcher. Safe for concurrent use; all callers
// share one rate limiter and one key pool.
type Client struct {
	httpClient *http.Client
	pool       *keypool.Pool
	limiter    *ratelimit.Limiter
	config     Config
	logger     zerolog.Logger
}

// New creates a client. Fails with keypool.ErrNoCredentials if no API
// keys are configured.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Mode == "" {
		cfg.Mode = ratelimit.ModeAutoDelay
	}
	if cfg.Balancing == "" {
		cfg.Balancing = keypool.RoundRobin
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	pool, err := keypool.New(cfg.APIKeys, cfg.Balancing)
	if err != nil {
		return nil, err
	}

	logger := log.With().Str("component", "torn-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		pool:    pool,
		limiter: ratelimit.New(cfg.Mode, logger),
		config:  cfg,
		logger:  logger,
	}, nil
}

// Get performs an authenticated GET request and decodes the response body
// into out. Usage is recorded against the selected key only after the
// response passes the error-envelope check and decodes successfully; an
// API rejection does not count against the local window.
func (c *Client) Get(ctx context.Context, path string, q params.Params, out any) error {
	body, key, err := c.do(ctx, path, q)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		decodeErr := &DecodeError{Err: err}
		tornErrorsTotal.WithLabelValues(errorClass(decodeErr)).Inc()
		c.logger.Error().
			Str("endpoint", path).
			Err(err).
			Msg("Response did not match target type")
		return decodeErr
	}

	c.limiter.RecordUsage(key)
	return nil
}

// GetRaw performs an authenticated GET request and returns the raw
// response body. Usage is recorded once the error-envelope check passes.
func (c *Client) GetRaw(ctx context.Context, path string, q params.Params) ([]byte, error) {
	body, key, err := c.do(ctx, path, q)
	if err != nil {
		return nil, err
	}

	c.limiter.RecordUsage(key)
	return body, nil
}

// do executes one request attempt: acquire a key, build the URL, send,
// check HTTP status, then check the API error envelope. It does not
// record usage; callers do that once they accept the response.
func (c *Client) do(ctx context.Context, path string, q params.Params) ([]byte, keypool.Credential, error) {
	startTime := time.Now()
	defer func() {
		tornRequestDuration.WithLabelValues(path).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: select a key, honoring the rate limit. May block in
	// AutoDelay mode or fail in ThrowOnLimit mode.
	key, err := c.limiter.Acquire(ctx, c.pool)
	if err != nil {
		tornRequestsTotal.WithLabelValues(path, "rate_limited").Inc()
		tornErrorsTotal.WithLabelValues("rate_limited").Inc()
		return nil, "", err
	}

	url := c.buildURL(path, q)

	c.logger.Debug().
		Str("endpoint", path).
		Str("key_prefix", key.Mask()).
		Msg("Executing Torn request")

	// Step 2: build and send the request.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", &TransportError{Err: err}
	}

	req.Header.Set("Authorization", "ApiKey "+string(key))
	req.Header.Set("Accept", "application/json")
	for name, value := range c.config.Headers {
		req.Header.Set(name, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		transportErr := &TransportError{Err: err}
		tornRequestsTotal.WithLabelValues(path, "transport_error").Inc()
		tornErrorsTotal.WithLabelValues(errorClass(transportErr)).Inc()
		c.logger.Error().
			Str("endpoint", path).
			Err(err).
			Msg("HTTP request failed")
		return nil, "", transportErr
	}
	defer resp.Body.Close()

	tornRequestsTotal.WithLabelValues(path, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	// Step 3: non-2xx with no envelope parsing.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		tornErrorsTotal.WithLabelValues(errorClass(statusErr)).Inc()
		c.logger.Warn().
			Str("endpoint", path).
			Int("status", resp.StatusCode).
			Msg("Torn request error")
		return nil, "", statusErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &TransportError{Err: err}
	}

	// Step 4: the API reports rejections inside a 200 response; the
	// envelope is checked before any target decoding.
	if apiErr := matchErrorEnvelope(body); apiErr != nil {
		tornErrorsTotal.WithLabelValues(errorClass(apiErr)).Inc()
		c.logger.Warn().
			Str("endpoint", path).
			Uint16("api_code", apiErr.Code).
			Str("api_message", apiErr.Message).
			Msg("API rejected the request")
		return nil, "", apiErr
	}

	return body, key, nil
}

// buildURL concatenates base URL, path, and the encoded query. The
// caller-supplied "key" and "comment" parameters are always stripped:
// the key travels in the Authorization header and the comment is the
// client's own configured value.
func (c *Client) buildURL(path string, q params.Params) string {
	filtered := q.Without("key", "comment")
	if c.config.Comment != "" {
		filtered = filtered.Add("comment", c.config.Comment)
	}

	var b strings.Builder
	b.WriteString(c.config.BaseURL)
	b.WriteString(path)
	if encoded := filtered.Encode(); encoded != "" {
		b.WriteByte('?')
		b.WriteString(encoded)
	}
	return b.String()
}

// apiErrorEnvelope mirrors the Torn error shape. Pointer fields
// distinguish a genuine envelope from a success body that happens to
// decode without error.
type apiErrorEnvelope struct {
	Error *struct {
		Code    *uint16 `json:"code"`
		Message *string `json:"error"`
	} `json:"error"`
}

// matchErrorEnvelope returns the APIError carried by body, or nil if the
// body is not an error envelope.
func matchErrorEnvelope(body []byte) *APIError {
	var envelope apiErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	if envelope.Error == nil || envelope.Error.Code == nil || envelope.Error.Message == nil {
		return nil
	}
	return &APIError{
		Code:    *envelope.Error.Code,
		Message: *envelope.Error.Message,
	}
}

// KeyCount returns the number of configured API keys.
func (c *Client) KeyCount() int {
	return c.pool.Len()
}

// RateLimitSnapshot returns current per-key usage, keyed by masked
// credential. Empty in Ignore mode.
func (c *Client) RateLimitSnapshot() map[string]ratelimit.Usage {
	return c.limiter.Snapshot()
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
