package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tornsdk/torn-api-client/pkg/client"
	"github.com/tornsdk/torn-api-client/pkg/logging"
	"github.com/tornsdk/torn-api-client/pkg/params"
	"github.com/tornsdk/torn-api-client/pkg/ratelimit"
)

func main() {
	// Configuration from environment
	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Output: os.Stderr,
	})

	keys := splitKeys(os.Getenv("TORN_API_KEYS"))
	if len(keys) == 0 {
		logger.Fatal().Msg("TORN_API_KEYS must contain at least one API key")
	}
	port := getEnv("PORT", "8080")

	cfg := client.DefaultConfig(keys...)
	cfg.Comment = getEnv("TORN_COMMENT", "torn-proxy")
	if base := os.Getenv("TORN_BASE_URL"); base != "" {
		cfg.BaseURL = base
	}
	if mode := os.Getenv("TORN_RATE_LIMIT_MODE"); mode != "" {
		cfg.Mode = ratelimit.Mode(mode)
	}

	tornClient, err := client.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create torn client")
	}

	// HTTP Server
	http.HandleFunc("/health", healthHandler)
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/ratelimit", rateLimitHandler(tornClient))
	http.HandleFunc("/torn/", tornProxyHandler(tornClient))

	addr := ":" + port
	logger.Info().
		Str("addr", addr).
		Int("keys", tornClient.KeyCount()).
		Str("mode", string(cfg.Mode)).
		Msg("starting torn proxy server")

	if err := http.ListenAndServe(addr, nil); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// rateLimitHandler reports per-key window usage as JSON, keys masked.
func rateLimitHandler(c *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(c.RateLimitSnapshot()); err != nil {
			http.Error(w, "failed to encode snapshot", http.StatusInternalServerError)
		}
	}
}

// tornProxyHandler forwards GET requests to the Torn API.
// Example: /torn/user/basic?limit=5 -> /user/basic?limit=5
func tornProxyHandler(c *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		endpoint := strings.TrimPrefix(r.URL.Path, "/torn")

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		body, err := c.GetRaw(ctx, endpoint, params.FromQuery(r.URL.RawQuery))
		if err != nil {
			http.Error(w, err.Error(), proxyStatus(err))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}
}

// proxyStatus maps client errors onto proxy response codes. Upstream
// HTTP statuses pass through; everything else is a gateway problem
// except rate limit rejections, which surface as 429.
func proxyStatus(err error) int {
	if errors.Is(err, ratelimit.ErrRateLimited) {
		return http.StatusTooManyRequests
	}
	var statusErr *client.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return http.StatusBadGateway
}

func splitKeys(raw string) []string {
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
