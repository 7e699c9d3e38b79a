// Package metrics provides the centralized Prometheus registry for the
// Torn client. All metrics are defined in their respective packages
// (client, ratelimit) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the Torn client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Rate Limit Metrics (pkg/ratelimit):
//   - torn_rate_limit_waits_total (Counter): Auto-delay waits for window capacity
//   - torn_rate_limit_wait_seconds (Histogram): Duration of auto-delay waits
//   - torn_rate_limit_rejections_total (Counter): Requests rejected in throw-on-limit mode
//
// Request Metrics (pkg/client):
//   - torn_requests_total{endpoint, status} (Counter): Total requests by endpoint and HTTP status
//   - torn_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - torn_errors_total{class} (Counter): Errors by class (api, http_status, transport, decode)
//
// Example Prometheus Queries:
//
//   # Request Error Rate
//   rate(torn_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(torn_request_duration_seconds_bucket[5m]))
//
//   # Share of Requests That Had to Wait
//   rate(torn_rate_limit_waits_total[5m]) / rate(torn_requests_total[5m])
//
//   # Rejection Rate Under Throw-On-Limit
//   rate(torn_rate_limit_rejections_total[5m])
