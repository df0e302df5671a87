// Package client provides the upstream HTTP client for the B2 S3 API.
package client

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/k84shailendra/cloudflare-b2-v1/internal/config"
	"github.com/k84shailendra/cloudflare-b2-v1/internal/metrics"
)

// B2Client sends signed requests to the upstream B2 endpoint.
type B2Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewB2Client creates a B2Client with connection pooling and timeouts.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func NewB2Client(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *B2Client {
	transport := &http.Transport{
		MaxIdleConns:        cfg.Upstream.IdleConnections,
		MaxIdleConnsPerHost: cfg.Upstream.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &B2Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
		},
		logger:  logger.With("component", "b2_client"),
		metrics: m,
	}
}

// Do executes one signed request against the upstream and returns the raw
// response. The caller is responsible for closing the response body. A
// bodyless signed request may be passed to Do repeatedly; each call is a
// fresh upstream round-trip.
func (c *B2Client) Do(req *http.Request) (*http.Response, error) {
	c.logger.Debug("upstream request",
		"host", req.URL.Host,
		"path", req.URL.Path,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:bodyclose // body ownership transfers to caller
	duration := time.Since(start).Seconds()

	if err != nil {
		if c.metrics != nil {
			c.metrics.UpstreamDuration.Observe(duration)
		}
		return nil, fmt.Errorf("upstream request: %w", err)
	}

	if c.metrics != nil {
		c.metrics.UpstreamDuration.Observe(duration)
		c.metrics.UpstreamResponses.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	}

	return resp, nil
}
