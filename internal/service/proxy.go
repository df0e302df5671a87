// Package service implements the core request-transformation pipeline:
// bucket resolution, header filtering, signing, the range retry loop and
// response shaping.
package service

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/k84shailendra/cloudflare-b2-v1/internal/client"
	"github.com/k84shailendra/cloudflare-b2-v1/internal/config"
	"github.com/k84shailendra/cloudflare-b2-v1/internal/metrics"
	"github.com/k84shailendra/cloudflare-b2-v1/internal/model"
	"github.com/k84shailendra/cloudflare-b2-v1/internal/signer"
)

// ProxyService rewrites incoming download requests into signed B2 requests
// and post-processes the upstream responses.
type ProxyService struct {
	client  *client.B2Client
	signer  *signer.Signer
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics

	// allowlist is the lowercased allowed_headers set, nil when unconfigured.
	allowlist map[string]bool

	// testUpstream, when set, redirects all resolved targets to a fixed
	// base URL. Tests only; production targets are always https to B2.
	testUpstream *url.URL
}

// NewProxyService creates a ProxyService. The metrics parameter is optional;
// pass nil to disable retry metrics recording.
func NewProxyService(c *client.B2Client, sg *signer.Signer, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *ProxyService {
	var allowlist map[string]bool
	if len(cfg.B2.AllowedHeaders) > 0 {
		allowlist = make(map[string]bool, len(cfg.B2.AllowedHeaders))
		for _, name := range cfg.B2.AllowedHeaders {
			allowlist[strings.ToLower(name)] = true
		}
	}

	return &ProxyService{
		client:    c,
		signer:    sg,
		cfg:       cfg,
		logger:    logger.With("component", "proxy_service"),
		metrics:   m,
		allowlist: allowlist,
	}
}

// NewProxyServiceForTest creates a ProxyService whose resolved targets are
// redirected to the given base URL instead of the real B2 endpoint. This is
// intended only for tests that use httptest servers on localhost.
func NewProxyServiceForTest(c *client.B2Client, sg *signer.Signer, cfg *config.Config, logger *slog.Logger, upstreamURL string) (*ProxyService, error) {
	u, err := url.Parse(upstreamURL)
	if err != nil {
		return nil, fmt.Errorf("parse test upstream URL: %w", err)
	}
	s := NewProxyService(c, sg, cfg, logger, nil)
	s.testUpstream = u
	return s, nil
}

// Forward rewrites one incoming GET/HEAD request, signs it and fetches it
// from B2, retrying when a requested byte range was silently ignored. The
// caller is responsible for closing the response body when it is non-nil.
//
// The upstream method is always GET, even for HEAD requests: intermediaries
// have been observed rewriting HEAD to GET in flight, which would invalidate
// a signature computed over HEAD. The original method is applied again at
// response-shaping time.
func (s *ProxyService) Forward(pr *model.ProxyRequest) (*model.ProxyResponse, error) {
	target, err := s.resolveTarget(pr.Host, pr.Path)
	if err != nil {
		return nil, err
	}

	u := target.URL(pr.Query)
	if s.testUpstream != nil {
		u.Scheme = s.testUpstream.Scheme
		u.Host = s.testUpstream.Host
	}

	req, err := http.NewRequestWithContext(pr.Ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header = s.filterHeaders(pr.Header)

	// Signed exactly once; the retry loop reuses the same signed request.
	if err := s.signer.Sign(pr.Ctx, req); err != nil {
		return nil, err
	}

	s.logger.Debug("forwarding request",
		"method", pr.Method,
		"host", target.Host,
		"path", target.Path,
	)

	resp, err := s.fetch(req)
	if err != nil {
		return nil, fmt.Errorf("forward to upstream: %w", err)
	}

	return s.shapeResponse(resp, pr.Method), nil
}
