// Package model defines shared types for the proxy.
package model

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// ProxyRequest represents a client download request to be rewritten,
// signed and forwarded to B2.
type ProxyRequest struct {
	Ctx    context.Context
	Method string
	Host   string
	Path   string
	Query  url.Values
	Header http.Header
}

// ProxyResponse represents the upstream response to be streamed back.
// Body is nil when the original request was a HEAD.
type ProxyResponse struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       io.ReadCloser
}

// UpstreamTarget is the resolved B2 host and object path for one request.
// The backend only accepts TLS, so the URL is always https (port 443).
type UpstreamTarget struct {
	Host string
	Path string
}

// URL renders the target with the original query string attached.
func (t UpstreamTarget) URL(query url.Values) *url.URL {
	return &url.URL{
		Scheme:   "https",
		Host:     t.Host,
		Path:     t.Path,
		RawQuery: query.Encode(),
	}
}
