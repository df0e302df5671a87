package service

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/k84shailendra/cloudflare-b2-v1/internal/model"
)

// shapeResponse converts the final upstream response into the response for
// the original request. Successful responses get the configured
// Cache-Control value, overwriting whatever the upstream sent; errors pass
// through untouched so they are never cached. For HEAD the upstream body is
// closed without being read.
func (s *ProxyService) shapeResponse(resp *http.Response, method string) *model.ProxyResponse {
	header := cloneHeader(resp.Header)
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		header.Set("Cache-Control", fmt.Sprintf("public, max-age=%d", s.cfg.Cache.TTLSeconds))
	}

	out := &model.ProxyResponse{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     header,
		Body:       resp.Body,
	}

	if method == http.MethodHead {
		_ = resp.Body.Close()
		out.Body = nil
	}

	return out
}

// cloneHeader deep-copies a header map so the shaped response never aliases
// the upstream response's headers.
func cloneHeader(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for key, vals := range src {
		dst[key] = slices.Clone(vals)
	}
	return dst
}
