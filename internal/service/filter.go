package service

import (
	"net/http"
	"slices"
	"strings"
)

// unsignableHeaders must never reach the signer: intermediaries inject or
// rewrite them after signing, which would make the signature mismatch, or
// they are not relayed to B2 consistently.
var unsignableHeaders = map[string]bool{
	"x-forwarded-proto":   true,
	"x-real-ip":           true,
	"accept-encoding":     true,
	"if-match":            true,
	"if-modified-since":   true,
	"if-none-match":       true,
	"if-range":            true,
	"if-unmodified-since": true,
}

// cfHeaderPrefix marks metadata headers injected by an edge intermediary.
const cfHeaderPrefix = "cf-"

// filterHeaders returns a new header set suitable for signing and
// forwarding. It drops the unsignable set, any cf-* header and, when an
// allow-list is configured, anything not on the list. Remaining headers and
// their values pass through unchanged; the source map is never mutated.
func (s *ProxyService) filterHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for key, vals := range src {
		name := strings.ToLower(key)
		if unsignableHeaders[name] || strings.HasPrefix(name, cfHeaderPrefix) {
			continue
		}
		if s.allowlist != nil && !s.allowlist[name] {
			continue
		}
		dst[http.CanonicalHeaderKey(key)] = slices.Clone(vals)
	}
	return dst
}
