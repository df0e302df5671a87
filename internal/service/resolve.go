package service

import (
	"errors"
	"strings"

	"github.com/k84shailendra/cloudflare-b2-v1/internal/config"
	"github.com/k84shailendra/cloudflare-b2-v1/internal/model"
)

// ErrListingForbidden is returned when a request resolves to a bucket
// listing while allow_list_buckets is disabled.
var ErrListingForbidden = errors.New("bucket listing is not allowed")

// resolveTarget computes the upstream B2 host and path for one request.
//
// The bucket name comes from configuration ("$path" takes it from the first
// path segment, "$host" from the first subdomain label of the incoming
// host, anything else is a literal bucket). Listing requests are refused
// unless explicitly enabled.
func (s *ProxyService) resolveTarget(host, rawPath string) (model.UpstreamTarget, error) {
	path := strings.TrimPrefix(rawPath, "/")
	path = strings.TrimSuffix(path, "/")

	mode := s.cfg.B2.BucketName

	// A path with no object key is a bucket listing: under $path the bucket
	// itself is the first segment, so fewer than two segments means no key;
	// under the other modes an empty path means the bucket root.
	listing := false
	if mode == config.BucketFromPath {
		listing = strings.Count(path, "/") == 0
	} else {
		listing = path == ""
	}
	if listing && !s.cfg.B2.AllowListBuckets {
		return model.UpstreamTarget{}, ErrListingForbidden
	}

	// Alternate download-URL convention: /file/<bucket>/<key> maps onto the
	// same object as /<key> (or /<bucket>/<key> under $path, where the
	// bucket segment stays in the forwarded path).
	rewrite := s.cfg.B2.RewriteDownloadURLs

	var upstreamHost string
	switch mode {
	case config.BucketFromPath:
		upstreamHost = s.cfg.B2.Endpoint
		if rewrite {
			path = strings.TrimPrefix(path, "file/")
		}
	case config.BucketFromHost:
		bucket := firstLabel(host)
		upstreamHost = bucket + "." + s.cfg.B2.Endpoint
		if rewrite {
			path = strings.TrimPrefix(path, "file/"+bucket+"/")
		}
	default:
		upstreamHost = mode + "." + s.cfg.B2.Endpoint
		if rewrite {
			path = strings.TrimPrefix(path, "file/"+mode+"/")
		}
	}

	return model.UpstreamTarget{Host: upstreamHost, Path: "/" + path}, nil
}

// firstLabel returns the first DNS label of a host, ignoring any port.
func firstLabel(host string) string {
	host, _, _ = strings.Cut(host, ":")
	label, _, _ := strings.Cut(host, ".")
	return label
}
