package service

import (
	"io"
	"net/http"
)

// fetchState enumerates the outcomes of one range fetch attempt.
type fetchState int

const (
	// stateAttempting: a 2xx arrived without Content-Range and attempts
	// remain, so the range was ignored and the fetch must be reissued.
	stateAttempting fetchState = iota
	// stateSucceeded: the upstream confirmed the range with Content-Range.
	stateSucceeded
	// stateExhausted: the retry bound was hit without a Content-Range; the
	// last response is served as-is (degraded, but the best available).
	stateExhausted
	// stateNonRetryable: a non-2xx response, passed through verbatim.
	stateNonRetryable
)

// classify is the transition function of the retry state machine. It never
// reads the response body, so the policy is testable without network I/O.
func classify(resp *http.Response, remaining int) fetchState {
	switch {
	case resp.Header.Get("Content-Range") != "":
		return stateSucceeded
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return stateNonRetryable
	case remaining > 0:
		return stateAttempting
	default:
		return stateExhausted
	}
}

// maxDrainBytes bounds how much of a discarded body is read back before
// giving up on connection reuse. The edge may have fetched the whole object,
// and draining gigabytes is worse than re-dialing.
const maxDrainBytes = 4 << 20

// fetch executes the signed request. When it carries a Range header, the
// request is retried up to the configured bound while the upstream keeps
// answering 2xx without a Content-Range: an edge layer is known to fetch and
// cache the entire object on a first ranged request, so a fresh round-trip
// usually produces a genuine ranged response.
func (s *ProxyService) fetch(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Range") == "" {
		return s.client.Do(req)
	}

	remaining := s.cfg.Upstream.RangeRetries
	attempts := 0
	for {
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		attempts++
		remaining--

		switch classify(resp, remaining) {
		case stateSucceeded:
			if attempts > 1 {
				s.logger.Info("range honored after retry",
					"attempts", attempts,
					"path", req.URL.Path,
				)
				if s.metrics != nil {
					s.metrics.RangeRetrySucceeded.Inc()
				}
			}
			return resp, nil

		case stateNonRetryable:
			return resp, nil

		case stateExhausted:
			s.logger.Warn("upstream never honored range request; serving last response",
				"attempts", attempts,
				"path", req.URL.Path,
				"status", resp.StatusCode,
			)
			if s.metrics != nil {
				s.metrics.RangeRetryExhausted.Inc()
			}
			return resp, nil

		case stateAttempting:
			// The body of a discarded attempt must be released before the
			// next one so the connection isn't leaked per retry.
			drain(resp)
			s.logger.Debug("range ignored by upstream, retrying",
				"attempt", attempts,
				"path", req.URL.Path,
			)
			if s.metrics != nil {
				s.metrics.RangeRetriesTotal.Inc()
			}
		}
	}
}

// drain consumes a bounded amount of the response body and closes it,
// releasing the underlying connection for the next attempt.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
	_ = resp.Body.Close()
}
