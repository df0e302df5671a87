// Package signer computes AWS SigV4 signatures for upstream B2 requests.
package signer

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

// emptyPayloadHash is the SHA-256 of an empty body. Upstream requests are
// always bodyless GETs, so the payload hash is constant.
const emptyPayloadHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

// Signer signs upstream requests with SigV4 for the S3-compatible B2 API.
type Signer struct {
	creds  aws.Credentials
	region string
	v4     *v4.Signer
	now    func() time.Time
}

// New creates a Signer for the given B2 application key and region.
func New(keyID, secret, region string) *Signer {
	return &Signer{
		creds: aws.Credentials{
			AccessKeyID:     keyID,
			SecretAccessKey: secret,
			Source:          "b2proxy config",
		},
		region: region,
		v4:     v4.NewSigner(),
		now:    time.Now,
	}
}

// Sign adds SigV4 authorization headers to req in place. The request headers
// present at call time are all included in the signature, so any header
// filtering must happen before signing.
func (s *Signer) Sign(ctx context.Context, req *http.Request) error {
	req.Header.Set("X-Amz-Content-Sha256", emptyPayloadHash)
	if err := s.v4.SignHTTP(ctx, s.creds, req, emptyPayloadHash, "s3", s.region, s.now().UTC()); err != nil {
		return fmt.Errorf("sign upstream request: %w", err)
	}
	return nil
}
