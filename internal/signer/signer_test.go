package signer

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"
)

func newTestSigner() *Signer {
	s := New("002abc0000000000000000001", "K002secretsecretsecretsecret", "us-west-002")
	s.now = func() time.Time {
		return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	}
	return s
}

func TestSign_SetsAuthorizationHeaders(t *testing.T) {
	s := newTestSigner()

	req, err := http.NewRequest(http.MethodGet, "https://mybucket.s3.us-west-002.backblazeb2.com/obj/key", http.NoBody)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Range", "bytes=0-99")

	if err := s.Sign(context.Background(), req); err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	auth := req.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "AWS4-HMAC-SHA256 ") {
		t.Errorf("Authorization = %q, want AWS4-HMAC-SHA256 prefix", auth)
	}
	if !strings.Contains(auth, "002abc0000000000000000001/20240115/us-west-002/s3/aws4_request") {
		t.Errorf("Authorization scope missing: %q", auth)
	}
	if !strings.Contains(auth, "range") {
		t.Errorf("Range header not included in SignedHeaders: %q", auth)
	}
	if got := req.Header.Get("X-Amz-Date"); got != "20240115T120000Z" {
		t.Errorf("X-Amz-Date = %q, want %q", got, "20240115T120000Z")
	}
	if got := req.Header.Get("X-Amz-Content-Sha256"); got != emptyPayloadHash {
		t.Errorf("X-Amz-Content-Sha256 = %q, want empty payload hash", got)
	}
}

func TestSign_Deterministic(t *testing.T) {
	mk := func() *http.Request {
		req, err := http.NewRequest(http.MethodGet, "https://mybucket.s3.us-west-002.backblazeb2.com/obj", http.NoBody)
		if err != nil {
			t.Fatal(err)
		}
		return req
	}

	a, b := mk(), mk()
	s := newTestSigner()
	if err := s.Sign(context.Background(), a); err != nil {
		t.Fatal(err)
	}
	if err := s.Sign(context.Background(), b); err != nil {
		t.Fatal(err)
	}

	if a.Header.Get("Authorization") != b.Header.Get("Authorization") {
		t.Errorf("same input signed twice produced different signatures:\n%q\n%q",
			a.Header.Get("Authorization"), b.Header.Get("Authorization"))
	}
}
