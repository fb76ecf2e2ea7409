package util

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func ipRequest(remoteAddr, xff, realIP string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = remoteAddr
	if xff != "" {
		req.Header.Set("X-Forwarded-For", xff)
	}
	if realIP != "" {
		req.Header.Set("X-Real-IP", realIP)
	}
	return req
}

func TestNewTrustedProxiesConfigShapes(t *testing.T) {
	// CIDR, bare IPv4, and IPv6 entries are all accepted, the way they
	// arrive from the trustedProxies config list.
	trusted, err := NewTrustedProxies([]string{"10.0.0.0/8", "192.168.1.10", "fd00::/8"})
	if err != nil {
		t.Fatalf("new trusted proxies: %v", err)
	}
	if trusted == nil {
		t.Fatal("expected a non-nil allowlist")
	}

	// Blank entries only, as with an unset TRUSTED_PROXIES, means trust none.
	none, err := NewTrustedProxies([]string{"", "  "})
	if err != nil {
		t.Fatalf("blank entries: %v", err)
	}
	if none != nil {
		t.Fatal("blank entries should yield a nil allowlist")
	}

	if _, err := NewTrustedProxies([]string{"not-an-ip"}); err == nil {
		t.Fatal("expected parse error for invalid entry")
	}
}

func TestClientIPWithoutTrustedProxies(t *testing.T) {
	// Forwarded headers are attacker-controlled unless the peer is trusted,
	// and the result keys the signup/login rate limits.
	req := ipRequest("198.51.100.10:4711", "203.0.113.5", "203.0.113.6")
	if got := ClientIP(req, nil); got != "198.51.100.10" {
		t.Fatalf("client ip = %q, want the direct peer", got)
	}
}

func TestClientIPBehindTrustedProxy(t *testing.T) {
	trusted, err := NewTrustedProxies([]string{"10.0.0.0/8", "192.168.1.10"})
	if err != nil {
		t.Fatalf("new trusted proxies: %v", err)
	}

	tests := []struct {
		name string
		req  *http.Request
		want string
	}{
		{"single forwarded hop", ipRequest("10.0.0.20:4711", "203.0.113.5", ""), "203.0.113.5"},
		{"first untrusted from the right wins", ipRequest("10.0.0.20:4711", "203.0.113.5, 10.0.0.10", ""), "203.0.113.5"},
		{"bare-ip allowlist entry", ipRequest("192.168.1.10:4711", "203.0.113.9", ""), "203.0.113.9"},
		{"x-real-ip when xff is garbage", ipRequest("10.0.0.20:4711", "garbage", "203.0.113.7"), "203.0.113.7"},
		{"fully trusted chain falls back to leftmost", ipRequest("10.0.0.20:4711", "10.0.0.5, 10.0.0.10", ""), "10.0.0.5"},
		{"no headers at all", ipRequest("10.0.0.20:4711", "", ""), "10.0.0.20"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClientIP(tc.req, trusted); got != tc.want {
				t.Fatalf("client ip = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestClientIPUnparseableRemoteAddr(t *testing.T) {
	req := ipRequest(" pipe ", "203.0.113.5", "")
	if got := ClientIP(req, nil); got != "pipe" {
		t.Fatalf("client ip = %q, want trimmed raw remote addr", got)
	}
}
