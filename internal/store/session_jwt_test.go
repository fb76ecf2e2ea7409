package store

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

func TestJWTSessionRoundTrip(t *testing.T) {
	sessions, err := NewJWTSessionStore("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new session store: %v", err)
	}
	token, err := sessions.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	uid, ok, err := sessions.GetUserIDByToken(token)
	if err != nil || !ok {
		t.Fatalf("expected valid token, got ok=%v err=%v", ok, err)
	}
	if uid != "user-1" {
		t.Fatalf("unexpected user id %q", uid)
	}
}

func TestJWTSessionRejectsTamperedAndForeignTokens(t *testing.T) {
	sessions, err := NewJWTSessionStore("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new session store: %v", err)
	}
	token, err := sessions.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	if _, ok, _ := sessions.GetUserIDByToken(""); ok {
		t.Fatalf("empty token should be rejected")
	}
	if _, ok, _ := sessions.GetUserIDByToken("not-a-jwt"); ok {
		t.Fatalf("malformed token should be rejected")
	}
	if _, ok, _ := sessions.GetUserIDByToken(token + "x"); ok {
		t.Fatalf("tampered token should be rejected")
	}

	other, err := NewJWTSessionStore("other-secret", time.Hour)
	if err != nil {
		t.Fatalf("new session store: %v", err)
	}
	foreign, err := other.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, ok, _ := sessions.GetUserIDByToken(foreign); ok {
		t.Fatalf("token signed by a different secret should be rejected")
	}
}

func TestJWTSessionRejectsExpiredToken(t *testing.T) {
	sessions, err := NewJWTSessionStore("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new session store: %v", err)
	}
	// Mint a token whose expiry is already behind the validation leeway.
	past := time.Now().UTC().Add(-2 * time.Minute)
	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		IssuedAt:  jwt.NewNumericDate(past.Add(-time.Hour)),
		ExpiresAt: jwt.NewNumericDate(past),
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign expired token: %v", err)
	}
	if _, ok, _ := sessions.GetUserIDByToken(expired); ok {
		t.Fatalf("expired token should be rejected")
	}
}

func TestJWTSessionEmbedsExpiry(t *testing.T) {
	sessions, err := NewJWTSessionStore("test-secret", 0)
	if err != nil {
		t.Fatalf("new session store: %v", err)
	}
	token, err := sessions.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		t.Fatalf("token must embed iat and exp")
	}
	ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if ttl != DefaultSessionTTL {
		t.Fatalf("default ttl = %v, want %v", ttl, DefaultSessionTTL)
	}
}
