package utils

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("secret", 42, "STAFF", 5)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, err := ParseAccessToken("secret", tok.Token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id.UserID != "42" || id.Role != "STAFF" {
		t.Fatalf("identity = %+v", id)
	}
}

func TestParseAccessTokenRejects(t *testing.T) {
	tok, err := NewAccessToken("secret", 1, "ADMIN", 5)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ParseAccessToken("other", tok.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong secret err = %v", err)
	}
	expired, err := NewAccessToken("secret", 1, "ADMIN", -5)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ParseAccessToken("secret", expired.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired err = %v", err)
	}
	if _, err := ParseAccessToken("secret", "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage err = %v", err)
	}
}

func TestRefreshToken(t *testing.T) {
	a, err := NewRefreshToken(1)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	b, _ := NewRefreshToken(1)
	if len(a.Raw) != 96 || a.Raw == b.Raw {
		t.Fatalf("unexpected raw tokens %q %q", a.Raw, b.Raw)
	}
	if HashRefreshRaw(a.Raw) != HashRefreshRaw(a.Raw) || len(HashRefreshRaw(a.Raw)) != 64 {
		t.Fatal("hash not stable or wrong length")
	}
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("correct horse", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifyPassword(hash, "correct horse") || VerifyPassword(hash, "wrong") {
		t.Fatal("verify mismatch")
	}
	if err := CheckPassword("short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("CheckPassword(short) = %v", err)
	}
	if err := CheckPassword("long enough"); err != nil {
		t.Fatalf("CheckPassword(long) = %v", err)
	}
}
