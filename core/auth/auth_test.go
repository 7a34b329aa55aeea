package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("test-secret", "admin", true, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := ParseToken("test-secret", token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if claims.Subject != "admin" {
		t.Errorf("subject = %q, want admin", claims.Subject)
	}
	if !claims.IsAdmin {
		t.Error("expected isAdmin claim")
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("test-secret", "admin", true, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, err := ParseToken("other-secret", token); err == nil {
		t.Fatal("expected token signed with a different secret to be rejected")
	}
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken("test-secret", "admin", true, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, err := ParseToken("test-secret", token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestParseTokenGarbage(t *testing.T) {
	if _, err := ParseToken("test-secret", "not.a.token"); err == nil {
		t.Fatal("expected malformed token to be rejected")
	}
}

func TestHashKeyRoundTrip(t *testing.T) {
	hash, err := HashKey("super-secret-key")
	if err != nil {
		t.Fatalf("HashKey failed: %v", err)
	}
	if !CheckKeyHash("super-secret-key", hash) {
		t.Error("expected matching key to verify")
	}
	if CheckKeyHash("wrong-key", hash) {
		t.Error("expected non-matching key to fail")
	}
}
