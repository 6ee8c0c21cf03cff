package auth

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/tastebookapp/tastebook-server/internal/domain"
)

func testKeyHex() string {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	return hex.EncodeToString(key)
}

func TestTokenRoundTrip(t *testing.T) {
	svc, err := NewTokenService(testKeyHex(), 15*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	user := &domain.User{ID: "user-abc", Email: "test@example.com"}

	token, err := svc.GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	claims, err := svc.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}

	if claims.UserID != "user-abc" {
		t.Errorf("UserID: got %q, want %q", claims.UserID, "user-abc")
	}
	if claims.Email != "test@example.com" {
		t.Errorf("Email: got %q, want %q", claims.Email, "test@example.com")
	}
	if claims.TokenID == "" {
		t.Error("TokenID should be set")
	}
}

func TestVerifyAccessToken_Expired(t *testing.T) {
	svc, err := NewTokenService(testKeyHex(), -1*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, err := svc.GenerateAccessToken(&domain.User{ID: "user-abc"})
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	if _, err := svc.VerifyAccessToken(token); err == nil {
		t.Error("expired token should not verify")
	}
}

func TestVerifyAccessToken_Garbage(t *testing.T) {
	svc, err := NewTokenService(testKeyHex(), 15*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	if _, err := svc.VerifyAccessToken("v4.local.garbage"); err == nil {
		t.Error("garbage token should not verify")
	}
}

func TestNewTokenService_BadKey(t *testing.T) {
	if _, err := NewTokenService("deadbeef", 15*time.Minute); err == nil {
		t.Error("short key should be rejected")
	}
	if _, err := NewTokenService(string(make([]byte, 64)), 15*time.Minute); err == nil {
		t.Error("non-hex key should be rejected")
	}
}

func TestLoadOrGenerateKey(t *testing.T) {
	dir := t.TempDir()

	key1, err := LoadOrGenerateKey(dir)
	if err != nil {
		t.Fatalf("LoadOrGenerateKey: %v", err)
	}
	if len(key1) != 32 {
		t.Fatalf("key length: got %d, want 32", len(key1))
	}

	// Second call loads the same key.
	key2, err := LoadOrGenerateKey(dir)
	if err != nil {
		t.Fatalf("LoadOrGenerateKey (reload): %v", err)
	}
	if hex.EncodeToString(key1) != hex.EncodeToString(key2) {
		t.Error("reloaded key should match the generated one")
	}
}
