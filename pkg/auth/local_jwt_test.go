package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestExtractToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", false},
		{"bearer   abc ", "abc", false},
		{"", "", true},
		{"Basic abc", "", true},
		{"Bearer", "", true},
		{"Bearer   ", "", true},
	}

	for _, tt := range tests {
		got, err := ExtractToken(tt.header)
		if (err != nil) != tt.wantErr {
			t.Errorf("ExtractToken(%q) error = %v, wantErr %v", tt.header, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ExtractToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestGenerateAndVerifyToken(t *testing.T) {
	a, err := NewLocalJWTAuth("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewLocalJWTAuth failed: %v", err)
	}

	token, expiresAt, err := a.GenerateToken("desktop")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if time.Until(expiresAt) <= 59*time.Minute {
		t.Errorf("Unexpected expiry %v", expiresAt)
	}

	claims, err := a.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if claims.Subject != "desktop" {
		t.Errorf("Expected subject desktop, got %s", claims.Subject)
	}
}

func TestVerifyToken_Rejects(t *testing.T) {
	a, _ := NewLocalJWTAuth("test-secret", time.Hour)
	other, _ := NewLocalJWTAuth("other-secret", time.Hour)

	foreign, _, err := other.GenerateToken("cli")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, err := a.VerifyToken(foreign); err == nil {
		t.Error("Expected token signed with another secret to be rejected")
	}

	expired, _ := NewLocalJWTAuth("test-secret", -time.Minute)
	stale, _, err := expired.GenerateToken("cli")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, err := a.VerifyToken(stale); err == nil {
		t.Error("Expected expired token to be rejected")
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, JWTClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "cli", Issuer: issuer}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("Failed to build unsigned token: %v", err)
	}
	if _, err := a.VerifyToken(unsigned); err == nil {
		t.Error("Expected alg=none token to be rejected")
	}

	if _, err := a.VerifyToken("garbage"); err == nil {
		t.Error("Expected garbage to be rejected")
	}
}

func TestNewLocalJWTAuth_EmptySecret(t *testing.T) {
	if _, err := NewLocalJWTAuth("", 0); err == nil {
		t.Error("Expected error for empty secret")
	}
	a, err := NewLocalJWTAuth("s", 0)
	if err != nil {
		t.Fatalf("NewLocalJWTAuth failed: %v", err)
	}
	if a.TokenExpiry != 24*time.Hour {
		t.Errorf("Expected default expiry 24h, got %v", a.TokenExpiry)
	}
}

func TestLoadOrCreateSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "jwt.secret")

	first, err := LoadOrCreateSecret(path)
	if err != nil {
		t.Fatalf("LoadOrCreateSecret failed: %v", err)
	}
	second, err := LoadOrCreateSecret(path)
	if err != nil {
		t.Fatalf("Second LoadOrCreateSecret failed: %v", err)
	}
	if first == "" || first != second {
		t.Errorf("Expected a stable secret, got %q and %q", first, second)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("Expected mode 0600, got %v", info.Mode().Perm())
	}

	empty := filepath.Join(t.TempDir(), "empty.secret")
	if err := os.WriteFile(empty, []byte("\n"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := LoadOrCreateSecret(empty); err == nil {
		t.Error("Expected error for empty secret file")
	}
}
