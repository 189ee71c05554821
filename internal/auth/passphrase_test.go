package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

func TestVerifyPassphrase(t *testing.T) {
	sum := sha256.Sum256([]byte("open sesame"))
	digest := hex.EncodeToString(sum[:])

	if !VerifyPassphrase(digest, "open sesame") {
		t.Fatal("expected matching passphrase to verify")
	}
	if !VerifyPassphrase(strings.ToUpper(digest), "open sesame") {
		t.Fatal("expected digest comparison to be case-insensitive")
	}
	if VerifyPassphrase(digest, "wrong") {
		t.Fatal("expected wrong passphrase to fail")
	}
	if VerifyPassphrase(digest, "") {
		t.Fatal("expected empty passphrase to fail")
	}
}

func TestDigestConfigured(t *testing.T) {
	tests := []struct {
		name   string
		digest string
		want   bool
	}{
		{"empty", "", false},
		{"too short", "abcdef", false},
		{"not hex", strings.Repeat("zz", 32), false},
		{"valid", strings.Repeat("ab", 32), true},
		{"valid with whitespace", "  " + strings.Repeat("ab", 32) + " ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DigestConfigured(tt.digest); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
