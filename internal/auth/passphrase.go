package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const digestHexLen = sha256.Size * 2

// DigestConfigured reports whether the value looks like a usable SHA-256
// hex digest. The login flow is disabled when this returns false.
func DigestConfigured(digestHex string) bool {
	trimmed := strings.TrimSpace(digestHex)
	if len(trimmed) != digestHexLen {
		return false
	}
	_, err := hex.DecodeString(trimmed)
	return err == nil
}

// VerifyPassphrase hashes the candidate passphrase and compares it against
// the configured digest in constant time.
func VerifyPassphrase(digestHex, candidate string) bool {
	if !DigestConfigured(digestHex) {
		return false
	}
	sum := sha256.Sum256([]byte(candidate))
	computed := hex.EncodeToString(sum[:])
	expected := strings.ToLower(strings.TrimSpace(digestHex))
	return hmac.Equal([]byte(computed), []byte(expected))
}
