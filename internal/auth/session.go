package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/hkdf"
)

const (
	// SessionTTL bounds how long an issued session token stays valid.
	SessionTTL = 24 * time.Hour
	// clockSkewAllowance tolerates small clock drift between issue and verify.
	clockSkewAllowance = 60 * time.Second

	sessionKeyInfo = "chargen session signing key v1"
)

// SessionCodec issues and verifies stateless session tokens of the form
// "<unix_ts>.<hex_hmac>". No server-side session store is involved; the
// token is valid for SessionTTL after its embedded timestamp.
type SessionCodec struct {
	key []byte
}

// NewSessionCodec derives the HMAC signing key from the configured
// passphrase digest. The digest itself never signs anything directly.
func NewSessionCodec(passphraseDigest string) (*SessionCodec, error) {
	trimmed := strings.TrimSpace(passphraseDigest)
	if trimmed == "" {
		return nil, errors.New("session secret must not be empty")
	}

	key := make([]byte, sha256.Size)
	kdf := hkdf.New(sha256.New, []byte(trimmed), nil, []byte(sessionKeyInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, err
	}
	return &SessionCodec{key: key}, nil
}

// Issue returns a signed token for the given moment. Deterministic for a
// fixed (secret, timestamp) pair.
func (c *SessionCodec) Issue(now time.Time) string {
	ts := strconv.FormatInt(now.Unix(), 10)
	return ts + "." + c.sign(ts)
}

// Verify reports whether the token was signed with this codec's key and is
// inside its validity window at the given moment. Malformed input is never
// an error, just a failed verification.
func (c *SessionCodec) Verify(token string, now time.Time) bool {
	if c == nil || token == "" {
		return false
	}

	tsPart, sig, found := strings.Cut(token, ".")
	if !found {
		return false
	}
	ts, err := strconv.ParseInt(tsPart, 10, 64)
	if err != nil {
		return false
	}

	issued := time.Unix(ts, 0)
	if issued.After(now.Add(clockSkewAllowance)) {
		return false
	}
	if now.Sub(issued) > SessionTTL {
		return false
	}

	expected := c.sign(tsPart)
	return hmac.Equal([]byte(sig), []byte(expected))
}

func (c *SessionCodec) sign(message string) string {
	mac := hmac.New(sha256.New, c.key)
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}
