package uidhash

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
)

// DigestLen is the length of a hex encoded digest.
const DigestLen = sha256.Size * 2

// ErrEmptySecret is returned when a Hasher is created without a secret.
var ErrEmptySecret = errors.New("uidhash: empty secret")

// Hasher computes keyed UID digests.
type Hasher struct {
	secret []byte
}

// New creates a Hasher. The secret is copied.
func New(secret []byte) (*Hasher, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	return &Hasher{secret: append([]byte(nil), secret...)}, nil
}

// Normalize trims the surrounding whitespace a reader may emit.
func Normalize(uid string) string {
	return strings.TrimSpace(uid)
}

// Hash returns the hex digest of the normalized uid.
func (h *Hasher) Hash(uid string) string {
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(Normalize(uid)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether uid hashes to expected.
func (h *Hasher) Verify(uid, expected string) bool {
	return Equal(h.Hash(uid), expected)
}

// Equal compares two digests in constant time, ignoring hex case.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(a)), []byte(strings.ToLower(b))) == 1
}

// Contains reports whether digest is in set. Every entry is compared so
// the time taken does not depend on the position of a match.
func Contains(set []string, digest string) bool {
	found := 0
	for _, d := range set {
		if Equal(d, digest) {
			found = 1
		}
	}
	return found == 1
}

// ValidDigest reports whether s looks like a digest produced by Hash.
func ValidDigest(s string) bool {
	if len(s) != DigestLen {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
