// Package checksum computes content digests for documents. Digests drive
// optimistic locking on writes and change detection during index sync.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Matches reports whether sum is the digest of data.
func Matches(data []byte, sum string) bool {
	return Sum(data) == sum
}
