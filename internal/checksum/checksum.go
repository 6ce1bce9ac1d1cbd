// Package checksum fingerprints store content. The watcher uses digests to
// tell genuine external edits apart from the process's own writes, and the
// API exposes them as a cheap revision marker.
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

// Short returns a 12-character prefix of Sum, enough for revision display.
func Short(data []byte) string {
	return Sum(data)[:12]
}
