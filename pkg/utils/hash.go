package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashKey hashes parts into a stable hex key. Parts are joined with a
// separator that cannot appear in normal text.
func HashKey(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(hash[:])
}
