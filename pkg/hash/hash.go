package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// logIDLen is the number of hex characters kept by LogID.
const logIDLen = 12

// SHA256Hex returns the hex-encoded SHA256 hash of the input string.
func SHA256Hex(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// Prefix returns the first n characters of SHA256(input), or the full hash
// when n exceeds its length.
func Prefix(input string, n int) string {
	full := SHA256Hex(input)
	if n > len(full) || n < 0 {
		return full
	}
	return full[:n]
}

// LogID derives a short, irreversible identifier for correlating log lines
// that concern the same client without recording the raw value (IPs).
func LogID(value, salt string) string {
	return Prefix(salt+value, logIDLen)
}
