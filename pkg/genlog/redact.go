package genlog

import (
	"crypto/sha256"
	"encoding/hex"
	"unicode/utf8"
)

// HashString returns the hex SHA-256 of s, or "" for an empty string.
func HashString(s string) string {
	if s == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// TruncateString shortens s to at most maxLen bytes, appending "..." when
// it cut anything. It never splits a UTF-8 sequence. maxLen <= 0 disables
// truncation.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	cut := maxLen
	if maxLen > 3 {
		cut = maxLen - 3
	}
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if maxLen <= 3 {
		return s[:cut]
	}
	return s[:cut] + "..."
}
