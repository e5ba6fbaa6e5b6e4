package utils

import "strings"

// Redact returns the first n characters of secret followed by an ellipsis.
// It is used to correlate device codes in logs without exposing them.
func Redact(secret string, n int) string {
	if n <= 0 || secret == "" {
		return "***"
	}

	if len(secret) <= n {
		return strings.Repeat("*", len(secret))
	}

	return secret[:n] + "..."
}
