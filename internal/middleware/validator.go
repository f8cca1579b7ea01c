package middleware

import (
	"fmt"
	"net"
	"regexp"
	"strings"
	"unicode/utf8"
)

var tenantRx = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// MaxSubjectBytes bounds the text submitted for analysis.
const MaxSubjectBytes = 16 << 10

// ValidateTenantID validates tenant ID format
func ValidateTenantID(tenant string) error {
	if tenant == "" {
		return fmt.Errorf("tenant ID cannot be empty")
	}
	if !tenantRx.MatchString(tenant) {
		return fmt.Errorf("invalid tenant ID format (alphanumeric, dash, underscore only, max 64 chars)")
	}
	return nil
}

// ValidateSubject rejects text that is too large or not UTF-8.
func ValidateSubject(s string) error {
	if len(s) > MaxSubjectBytes {
		return fmt.Errorf("text exceeds %d bytes", MaxSubjectBytes)
	}
	if !utf8.ValidString(s) {
		return fmt.Errorf("text must be valid UTF-8")
	}
	return nil
}

// SanitizeString removes control characters, keeping tabs and newlines.
func SanitizeString(input string) string {
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
