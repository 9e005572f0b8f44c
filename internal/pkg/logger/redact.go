package logger

import (
	"regexp"
	"strings"
)

var (
	bearerRegex    = regexp.MustCompile(`(?i)bearer\s+\S+`)
	thresholdRegex = regexp.MustCompile(`(?i)\b(threshold|limit|ceiling)\s*[=:]\s*[\d.]+`)
)

// redactValue masks secrets and internal policy values before they hit the
// log stream. Field names containing "token" or "secret" are fully masked.
func redactValue(key, val string) string {
	lower := strings.ToLower(key)
	if strings.Contains(lower, "token") || strings.Contains(lower, "secret") ||
		strings.Contains(lower, "password") || strings.Contains(lower, "api_key") {
		return "***"
	}
	return bearerRegex.ReplaceAllString(val, "bearer ***")
}

// SanitizeReason strips internal threshold values from a reason string so
// callers see why a decision happened without learning the exact policy
// numbers. "spend exceeded threshold=12.5" → "spend exceeded threshold".
func SanitizeReason(reason string) string {
	out := thresholdRegex.ReplaceAllStringFunc(reason, func(m string) string {
		if i := strings.IndexAny(m, "=:"); i > 0 {
			return strings.TrimSpace(m[:i])
		}
		return m
	})
	return bearerRegex.ReplaceAllString(out, "bearer ***")
}
