package logger

import "testing"

func TestSanitizeReason(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"spend exceeded threshold=12.5", "spend exceeded threshold"},
		{"daily limit: 3 reached", "daily limit reached"},
		{"rule matched on spend", "rule matched on spend"},
		{"auth Bearer abc123 rejected", "auth bearer *** rejected"},
	}
	for _, tt := range tests {
		if got := SanitizeReason(tt.in); got != tt.want {
			t.Errorf("SanitizeReason(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRedactValue(t *testing.T) {
	if got := redactValue("api_key", "sk-12345"); got != "***" {
		t.Errorf("expected masked api_key, got %q", got)
	}
	if got := redactValue("note", "Bearer tok123"); got != "bearer ***" {
		t.Errorf("expected masked bearer, got %q", got)
	}
	if got := redactValue("campaign_id", "c-1"); got != "c-1" {
		t.Errorf("expected passthrough, got %q", got)
	}
}
