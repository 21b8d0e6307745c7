package sanitizer

import (
	"strings"
	"testing"
)

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"only whitespace", "   \t\n  ", ""},
		{"leading and trailing spaces", "  guest asked  ", "guest asked"},
		{"internal runs collapse", "plans \t changed\n\nsuddenly", "plans changed suddenly"},
		{"already normalized", "no changes needed", "no changes needed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.expected {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeReason_CapsLength(t *testing.T) {
	long := strings.Repeat("a", MaxReasonLength+200)

	got := NormalizeReason(long)
	if len(got) != MaxReasonLength {
		t.Errorf("expected reason capped at %d characters, got %d", MaxReasonLength, len(got))
	}
}

func TestNormalizeReason_Idempotent(t *testing.T) {
	input := "  change   of plans "

	once := NormalizeReason(input)
	twice := NormalizeReason(once)
	if once != twice {
		t.Errorf("NormalizeReason is not idempotent: %q vs %q", once, twice)
	}
}

func TestNormalizeWalletAddress(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases mixed case", "0x71C7656EC7ab88b098defB751B7401B5f6d8976F", "0x71c7656ec7ab88b098defb751b7401b5f6d8976f"},
		{"trims whitespace", "  0x71c7656ec7ab88b098defb751b7401b5f6d8976f ", "0x71c7656ec7ab88b098defb751b7401b5f6d8976f"},
		{"already normalized", "0x71c7656ec7ab88b098defb751b7401b5f6d8976f", "0x71c7656ec7ab88b098defb751b7401b5f6d8976f"},
		{"missing prefix", "71c7656ec7ab88b098defb751b7401b5f6d8976f", ""},
		{"too short", "0x71c7656e", ""},
		{"non-hex characters", "0x71c7656ec7ab88b098defb751b7401b5f6d8976z", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeWalletAddress(tt.input); got != tt.expected {
				t.Errorf("NormalizeWalletAddress(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
