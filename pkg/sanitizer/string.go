package sanitizer

import (
	"strings"
	"unicode"
)

// MaxReasonLength caps free-text audit fields such as cancellation
// reasons before they reach the status history.
const MaxReasonLength = 500

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

func NormalizeReason(reason string) string {
	reason = TrimAndNormalize(reason)
	if len(reason) > MaxReasonLength {
		reason = strings.TrimSpace(reason[:MaxReasonLength])
	}
	return reason
}
