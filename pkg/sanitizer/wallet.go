package sanitizer

import (
	"regexp"
	"strings"
)

var reWalletAddress = regexp.MustCompile(`^0x[0-9a-f]{40}$`)

// NormalizeWalletAddress lowercases an Ethereum address and returns ""
// when the input is not a 0x-prefixed 40-digit hex string. Callers rely
// on downstream validation to reject the empty result.
func NormalizeWalletAddress(address string) string {
	address = strings.ToLower(strings.TrimSpace(address))
	if !reWalletAddress.MatchString(address) {
		return ""
	}
	return address
}
