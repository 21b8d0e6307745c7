// Package sanitizer provides input normalization for free-text and
// wallet fields before validation and storage.
//
// All normalization functions are idempotent - applying them multiple
// times produces the same result. Functions handle invalid input
// gracefully, typically by returning empty strings rather than errors.
//
// Normalization includes:
//   - Strings: Collapse whitespace, trim leading/trailing spaces
//   - Reasons: Collapse whitespace and cap length for audit fields
//   - Wallet addresses: Lowercase hex, reject anything that is not a
//     0x-prefixed 40-digit hex string
package sanitizer
