// Package address validates storage-network wallet addresses.
package address

// Length is the fixed length of an address: base64url of a SHA-256 digest
// without padding.
const Length = 43

// IsValid reports whether s is exactly Length characters drawn from
// [A-Za-z0-9_-]. It performs no network calls.
func IsValid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_' || c == '-':
		default:
			return false
		}
	}
	return true
}
