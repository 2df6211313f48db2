package share

import "crypto/rand"

const (
	idLength   = 10
	idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
)

// NewID returns a random URL-safe id of ten characters.
func NewID() string {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		panic("share: crypto/rand failed: " + err.Error())
	}
	for i := range b {
		b[i] = idAlphabet[b[i]&63]
	}
	return string(b)
}

// ValidID reports whether id could have been produced by NewID.
func ValidID(id string) bool {
	if len(id) != idLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}
