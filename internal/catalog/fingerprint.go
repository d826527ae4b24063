package catalog

import (
	"fmt"

	"github.com/spaolacci/murmur3"
)

// Fingerprint returns the murmur3 128-bit hash of raw as 32 hex digits.
func Fingerprint(raw []byte) string {
	h1, h2 := murmur3.Sum128(raw)
	return fmt.Sprintf("%016x%016x", h1, h2)
}
