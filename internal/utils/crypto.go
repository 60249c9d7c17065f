// internal/utils/crypto.go
package utils

import (
	"crypto/rand"
	"math/big"
)

// GeneratePromoCode returns an uppercase alphanumeric code suitable for a
// new Reference. Ambiguous characters (0/O, 1/I) are left out of the
// charset.
func GeneratePromoCode(length int) (string, error) {
	const charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	b := make([]byte, length)

	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		b[i] = charset[n.Int64()]
	}

	return string(b), nil
}
