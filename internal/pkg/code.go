package pkg

import (
	cryptoRand "crypto/rand"
	"math/big"
	"strings"
)

// ResetCodeLength is the number of digits mailed for a password reset.
const ResetCodeLength = 6

// RandDigits returns n decimal digits from crypto/rand.
func RandDigits(n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		x, err := cryptoRand.Int(cryptoRand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + x.Int64()))
	}
	return b.String(), nil
}
