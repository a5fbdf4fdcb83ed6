package otp

import (
	"crypto/rand"
	"math/big"
)

// Digits returns a random numeric code of exactly n digits, uniformly
// sampled. rand.Int performs rejection sampling internally, so there is no
// modular bias. Leading zeros are allowed ("0012" is a valid 4-digit code).
func Digits(n int) string {
	b := make([]byte, n)
	ten := big.NewInt(10)
	for i := range b {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken.
			panic("otp: read random: " + err.Error())
		}
		b[i] = byte('0' + d.Int64())
	}
	return string(b)
}
