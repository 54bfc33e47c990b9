package common

import (
	"crypto/rand"
	"math/big"
)

// GenerateRandByteArray returns size bytes from the platform CSPRNG.
// It panics if the random source fails, which on supported platforms
// only happens when the OS itself is broken.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// WipeByteArray zeroes the buffer in place. Used on password material as
// soon as it is no longer needed. Safe on nil.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// GenerateDigitToken returns a string of length random decimal digits,
// suitable for short-lived verification codes sent over e-mail.
func GenerateDigitToken(length int) string {
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			panic(err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits)
}
