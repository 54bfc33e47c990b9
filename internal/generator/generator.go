// Package generator produces random passwords for stored credentials.
// Generated passwords always contain all four character classes.
package generator

import (
	"crypto/rand"
	"math/big"

	"github.com/mkalvans/passvault/internal/prefs"
)

var classes = []string{
	"abcdefghijklmnopqrstuvwxyz",
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ",
	"0123456789",
	"!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~",
}

// Generate returns a random password of the given length, drawing
// length/4 characters from each class and shuffling the result. The length
// is normalized the same way the preference store normalizes it, so every
// class contributes at least one character.
func Generate(length int) string {
	length = prefs.NormalizeLength(length)

	password := make([]byte, 0, length)
	perClass := length / len(classes)
	for _, class := range classes {
		for i := 0; i < perClass; i++ {
			password = append(password, class[randInt(len(class))])
		}
	}

	// Fisher–Yates with crypto/rand
	for i := len(password) - 1; i > 0; i-- {
		j := randInt(i + 1)
		password[i], password[j] = password[j], password[i]
	}
	return string(password)
}

func randInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(err)
	}
	return int(v.Int64())
}
