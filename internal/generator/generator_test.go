package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func countClass(s, class string) int {
	n := 0
	for _, r := range s {
		if strings.ContainsRune(class, r) {
			n++
		}
	}
	return n
}

func TestGenerate_LengthAndClassCoverage(t *testing.T) {
	for _, length := range []int{4, 8, 20, 40} {
		pw := Generate(length)
		assert.Len(t, pw, length)

		for _, class := range classes {
			assert.Equal(t, length/4, countClass(pw, class),
				"length %d: class %q share", length, class)
		}
	}
}

func TestGenerate_NormalizesLength(t *testing.T) {
	assert.Len(t, Generate(0), 4)
	assert.Len(t, Generate(3), 4)
	assert.Len(t, Generate(15), 16)
}

func TestGenerate_NotConstant(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		seen[Generate(20)] = true
	}
	assert.Greater(t, len(seen), 1)
}
