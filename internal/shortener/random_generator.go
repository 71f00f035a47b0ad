package shortener

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// RandomGenerator draws codes uniformly from an alphabet using crypto/rand
type RandomGenerator struct {
	alphabet string
	length   int
	max      *big.Int
}

// NewRandomGenerator creates a generator for codes of the given length over alphabet
func NewRandomGenerator(length int, alphabet string) *RandomGenerator {
	return &RandomGenerator{
		alphabet: alphabet,
		length:   length,
		max:      big.NewInt(int64(len(alphabet))),
	}
}

// Generate returns a fresh random code
func (g *RandomGenerator) Generate() (string, error) {
	b := make([]byte, g.length)
	for i := range b {
		n, err := rand.Int(rand.Reader, g.max)
		if err != nil {
			return "", fmt.Errorf("failed to read random source: %w", err)
		}
		b[i] = g.alphabet[n.Int64()]
	}
	return string(b), nil
}

var _ Generator = (*RandomGenerator)(nil)
