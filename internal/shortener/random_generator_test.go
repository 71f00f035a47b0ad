package shortener

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomGenerator_Generate(t *testing.T) {
	testCases := []struct {
		name     string
		length   int
		alphabet string
	}{
		{name: "default", length: 6, alphabet: DefaultAlphabet},
		{name: "long codes", length: 12, alphabet: DefaultAlphabet},
		{name: "binary alphabet", length: 8, alphabet: "ab"},
		{name: "single character", length: 1, alphabet: "xyz"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			generator := NewRandomGenerator(tc.length, tc.alphabet)

			for i := 0; i < 50; i++ {
				code, err := generator.Generate()
				require.NoError(t, err)
				assert.Len(t, code, tc.length)
				for _, r := range code {
					assert.True(t, strings.ContainsRune(tc.alphabet, r), "unexpected character %q in %s", r, code)
				}
			}
		})
	}
}

func TestRandomGenerator_Spread(t *testing.T) {
	generator := NewRandomGenerator(6, DefaultAlphabet)

	codes := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code, err := generator.Generate()
		require.NoError(t, err)
		codes[code] = true
	}

	// 62^6 possible codes; 1000 draws colliding more than a handful of times means a broken source
	assert.Greater(t, len(codes), 990)
}

func TestNewGenerator(t *testing.T) {
	testCases := []struct {
		name        string
		config      Config
		shouldError bool
	}{
		{name: "default config", config: DefaultConfig()},
		{name: "zero length", config: Config{Length: 0, Alphabet: DefaultAlphabet, MaxAttempts: 1}, shouldError: true},
		{name: "short alphabet", config: Config{Length: 6, Alphabet: "a", MaxAttempts: 1}, shouldError: true},
		{name: "duplicate characters", config: Config{Length: 6, Alphabet: "abca", MaxAttempts: 1}, shouldError: true},
		{name: "non ascii alphabet", config: Config{Length: 6, Alphabet: "abcé", MaxAttempts: 1}, shouldError: true},
		{name: "no attempts", config: Config{Length: 6, Alphabet: DefaultAlphabet, MaxAttempts: 0}, shouldError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			generator, err := NewGenerator(tc.config)
			if tc.shouldError {
				assert.Error(t, err)
				assert.Nil(t, generator)
				return
			}
			require.NoError(t, err)

			code, err := generator.Generate()
			require.NoError(t, err)
			assert.Len(t, code, tc.config.Length)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, 6, config.Length)
	assert.Len(t, config.Alphabet, 62)
	assert.Equal(t, 10, config.MaxAttempts)
	assert.NoError(t, config.Validate())
}
