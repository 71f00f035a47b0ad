package shortener

import (
	"context"
	"fmt"
)

// Generator defines the interface for drawing candidate short codes
type Generator interface {
	// Generate returns a candidate short code; it may collide with a stored one
	Generate() (string, error)
}

// CodeChecker reports whether a short code is already taken
type CodeChecker interface {
	ExistsByShortCode(ctx context.Context, code string) (bool, error)
}

// DefaultAlphabet is the 62-character alphanumeric set
const DefaultAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Config holds configuration for code generation and allocation
type Config struct {
	Length      int    `json:"length"`
	Alphabet    string `json:"alphabet"`
	MaxAttempts int    `json:"max_attempts"` // total draws allowed per allocation
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Length:      6,
		Alphabet:    DefaultAlphabet,
		MaxAttempts: 10,
	}
}

// Validate checks that the configuration can produce codes
func (c Config) Validate() error {
	if c.Length <= 0 {
		return fmt.Errorf("code length must be positive, got %d", c.Length)
	}
	if len(c.Alphabet) < 2 {
		return fmt.Errorf("alphabet must have at least 2 characters")
	}
	seen := make(map[rune]bool, len(c.Alphabet))
	for _, r := range c.Alphabet {
		if r > 127 {
			return fmt.Errorf("alphabet must be ASCII, found %q", r)
		}
		if seen[r] {
			return fmt.Errorf("alphabet contains duplicate character %q", r)
		}
		seen[r] = true
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive, got %d", c.MaxAttempts)
	}
	return nil
}
