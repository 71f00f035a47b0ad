package shortener

import (
	"fmt"
)

// NewGenerator creates the random generator described by config
func NewGenerator(config Config) (Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shortener config: %w", err)
	}
	return NewRandomGenerator(config.Length, config.Alphabet), nil
}

// New creates an Allocator that checks candidates against checker
func New(config Config, checker CodeChecker) (*Allocator, error) {
	if checker == nil {
		return nil, fmt.Errorf("code checker required for allocation")
	}
	generator, err := NewGenerator(config)
	if err != nil {
		return nil, err
	}
	return NewAllocator(generator, checker, config.MaxAttempts), nil
}
