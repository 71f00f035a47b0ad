package service

import (
	"fmt"
	"sync"
)

// TestGenerator is a deterministic shortener.Generator for tests.
// It returns the scripted codes in order, then "test0001", "test0002", ...
type TestGenerator struct {
	mu      sync.Mutex
	scripts []string
	counter int
}

// NewTestGenerator creates a new test generator
func NewTestGenerator(scripted ...string) *TestGenerator {
	return &TestGenerator{scripts: scripted}
}

// Generate returns the next code
func (g *TestGenerator) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.scripts) > 0 {
		code := g.scripts[0]
		g.scripts = g.scripts[1:]
		return code, nil
	}
	g.counter++
	return fmt.Sprintf("test%04d", g.counter), nil
}
