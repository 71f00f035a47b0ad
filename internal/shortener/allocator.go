package shortener

import (
	"context"
	"fmt"

	"github.com/joshdurbin/shortlinks/internal/domain"
)

// Budget tracks the draws left for one allocation. A caller that retries
// after an insert-time collision passes the same Budget back in.
type Budget struct {
	remaining int
}

// Remaining returns the number of draws left
func (b *Budget) Remaining() int {
	return b.remaining
}

// Allocator finds short codes not currently present in the store
type Allocator struct {
	generator   Generator
	checker     CodeChecker
	maxAttempts int
}

// NewAllocator creates an allocator giving up after maxAttempts draws
func NewAllocator(generator Generator, checker CodeChecker, maxAttempts int) *Allocator {
	return &Allocator{
		generator:   generator,
		checker:     checker,
		maxAttempts: maxAttempts,
	}
}

// NewBudget returns a full attempt budget
func (a *Allocator) NewBudget() *Budget {
	return &Budget{remaining: a.maxAttempts}
}

// Allocate returns a code that was free when probed, using a fresh budget
func (a *Allocator) Allocate(ctx context.Context) (string, error) {
	return a.AllocateFrom(ctx, a.NewBudget())
}

// AllocateFrom draws candidates until one is free or the budget runs out,
// in which case domain.ErrAllocationExhausted is returned.
func (a *Allocator) AllocateFrom(ctx context.Context, budget *Budget) (string, error) {
	for budget.remaining > 0 {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		budget.remaining--

		code, err := a.generator.Generate()
		if err != nil {
			return "", fmt.Errorf("failed to generate short code: %w", err)
		}

		taken, err := a.checker.ExistsByShortCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check short code: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", domain.ErrAllocationExhausted
}
