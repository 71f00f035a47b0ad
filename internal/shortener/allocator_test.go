package shortener

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/joshdurbin/shortlinks/internal/domain"
	"github.com/joshdurbin/shortlinks/internal/repository/mocks"
)

type scriptedGenerator struct {
	codes []string
	calls int
	err   error
}

func (g *scriptedGenerator) Generate() (string, error) {
	if g.err != nil {
		return "", g.err
	}
	code := g.codes[g.calls%len(g.codes)]
	g.calls++
	return code, nil
}

func TestAllocator_Allocate(t *testing.T) {
	ctx := context.Background()
	store := new(mocks.LinkStore)
	store.On("ExistsByShortCode", ctx, "taken1").Return(true, nil).Once()
	store.On("ExistsByShortCode", ctx, "taken2").Return(true, nil).Once()
	store.On("ExistsByShortCode", ctx, "free01").Return(false, nil).Once()

	generator := &scriptedGenerator{codes: []string{"taken1", "taken2", "free01"}}
	allocator := NewAllocator(generator, store, 10)

	code, err := allocator.Allocate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "free01", code)
	assert.Equal(t, 3, generator.calls)
	store.AssertExpectations(t)
}

func TestAllocator_Exhausted(t *testing.T) {
	ctx := context.Background()
	store := new(mocks.LinkStore)
	store.On("ExistsByShortCode", ctx, mock.Anything).Return(true, nil)

	generator := &scriptedGenerator{codes: []string{"always"}}
	allocator := NewAllocator(generator, store, 10)

	code, err := allocator.Allocate(ctx)
	assert.ErrorIs(t, err, domain.ErrAllocationExhausted)
	assert.Empty(t, code)
	assert.Equal(t, 10, generator.calls)
	store.AssertNumberOfCalls(t, "ExistsByShortCode", 10)
}

func TestAllocator_SharedBudget(t *testing.T) {
	ctx := context.Background()
	store := new(mocks.LinkStore)
	store.On("ExistsByShortCode", ctx, mock.Anything).Return(false, nil)

	generator := &scriptedGenerator{codes: []string{"a", "b", "c"}}
	allocator := NewAllocator(generator, store, 2)
	budget := allocator.NewBudget()

	_, err := allocator.AllocateFrom(ctx, budget)
	require.NoError(t, err)
	_, err = allocator.AllocateFrom(ctx, budget)
	require.NoError(t, err)
	assert.Equal(t, 0, budget.Remaining())

	_, err = allocator.AllocateFrom(ctx, budget)
	assert.ErrorIs(t, err, domain.ErrAllocationExhausted)
}

func TestAllocator_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("generator failure", func(t *testing.T) {
		store := new(mocks.LinkStore)
		allocator := NewAllocator(&scriptedGenerator{err: errors.New("entropy gone")}, store, 3)

		_, err := allocator.Allocate(ctx)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "entropy gone")
		store.AssertNotCalled(t, "ExistsByShortCode", mock.Anything, mock.Anything)
	})

	t.Run("store failure", func(t *testing.T) {
		store := new(mocks.LinkStore)
		store.On("ExistsByShortCode", ctx, "abc").Return(false, errors.New("disk on fire"))
		allocator := NewAllocator(&scriptedGenerator{codes: []string{"abc"}}, store, 3)

		_, err := allocator.Allocate(ctx)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrAllocationExhausted)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		store := new(mocks.LinkStore)
		allocator := NewAllocator(&scriptedGenerator{codes: []string{"abc"}}, store, 3)

		_, err := allocator.Allocate(cancelled)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNew(t *testing.T) {
	_, err := New(DefaultConfig(), nil)
	assert.Error(t, err)

	allocator, err := New(DefaultConfig(), new(mocks.LinkStore))
	require.NoError(t, err)
	assert.Equal(t, 10, allocator.NewBudget().Remaining())
}
