package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClock_Now(t *testing.T) {
	before := time.Now()
	got := RealClock{}.Now()

	assert.WithinDuration(t, before, got, time.Second)
	assert.Equal(t, time.UTC, got.Location())
}

func TestMockClock(t *testing.T) {
	start := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	assert.Equal(t, start, clock.Now())

	clock.Advance(25 * time.Hour)
	assert.Equal(t, start.Add(25*time.Hour), clock.Now())

	clock.Set(start)
	assert.Equal(t, start, clock.Now())
}
