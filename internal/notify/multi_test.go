package notify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joshdurbin/shortlinks/internal/domain"
	"github.com/joshdurbin/shortlinks/internal/notify"
	"github.com/joshdurbin/shortlinks/internal/notify/mocks"
)

func TestMulti_Publish(t *testing.T) {
	ctx := context.Background()
	n := &domain.Notification{ID: 1}

	first := new(mocks.Publisher)
	second := new(mocks.Publisher)
	third := new(mocks.Publisher)
	first.On("Publish", ctx, n).Return(errors.New("first down"))
	second.On("Publish", ctx, n).Return(nil)
	third.On("Publish", ctx, n).Return(errors.New("third down"))

	err := notify.Multi{first, second, third}.Publish(ctx, n)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "first down")
	assert.Contains(t, err.Error(), "third down")

	first.AssertExpectations(t)
	second.AssertExpectations(t)
	third.AssertExpectations(t)
}

func TestMulti_Close(t *testing.T) {
	first := new(mocks.Publisher)
	second := new(mocks.Publisher)
	first.On("Close").Return(nil)
	second.On("Close").Return(nil)

	assert.NoError(t, notify.Multi{first, second}.Close())
	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestMulti_Empty(t *testing.T) {
	var m notify.Multi
	assert.NoError(t, m.Publish(context.Background(), &domain.Notification{}))
	assert.NoError(t, m.Close())
}
