package notify

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshdurbin/shortlinks/internal/domain"
)

func TestRedisPublisher_Publish(t *testing.T) {
	addr := os.Getenv("SHORTLINKS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SHORTLINKS_TEST_REDIS_ADDR not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	publisher, err := NewRedisPublisher(ctx, addr)
	require.NoError(t, err)
	defer publisher.Close()

	owner := uuid.New()
	pubsub := publisher.client.Subscribe(ctx, Channel(owner))
	defer pubsub.Close()
	_, err = pubsub.Receive(ctx)
	require.NoError(t, err)

	n := &domain.Notification{
		ID:        9,
		OwnerID:   owner,
		ShortCode: "abc123",
		Type:      domain.NotificationLinkExpired,
		Message:   "Link abc123 expired",
	}
	require.NoError(t, publisher.Publish(ctx, n))

	msg, err := pubsub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "shortlinks:notifications:"+owner.String(), msg.Channel)

	var got domain.Notification
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, n.ID, got.ID)
	assert.Equal(t, domain.NotificationLinkExpired, got.Type)
}

func TestNewRedisPublisher_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := NewRedisPublisher(ctx, "127.0.0.1:1")
	assert.Error(t, err)
}
