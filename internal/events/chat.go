package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/cory-johannsen/lootable/internal/host"
)

// ChatPublisher posts GM chat summaries to a Redis channel for the host to
// whisper. It implements host.ChatSink.
type ChatPublisher struct {
	client  redis.UniversalClient
	channel string
}

// NewChatPublisher builds a ChatPublisher for channel.
func NewChatPublisher(client redis.UniversalClient, channel string) *ChatPublisher {
	return &ChatPublisher{client: client, channel: channel}
}

// Post implements host.ChatSink.
func (c *ChatPublisher) Post(ctx context.Context, msg host.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding chat message: %w", err)
	}
	if err := c.client.Publish(ctx, c.channel, data).Err(); err != nil {
		return fmt.Errorf("publishing chat message: %w", err)
	}
	return nil
}
