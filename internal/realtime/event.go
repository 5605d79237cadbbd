// Package realtime fans chat events out to websocket subscribers through
// Redis pub/sub, so any server process can deliver to any room.
package realtime

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/UMC-MyFit/my-fit-back-sub000/internal/model"
)

type EventType string

const (
	EventMessage    EventType = "message"
	EventCoffeechat EventType = "coffeechat"
)

// Event is the payload published to a room channel.
type Event struct {
	Type       EventType         `json:"type"`
	RoomID     int64             `json:"chatting_room_id"`
	Message    *model.Message    `json:"message,omitempty"`
	Coffeechat *model.Coffeechat `json:"coffeechat,omitempty"`
}

// Channel is the pub/sub channel name of a room.
func Channel(roomID int64) string {
	return fmt.Sprintf("room:%d", roomID)
}

// Publisher delivers a serialized event to a room channel. At most once.
type Publisher interface {
	Publish(ctx context.Context, roomID int64, payload []byte) error
}

// Subscriber opens a subscription on a room channel.
type Subscriber interface {
	Subscribe(ctx context.Context, roomID int64) *redis.PubSub
}

type RedisBroker struct {
	client *redis.Client
}

func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

func (b *RedisBroker) Publish(ctx context.Context, roomID int64, payload []byte) error {
	return b.client.Publish(ctx, Channel(roomID), payload).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context, roomID int64) *redis.PubSub {
	return b.client.Subscribe(ctx, Channel(roomID))
}
