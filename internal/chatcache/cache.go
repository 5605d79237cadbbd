// Package chatcache keeps the most recent messages of each chat room in a
// Redis sorted set scored by message id. It is a read accelerator for the
// first page of a room; the message table stays authoritative.
package chatcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/UMC-MyFit/my-fit-back-sub000/internal/model"
)

// DefaultSize is how many messages a room keeps after every append. It is
// also the floor: a smaller window could not fill a first page.
const DefaultSize = 20

// ErrCorruptEntry is returned by Recent when a cached entry does not decode.
var ErrCorruptEntry = errors.New("chatcache: corrupt entry")

type MessageCache interface {
	Append(ctx context.Context, msg *model.Message) error
	// Recent returns the cached window in ascending id order. An empty slice is a miss.
	Recent(ctx context.Context, roomID int64) ([]*model.Message, error)
}

// RoomKey is the sorted set key of a room.
func RoomKey(roomID int64) string {
	return fmt.Sprintf("chat:room:%d", roomID)
}

// RedisCache stores one JSON-encoded message per member, scored by its id.
// Appends that land out of commit order still read back sorted.
type RedisCache struct {
	client *redis.Client
	size   int
	ttl    time.Duration

	hits    atomic.Int64
	misses  atomic.Int64
	appends atomic.Int64
}

// NewRedisCache builds the cache. size below DefaultSize is raised to
// DefaultSize; ttl 0 disables expiry.
func NewRedisCache(client *redis.Client, size int, ttl time.Duration) *RedisCache {
	if size < DefaultSize {
		size = DefaultSize
	}
	return &RedisCache{client: client, size: size, ttl: ttl}
}

func (c *RedisCache) Size() int { return c.size }

// Append adds msg and drops everything below the newest Size ids in one
// MULTI/EXEC.
func (c *RedisCache) Append(ctx context.Context, msg *model.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	key := RoomKey(msg.RoomID)
	pipe := c.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(msg.ID), Member: payload})
	c.trim(ctx, pipe, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	c.appends.Add(1)
	return nil
}

func (c *RedisCache) trim(ctx context.Context, pipe redis.Pipeliner, key string) {
	pipe.ZRemRangeByRank(ctx, key, 0, int64(-c.size-1))
	if c.ttl > 0 {
		pipe.Expire(ctx, key, c.ttl)
	}
}

func (c *RedisCache) Recent(ctx context.Context, roomID int64) ([]*model.Message, error) {
	raw, err := c.client.ZRange(ctx, RoomKey(roomID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		c.misses.Add(1)
		return nil, nil
	}
	out := make([]*model.Message, 0, len(raw))
	for _, s := range raw {
		var m model.Message
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			c.misses.Add(1)
			return nil, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
		}
		out = append(out, &m)
	}
	c.hits.Add(1)
	return out, nil
}

// Invalidate drops the cached window of a room.
func (c *RedisCache) Invalidate(ctx context.Context, roomID int64) error {
	return c.client.Del(ctx, RoomKey(roomID)).Err()
}

// Warm replaces the cached window with the newest Size of msgs.
func (c *RedisCache) Warm(ctx context.Context, roomID int64, msgs []*model.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	members := make([]redis.Z, 0, len(msgs))
	for _, m := range msgs {
		payload, err := json.Marshal(m)
		if err != nil {
			return err
		}
		members = append(members, redis.Z{Score: float64(m.ID), Member: payload})
	}
	key := RoomKey(roomID)
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.ZAdd(ctx, key, members...)
	c.trim(ctx, pipe, key)
	_, err := pipe.Exec(ctx)
	return err
}

// ResetCounters clears the hit, miss and append counters.
func (c *RedisCache) ResetCounters() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.appends.Store(0)
}

// Counters reports cache effectiveness since the last reset.
func (c *RedisCache) Counters() Counters {
	return Counters{Hits: c.hits.Load(), Misses: c.misses.Load(), Appends: c.appends.Load()}
}

type Counters struct {
	Hits    int64
	Misses  int64
	Appends int64
}
