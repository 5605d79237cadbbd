package chatcache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UMC-MyFit/my-fit-back-sub000/internal/model"
)

func newCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client, 0, ttl), mr
}

func msg(room, id int64) *model.Message {
	return &model.Message{
		ID:            id,
		RoomID:        room,
		SenderID:      7,
		SenderName:    "kim",
		DetailMessage: fmt.Sprintf("hello %d", id),
		Type:          model.MessageText,
		CreatedAt:     time.Date(2024, 5, 1, 12, 0, int(id), 0, time.UTC),
	}
}

func TestAppendTrimsToLastTwenty(t *testing.T) {
	c, mr := newCache(t, 0)
	ctx := context.Background()

	for i := int64(1); i <= 25; i++ {
		require.NoError(t, c.Append(ctx, msg(3, i)))
	}

	members, err := mr.ZMembers(RoomKey(3))
	require.NoError(t, err)
	assert.Len(t, members, DefaultSize)

	got, err := c.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, DefaultSize)
	assert.EqualValues(t, 6, got[0].ID)
	assert.EqualValues(t, 25, got[len(got)-1].ID)
}

func TestRecentIsAscendingWhenAppendsLandOutOfOrder(t *testing.T) {
	c, _ := newCache(t, 0)
	ctx := context.Background()

	for _, id := range []int64{2, 1, 4, 3} {
		require.NoError(t, c.Append(ctx, msg(8, id)))
	}

	got, err := c.Recent(ctx, 8)
	require.NoError(t, err)
	require.Len(t, got, 4)
	for i, m := range got {
		assert.EqualValues(t, i+1, m.ID)
	}
}

func TestAppendOfOlderIdIntoFullWindowIsDropped(t *testing.T) {
	c, _ := newCache(t, 0)
	ctx := context.Background()

	for i := int64(2); i <= DefaultSize+1; i++ {
		require.NoError(t, c.Append(ctx, msg(6, i)))
	}
	// id 1 committed first but its append arrives last
	require.NoError(t, c.Append(ctx, msg(6, 1)))

	got, err := c.Recent(ctx, 6)
	require.NoError(t, err)
	require.Len(t, got, DefaultSize)
	assert.EqualValues(t, 2, got[0].ID)
	assert.EqualValues(t, DefaultSize+1, got[len(got)-1].ID)
}

func TestNewRedisCacheRaisesSizeToDefault(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: miniredis.RunT(t).Addr()})
	t.Cleanup(func() { _ = client.Close() })

	assert.Equal(t, DefaultSize, NewRedisCache(client, 0, 0).Size())
	assert.Equal(t, DefaultSize, NewRedisCache(client, 5, 0).Size())
	assert.Equal(t, 30, NewRedisCache(client, 30, 0).Size())
}

func TestRecentRoundTripsFields(t *testing.T) {
	c, _ := newCache(t, 0)
	ctx := context.Background()
	in := msg(1, 42)
	cid := int64(9)
	in.Type = model.MessageCoffeechat
	in.CoffeechatID = &cid

	require.NoError(t, c.Append(ctx, in))
	got, err := c.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)

	out := got[0]
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.SenderID, out.SenderID)
	assert.Equal(t, in.SenderName, out.SenderName)
	assert.Equal(t, in.DetailMessage, out.DetailMessage)
	assert.Equal(t, in.Type, out.Type)
	assert.Equal(t, *in.CoffeechatID, *out.CoffeechatID)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
}

func TestRecentEmptyIsMiss(t *testing.T) {
	c, _ := newCache(t, 0)
	got, err := c.Recent(context.Background(), 99)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.EqualValues(t, 1, c.Counters().Misses)
}

func TestRecentCorruptEntry(t *testing.T) {
	c, mr := newCache(t, 0)
	_, err := mr.ZAdd(RoomKey(5), 1, "{not json")
	require.NoError(t, err)

	_, err = c.Recent(context.Background(), 5)
	assert.True(t, errors.Is(err, ErrCorruptEntry))
}

func TestAppendSetsTTL(t *testing.T) {
	c, mr := newCache(t, time.Minute)
	require.NoError(t, c.Append(context.Background(), msg(2, 1)))
	assert.Equal(t, time.Minute, mr.TTL(RoomKey(2)))

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists(RoomKey(2)))
}

func TestWarmKeepsNewest(t *testing.T) {
	c, _ := newCache(t, 0)
	ctx := context.Background()
	msgs := make([]*model.Message, 0, 30)
	for i := int64(30); i >= 1; i-- {
		msgs = append(msgs, msg(4, i))
	}
	require.NoError(t, c.Warm(ctx, 4, msgs))

	got, err := c.Recent(ctx, 4)
	require.NoError(t, err)
	require.Len(t, got, DefaultSize)
	assert.EqualValues(t, 11, got[0].ID)
	assert.EqualValues(t, 30, got[len(got)-1].ID)

	require.NoError(t, c.Invalidate(ctx, 4))
	got, err = c.Recent(ctx, 4)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAppendFailsWhenRedisDown(t *testing.T) {
	c, mr := newCache(t, 0)
	mr.Close()
	assert.Error(t, c.Append(context.Background(), msg(1, 1)))
}
