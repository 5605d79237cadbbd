package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/UMC-MyFit/my-fit-back-sub000/internal/chatcache"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/model"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/realtime"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/repository"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/apperr"
)

func (e *env) openRoom(t *testing.T, a, b model.ServiceID) int64 {
	t.Helper()
	rc, err := e.chat.CheckOrCreateRoom(context.Background(), a, b)
	require.NoError(t, err)
	return rc.ChattingRoomID
}

func (e *env) send(t *testing.T, room int64, from model.ServiceID, n int) []*model.Message {
	t.Helper()
	out := make([]*model.Message, n)
	for i := range out {
		m, err := e.chat.SendMessage(context.Background(), SendMessageInput{RoomID: room, SenderID: from, Text: fmt.Sprintf("msg %d", i)})
		require.NoError(t, err)
		out[i] = m
	}
	return out
}

func TestCheckOrCreateRoom_IsIdempotentPerPair(t *testing.T) {
	e := newEnv(t)
	ids := e.seed(t, 2)
	ctx := context.Background()

	first, err := e.chat.CheckOrCreateRoom(ctx, ids[0], ids[1])
	require.NoError(t, err)
	assert.True(t, first.IsNew)

	again, err := e.chat.CheckOrCreateRoom(ctx, ids[1], ids[0])
	require.NoError(t, err)
	assert.False(t, again.IsNew)
	assert.Equal(t, first.ChattingRoomID, again.ChattingRoomID)

	_, err = e.chat.CheckOrCreateRoom(ctx, ids[0], ids[0])
	assert.ErrorIs(t, err, ErrSelfChat)
	_, err = e.chat.CheckOrCreateRoom(ctx, ids[0], 9999)
	assertKind(t, err, apperr.KindNotFound)
}

func TestCheckOrCreateRoom_ConcurrentCallersShareOneRoom(t *testing.T) {
	e := newEnv(t)
	ids := e.seed(t, 2)
	ctx := context.Background()

	const callers = 2
	results := make([]*RoomCheck, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			me, other := ids[i%2], ids[(i+1)%2]
			results[i], errs[i] = e.chat.CheckOrCreateRoom(ctx, me, other)
		}(i)
	}
	wg.Wait()

	created := 0
	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].ChattingRoomID, results[i].ChattingRoomID)
		if results[i].IsNew {
			created++
		}
	}
	assert.Equal(t, 1, created)

	var rooms int64
	require.NoError(t, e.db.Model(&model.ChatRoom{}).Count(&rooms).Error)
	assert.EqualValues(t, 1, rooms)
}

// lateRooms misses the first pair lookups, as a caller does when another
// transaction commits the same room between its lookup and its insert.
type lateRooms struct {
	repository.ChatRoomRepository
	state *lateState
}

type lateState struct {
	mu      sync.Mutex
	misses  int
	creates int
}

func (r *lateRooms) WithTx(tx *gorm.DB) repository.ChatRoomRepository {
	return &lateRooms{ChatRoomRepository: r.ChatRoomRepository.WithTx(tx), state: r.state}
}

func (r *lateRooms) FindByPair(ctx context.Context, a, b model.ServiceID) (*model.ChatRoom, error) {
	r.state.mu.Lock()
	miss := r.state.misses > 0
	if miss {
		r.state.misses--
	}
	r.state.mu.Unlock()
	if miss {
		return nil, gorm.ErrRecordNotFound
	}
	return r.ChatRoomRepository.FindByPair(ctx, a, b)
}

func (r *lateRooms) CreateWithParticipants(ctx context.Context, a, b model.ServiceID, now time.Time) (*model.ChatRoom, error) {
	r.state.mu.Lock()
	r.state.creates++
	r.state.mu.Unlock()
	return r.ChatRoomRepository.CreateWithParticipants(ctx, a, b, now)
}

func TestCheckOrCreateRoom_LosingInsertReturnsWinnersRoom(t *testing.T) {
	e := newEnv(t)
	ids := e.seed(t, 2)
	ctx := context.Background()

	winner, err := e.chat.CheckOrCreateRoom(ctx, ids[0], ids[1])
	require.NoError(t, err)
	require.True(t, winner.IsNew)

	// the unlocked fast path and the locked lookup both miss
	state := &lateState{misses: 2}
	rooms := &lateRooms{ChatRoomRepository: repository.NewChatRoomRepository(e.db), state: state}
	loser := NewChatService(e.db, rooms, repository.NewMessageRepository(e.db), e.services, e.cache, e.sink)

	got, err := loser.CheckOrCreateRoom(ctx, ids[1], ids[0])
	require.NoError(t, err)
	assert.False(t, got.IsNew)
	assert.Equal(t, winner.ChattingRoomID, got.ChattingRoomID)
	assert.Equal(t, 1, state.creates, "the insert must have been attempted and rejected")

	var n int64
	require.NoError(t, e.db.Model(&model.ChatRoom{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
	require.NoError(t, e.db.Model(&model.Chat{}).Count(&n).Error)
	assert.EqualValues(t, 2, n)
}

func TestSendMessage_Validation(t *testing.T) {
	e := newEnv(t)
	ids := e.seed(t, 3)
	room := e.openRoom(t, ids[0], ids[1])
	ctx := context.Background()

	_, err := e.chat.SendMessage(ctx, SendMessageInput{RoomID: room, SenderID: ids[0], Text: "   "})
	assert.ErrorIs(t, err, ErrEmptyMessage)
	_, err = e.chat.SendMessage(ctx, SendMessageInput{RoomID: room, SenderID: ids[0], Text: "hi", Type: "VOICE"})
	assert.ErrorIs(t, err, ErrInvalidMsgType)
	_, err = e.chat.SendMessage(ctx, SendMessageInput{RoomID: 9999, SenderID: ids[0], Text: "hi"})
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = e.chat.SendMessage(ctx, SendMessageInput{RoomID: room, SenderID: ids[2], Text: "hi"})
	assert.ErrorIs(t, err, ErrNotRoomMember)

	require.NoError(t, e.db.Model(&model.Service{}).Where("id = ?", ids[1]).Update("name", " ").Error)
	_, err = e.chat.SendMessage(ctx, SendMessageInput{RoomID: room, SenderID: ids[1], Text: "hi"})
	assert.ErrorIs(t, err, ErrSenderNameMissing)
}

func TestSendMessage_CapturesNameAndPublishes(t *testing.T) {
	e := newEnv(t)
	ids := e.seed(t, 2)
	room := e.openRoom(t, ids[0], ids[1])

	msg := e.send(t, room, ids[0], 1)[0]
	assert.Equal(t, "user0", msg.SenderName)
	assert.Equal(t, model.MessageText, msg.Type)

	events := e.sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, realtime.EventMessage, events[0].Type)
	assert.Equal(t, room, events[0].RoomID)
	assert.Equal(t, msg.ID, events[0].Message.ID)

	cached, err := e.cache.Recent(context.Background(), room)
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, msg.ID, cached[0].ID)
}

func TestGetMessages_PagesAscendingFromCacheThenStore(t *testing.T) {
	e := newEnv(t)
	ids := e.seed(t, 2)
	room := e.openRoom(t, ids[0], ids[1])
	sent := e.send(t, room, ids[0], 25)
	ctx := context.Background()

	first, err := e.chat.GetMessages(ctx, room, ids[1], nil)
	require.NoError(t, err)
	require.Len(t, first.Messages, MessagePageSize)
	assert.True(t, first.HasNext)
	require.NotNil(t, first.NextCursor)
	assert.Equal(t, sent[5].ID, *first.NextCursor)
	for i, m := range first.Messages {
		assert.Equal(t, sent[5+i].ID, m.ID)
	}

	rest, err := e.chat.GetMessages(ctx, room, ids[1], first.NextCursor)
	require.NoError(t, err)
	require.Len(t, rest.Messages, 5)
	assert.False(t, rest.HasNext)
	assert.Nil(t, rest.NextCursor)
	assert.Equal(t, sent[0].ID, rest.Messages[0].ID)
	assert.Equal(t, sent[4].ID, rest.Messages[4].ID)
}

func TestGetMessages_CacheAppendsOutOfOrderStillPageAscending(t *testing.T) {
	e := newEnv(t)
	ids := e.seed(t, 2)
	room := e.openRoom(t, ids[0], ids[1])
	sent := e.send(t, room, ids[0], MessagePageSize+2)
	ctx := context.Background()

	// replay the newest window into the cache in a scrambled order
	require.NoError(t, e.cache.Invalidate(ctx, room))
	window := sent[2:]
	for i := len(window) - 1; i >= 0; i -= 2 {
		require.NoError(t, e.cache.Append(ctx, window[i]))
	}
	for i := len(window) - 2; i >= 0; i -= 2 {
		require.NoError(t, e.cache.Append(ctx, window[i]))
	}

	first, err := e.chat.GetMessages(ctx, room, ids[1], nil)
	require.NoError(t, err)
	require.Len(t, first.Messages, MessagePageSize)
	for i, m := range first.Messages {
		assert.Equal(t, window[i].ID, m.ID)
	}
	require.NotNil(t, first.NextCursor)
	assert.Equal(t, sent[2].ID, *first.NextCursor)

	rest, err := e.chat.GetMessages(ctx, room, ids[1], first.NextCursor)
	require.NoError(t, err)
	require.Len(t, rest.Messages, 2)
	assert.Equal(t, sent[0].ID, rest.Messages[0].ID)
	assert.Equal(t, sent[1].ID, rest.Messages[1].ID)
}

func TestGetMessages_DeeperCacheServesOnePage(t *testing.T) {
	e := newEnv(t)
	ids := e.seed(t, 2)
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{Addr: e.mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	deep := chatcache.NewRedisCache(client, 30, 0)
	svc := NewChatService(e.db, repository.NewChatRoomRepository(e.db), repository.NewMessageRepository(e.db), e.services, deep, nil)
	rc, err := svc.CheckOrCreateRoom(ctx, ids[0], ids[1])
	require.NoError(t, err)

	sent := make([]*model.Message, 35)
	for i := range sent {
		sent[i], err = svc.SendMessage(ctx, SendMessageInput{RoomID: rc.ChattingRoomID, SenderID: ids[0], Text: fmt.Sprintf("msg %d", i)})
		require.NoError(t, err)
	}
	cached, err := deep.Recent(ctx, rc.ChattingRoomID)
	require.NoError(t, err)
	require.Len(t, cached, 30)

	first, err := svc.GetMessages(ctx, rc.ChattingRoomID, ids[1], nil)
	require.NoError(t, err)
	require.Len(t, first.Messages, MessagePageSize)
	assert.True(t, first.HasNext)
	assert.Equal(t, sent[15].ID, first.Messages[0].ID)
	assert.Equal(t, sent[34].ID, first.Messages[MessagePageSize-1].ID)
	require.NotNil(t, first.NextCursor)
	assert.Equal(t, sent[15].ID, *first.NextCursor)

	rest, err := svc.GetMessages(ctx, rc.ChattingRoomID, ids[1], first.NextCursor)
	require.NoError(t, err)
	require.Len(t, rest.Messages, 15)
	assert.False(t, rest.HasNext)
	assert.Equal(t, sent[0].ID, rest.Messages[0].ID)
	assert.Equal(t, sent[14].ID, rest.Messages[14].ID)
}

func TestGetMessages_FallsBackOnCacheMissAndCorruption(t *testing.T) {
	e := newEnv(t)
	ids := e.seed(t, 2)
	room := e.openRoom(t, ids[0], ids[1])
	sent := e.send(t, room, ids[0], 3)
	ctx := context.Background()

	e.mr.Del(chatcache.RoomKey(room))
	got, err := e.chat.GetMessages(ctx, room, ids[0], nil)
	require.NoError(t, err)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, sent[0].ID, got.Messages[0].ID)
	assert.False(t, got.HasNext)

	_, err = e.mr.ZAdd(chatcache.RoomKey(room), 0, "{not json")
	require.NoError(t, err)
	got, err = e.chat.GetMessages(ctx, room, ids[0], nil)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 3)

	e.mr.Close()
	got, err = e.chat.GetMessages(ctx, room, ids[0], nil)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 3)
}

func TestGetMessages_RequiresMembership(t *testing.T) {
	e := newEnv(t)
	ids := e.seed(t, 3)
	room := e.openRoom(t, ids[0], ids[1])

	_, err := e.chat.GetMessages(context.Background(), room, ids[2], nil)
	assert.ErrorIs(t, err, ErrRoomForbidden)
	_, err = e.chat.GetMessages(context.Background(), 9999, ids[0], nil)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestSendMessage_SucceedsWithoutRedis(t *testing.T) {
	e := newEnv(t)
	ids := e.seed(t, 2)
	room := e.openRoom(t, ids[0], ids[1])
	e.mr.Close()

	msg := e.send(t, room, ids[0], 1)[0]
	assert.NotZero(t, msg.ID)
	assert.Len(t, e.sink.all(), 1)
}

func TestGetChattingRooms_VisibleOnlyAfterFirstMessage(t *testing.T) {
	e := newEnv(t)
	ids := e.seed(t, 3)
	ctx := context.Background()
	r1 := e.openRoom(t, ids[0], ids[1])
	r2 := e.openRoom(t, ids[0], ids[2])

	page, err := e.chat.GetChattingRooms(ctx, ids[0], nil)
	require.NoError(t, err)
	assert.Empty(t, page.ChattingRooms)

	e.send(t, r1, ids[1], 1)
	e.send(t, r2, ids[0], 1)

	page, err = e.chat.GetChattingRooms(ctx, ids[0], nil)
	require.NoError(t, err)
	require.Len(t, page.ChattingRooms, 2)
	byRoom := map[int64]RoomSummary{}
	for _, s := range page.ChattingRooms {
		byRoom[s.ChattingRoomID] = s
	}
	assert.Equal(t, ids[1], byRoom[r1].Partner.ServiceID)
	assert.Equal(t, "user1", byRoom[r1].Partner.Name)
	assert.True(t, byRoom[r1].HasUnread)
	require.NotNil(t, byRoom[r2].LastMessage)
	assert.False(t, byRoom[r2].HasUnread)
	assert.Nil(t, page.NextCursor)

	require.NoError(t, e.chat.MarkRoomRead(ctx, r1, ids[0]))
	page, err = e.chat.GetChattingRooms(ctx, ids[0], nil)
	require.NoError(t, err)
	for _, s := range page.ChattingRooms {
		assert.False(t, s.HasUnread)
	}
}

func TestMarkRoomRead_Errors(t *testing.T) {
	e := newEnv(t)
	ids := e.seed(t, 3)
	room := e.openRoom(t, ids[0], ids[1])

	assert.ErrorIs(t, e.chat.MarkRoomRead(context.Background(), room, ids[2]), ErrRoomForbidden)
	assert.ErrorIs(t, e.chat.MarkRoomRead(context.Background(), 9999, ids[0]), ErrRoomNotFound)
}
