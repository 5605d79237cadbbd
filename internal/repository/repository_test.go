package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/UMC-MyFit/my-fit-back-sub000/internal/model"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func newServices(t *testing.T, db *gorm.DB, n int) []model.ServiceID {
	t.Helper()
	repo := NewServiceRepository(db)
	ids := make([]model.ServiceID, n)
	for i := range ids {
		s := &model.Service{Name: fmt.Sprintf("svc%d", i)}
		require.NoError(t, repo.CreateUser(context.Background(), &model.User{Email: fmt.Sprintf("s%d@test.io", i), PasswordHash: "x"}, s))
		ids[i] = s.ID
	}
	return ids
}

func TestServiceRepository_LockPairCountsExisting(t *testing.T) {
	db := newTestDB(t)
	ids := newServices(t, db, 2)
	repo := NewServiceRepository(db)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		n, err := repo.WithTx(tx).LockPair(ctx, ids[1], ids[0])
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = repo.WithTx(tx).LockPair(ctx, ids[0], 9999)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		return nil
	})
	require.NoError(t, err)
}

func TestInterestRepository_CursorPaging(t *testing.T) {
	db := newTestDB(t)
	ids := newServices(t, db, 6)
	repo := NewInterestRepository(db)
	ctx := context.Background()

	for _, id := range ids[1:] {
		_, err := repo.Create(ctx, id, ids[0])
		require.NoError(t, err)
	}

	first, err := repo.ListReceived(ctx, ids[0], nil, 3)
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Greater(t, first[0].ID, first[1].ID)

	cursor := first[len(first)-1].ID
	rest, err := repo.ListReceived(ctx, ids[0], &cursor, 3)
	require.NoError(t, err)
	assert.Len(t, rest, 2)
	for _, in := range rest {
		assert.Less(t, in.ID, cursor)
	}

	cnt, err := repo.CountReceived(ctx, ids[0])
	require.NoError(t, err)
	assert.EqualValues(t, 5, cnt)
}

func TestInterestRepository_DeleteBetween(t *testing.T) {
	db := newTestDB(t)
	ids := newServices(t, db, 2)
	repo := NewInterestRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, ids[0], ids[1])
	require.NoError(t, err)
	_, err = repo.Create(ctx, ids[1], ids[0])
	require.NoError(t, err)

	require.NoError(t, repo.DeleteBetween(ctx, ids[0], ids[1]))
	for _, pair := range [][2]model.ServiceID{{ids[0], ids[1]}, {ids[1], ids[0]}} {
		ok, err := repo.Exists(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestNetworkRepository_PairIsUnordered(t *testing.T) {
	db := newTestDB(t)
	ids := newServices(t, db, 2)
	repo := NewNetworkRepository(db)
	ctx := context.Background()

	n, err := repo.Create(ctx, ids[1], ids[0])
	require.NoError(t, err)

	_, err = repo.Create(ctx, ids[0], ids[1])
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))

	found, err := repo.FindBetween(ctx, ids[0], ids[1])
	require.NoError(t, err)
	assert.Equal(t, n.ID, found.ID)
}

func TestNetworkRepository_TransitionOnlyFromPending(t *testing.T) {
	db := newTestDB(t)
	ids := newServices(t, db, 2)
	repo := NewNetworkRepository(db)
	ctx := context.Background()

	n, err := repo.Create(ctx, ids[0], ids[1])
	require.NoError(t, err)

	rows, err := repo.TransitionFromPending(ctx, n.ID, model.NetworkAccepted)
	require.NoError(t, err)
	assert.EqualValues(t, 1, rows)

	rows, err = repo.TransitionFromPending(ctx, n.ID, model.NetworkRejected)
	require.NoError(t, err)
	assert.EqualValues(t, 0, rows)

	got, err := repo.FindByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, model.NetworkAccepted, got.Status)
}

func TestChatRoomRepository_VisibleRoomsAndPartners(t *testing.T) {
	db := newTestDB(t)
	ids := newServices(t, db, 3)
	rooms := NewChatRoomRepository(db)
	ctx := context.Background()
	now := time.Now()

	visible, err := rooms.CreateWithParticipants(ctx, ids[0], ids[1], now)
	require.NoError(t, err)
	_, err = rooms.CreateWithParticipants(ctx, ids[0], ids[2], now)
	require.NoError(t, err)
	require.NoError(t, rooms.MarkVisible(ctx, visible.ID))

	chats, err := rooms.ListVisible(ctx, ids[0], nil, 10)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, visible.ID, chats[0].RoomID)

	partners, err := rooms.Partners(ctx, []int64{visible.ID}, ids[0])
	require.NoError(t, err)
	assert.Equal(t, ids[1], partners[visible.ID].ServiceID)

	_, err = rooms.CreateWithParticipants(ctx, ids[1], ids[0], now)
	assert.True(t, database.IsUniqueViolation(err))
}

func TestMessageRepository_ListBeforeAndLatest(t *testing.T) {
	db := newTestDB(t)
	ids := newServices(t, db, 2)
	rooms := NewChatRoomRepository(db)
	msgs := NewMessageRepository(db)
	ctx := context.Background()

	room, err := rooms.CreateWithParticipants(ctx, ids[0], ids[1], time.Now())
	require.NoError(t, err)

	var last *model.Message
	for i := 0; i < 5; i++ {
		last = &model.Message{RoomID: room.ID, SenderID: ids[0], SenderName: "svc0", DetailMessage: fmt.Sprint(i), Type: model.MessageText}
		require.NoError(t, msgs.Create(ctx, last))
	}

	page, err := msgs.ListBefore(ctx, room.ID, &last.ID, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "3", page[0].DetailMessage)
	assert.Equal(t, "2", page[1].DetailMessage)

	latest, err := msgs.LatestByRooms(ctx, []int64{room.ID})
	require.NoError(t, err)
	assert.Equal(t, last.ID, latest[room.ID].ID)
}

func TestCoffeechatRepository_Transition(t *testing.T) {
	db := newTestDB(t)
	repo := NewCoffeechatRepository(db)
	ctx := context.Background()

	c := &model.Coffeechat{RoomID: 1, RequesterID: 1, ReceiverID: 2, Title: "t", Place: "p", ScheduledAt: time.Now().Add(time.Hour), Status: model.CoffeechatPending}
	require.NoError(t, repo.Create(ctx, c))

	active, err := repo.FindActiveInRoom(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, c.ID, active.ID)

	pending := []model.CoffeechatStatus{model.CoffeechatPending}
	rows, err := repo.Transition(ctx, c.ID, pending, map[string]any{"status": model.CoffeechatRejected})
	require.NoError(t, err)
	assert.EqualValues(t, 1, rows)

	rows, err = repo.Transition(ctx, c.ID, pending, map[string]any{"status": model.CoffeechatAccepted})
	require.NoError(t, err)
	assert.EqualValues(t, 0, rows)

	_, err = repo.FindActiveInRoom(ctx, 1)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
