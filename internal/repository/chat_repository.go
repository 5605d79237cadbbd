package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/UMC-MyFit/my-fit-back-sub000/internal/model"
)

// ChatRoomRepository stores rooms and their participant rows.
type ChatRoomRepository interface {
	WithTx(tx *gorm.DB) ChatRoomRepository
	FindByID(ctx context.Context, id int64) (*model.ChatRoom, error)
	LockByID(ctx context.Context, id int64) (*model.ChatRoom, error)
	FindByPair(ctx context.Context, a, b model.ServiceID) (*model.ChatRoom, error)
	// CreateWithParticipants inserts the room and one Chat row per side, both
	// stamped with now as last read time.
	CreateWithParticipants(ctx context.Context, a, b model.ServiceID, now time.Time) (*model.ChatRoom, error)
	MarkVisible(ctx context.Context, id int64) error
	FindParticipant(ctx context.Context, roomID int64, serviceID model.ServiceID) (*model.Chat, error)
	TouchLastRead(ctx context.Context, roomID int64, serviceID model.ServiceID, at time.Time) (int64, error)
	// ListVisible returns the caller's Chat rows for visible rooms, newest row first.
	ListVisible(ctx context.Context, serviceID model.ServiceID, cursor Cursor, limit int) ([]*model.Chat, error)
	// Partners maps room id to the participant row that is not serviceID.
	Partners(ctx context.Context, roomIDs []int64, serviceID model.ServiceID) (map[int64]*model.Chat, error)
}

type chatRoomRepository struct{ db *gorm.DB }

func NewChatRoomRepository(db *gorm.DB) ChatRoomRepository { return &chatRoomRepository{db: db} }

func (r *chatRoomRepository) WithTx(tx *gorm.DB) ChatRoomRepository {
	return &chatRoomRepository{db: tx}
}

func (r *chatRoomRepository) FindByID(ctx context.Context, id int64) (*model.ChatRoom, error) {
	var room model.ChatRoom
	if err := r.db.WithContext(ctx).First(&room, id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *chatRoomRepository) LockByID(ctx context.Context, id int64) (*model.ChatRoom, error) {
	var room model.ChatRoom
	if err := forUpdate(r.db.WithContext(ctx)).First(&room, id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *chatRoomRepository) FindByPair(ctx context.Context, a, b model.ServiceID) (*model.ChatRoom, error) {
	lo, hi := model.Pair(a, b)
	var room model.ChatRoom
	if err := r.db.WithContext(ctx).Where("pair_low = ? AND pair_high = ?", lo, hi).First(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *chatRoomRepository) CreateWithParticipants(ctx context.Context, a, b model.ServiceID, now time.Time) (*model.ChatRoom, error) {
	lo, hi := model.Pair(a, b)
	room := &model.ChatRoom{PairLow: lo, PairHigh: hi}
	db := r.db.WithContext(ctx)
	if err := db.Create(room).Error; err != nil {
		return nil, err
	}
	chats := []*model.Chat{
		{RoomID: room.ID, ServiceID: a, LastReadTime: now},
		{RoomID: room.ID, ServiceID: b, LastReadTime: now},
	}
	if err := db.Create(&chats).Error; err != nil {
		return nil, err
	}
	return room, nil
}

func (r *chatRoomRepository) MarkVisible(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&model.ChatRoom{}).
		Where("id = ? AND is_visible = ?", id, false).
		Update("is_visible", true).Error
}

func (r *chatRoomRepository) FindParticipant(ctx context.Context, roomID int64, serviceID model.ServiceID) (*model.Chat, error) {
	var c model.Chat
	if err := r.db.WithContext(ctx).Where("room_id = ? AND service_id = ?", roomID, serviceID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *chatRoomRepository) TouchLastRead(ctx context.Context, roomID int64, serviceID model.ServiceID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Chat{}).
		Where("room_id = ? AND service_id = ?", roomID, serviceID).
		Update("last_read_time", at)
	return res.RowsAffected, res.Error
}

func (r *chatRoomRepository) ListVisible(ctx context.Context, serviceID model.ServiceID, cursor Cursor, limit int) ([]*model.Chat, error) {
	var res []*model.Chat
	q := r.db.WithContext(ctx).
		Joins("JOIN chat_rooms ON chat_rooms.id = chats.room_id").
		Where("chats.service_id = ? AND chat_rooms.is_visible = ?", serviceID, true)
	err := newestFirst(q, "chats.id", cursor, limit).Find(&res).Error
	return res, err
}

func (r *chatRoomRepository) Partners(ctx context.Context, roomIDs []int64, serviceID model.ServiceID) (map[int64]*model.Chat, error) {
	out := make(map[int64]*model.Chat, len(roomIDs))
	if len(roomIDs) == 0 {
		return out, nil
	}
	var rows []*model.Chat
	if err := r.db.WithContext(ctx).
		Where("room_id IN ? AND service_id <> ?", roomIDs, serviceID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, c := range rows {
		out[c.RoomID] = c
	}
	return out, nil
}
