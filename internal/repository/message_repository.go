package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/UMC-MyFit/my-fit-back-sub000/internal/model"
)

// MessageRepository is the append-only durable message log.
type MessageRepository interface {
	WithTx(tx *gorm.DB) MessageRepository
	Create(ctx context.Context, msg *model.Message) error
	// ListBefore returns up to limit messages with id < cursor, newest first.
	ListBefore(ctx context.Context, roomID int64, cursor Cursor, limit int) ([]*model.Message, error)
	LatestByRooms(ctx context.Context, roomIDs []int64) (map[int64]*model.Message, error)
	// CountSince counts messages in room newer than since that were not sent by exclude.
	CountSince(ctx context.Context, roomID int64, exclude model.ServiceID, since time.Time) (int64, error)
}

type messageRepository struct{ db *gorm.DB }

func NewMessageRepository(db *gorm.DB) MessageRepository { return &messageRepository{db: db} }

func (r *messageRepository) WithTx(tx *gorm.DB) MessageRepository { return &messageRepository{db: tx} }

func (r *messageRepository) Create(ctx context.Context, msg *model.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *messageRepository) ListBefore(ctx context.Context, roomID int64, cursor Cursor, limit int) ([]*model.Message, error) {
	var res []*model.Message
	err := newestFirst(r.db.WithContext(ctx).Where("room_id = ?", roomID), "id", cursor, limit).Find(&res).Error
	return res, err
}

func (r *messageRepository) LatestByRooms(ctx context.Context, roomIDs []int64) (map[int64]*model.Message, error) {
	out := make(map[int64]*model.Message, len(roomIDs))
	if len(roomIDs) == 0 {
		return out, nil
	}
	db := r.db.WithContext(ctx)
	latest := db.Model(&model.Message{}).Select("MAX(id)").Where("room_id IN ?", roomIDs).Group("room_id")
	var rows []*model.Message
	if err := db.Where("id IN (?)", latest).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, m := range rows {
		out[m.RoomID] = m
	}
	return out, nil
}

func (r *messageRepository) CountSince(ctx context.Context, roomID int64, exclude model.ServiceID, since time.Time) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("room_id = ? AND sender_id <> ? AND created_at > ?", roomID, exclude, since).
		Count(&cnt).Error
	return cnt, err
}
