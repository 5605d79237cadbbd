package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/UMC-MyFit/my-fit-back-sub000/internal/model"
)

type NotificationRepository interface {
	WithTx(tx *gorm.DB) NotificationRepository
	Create(ctx context.Context, n *model.Notification) error
	FindByID(ctx context.Context, id int64) (*model.Notification, error)
	List(ctx context.Context, receiverID model.ServiceID, cursor Cursor, limit int) ([]*model.Notification, error)
	MarkRead(ctx context.Context, id int64) error
	CountUnread(ctx context.Context, receiverID model.ServiceID) (int64, error)
}

type notificationRepository struct{ db *gorm.DB }

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) WithTx(tx *gorm.DB) NotificationRepository {
	return &notificationRepository{db: tx}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepository) FindByID(ctx context.Context, id int64) (*model.Notification, error) {
	var n model.Notification
	if err := r.db.WithContext(ctx).First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) List(ctx context.Context, receiverID model.ServiceID, cursor Cursor, limit int) ([]*model.Notification, error) {
	var res []*model.Notification
	err := newestFirst(r.db.WithContext(ctx).Where("receiver_id = ?", receiverID), "id", cursor, limit).Find(&res).Error
	return res, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&model.Notification{}).Where("id = ?", id).Update("is_read", true).Error
}

func (r *notificationRepository) CountUnread(ctx context.Context, receiverID model.ServiceID) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("receiver_id = ? AND is_read = ?", receiverID, false).
		Count(&cnt).Error
	return cnt, err
}
