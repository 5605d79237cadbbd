package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/UMC-MyFit/my-fit-back-sub000/internal/model"
)

type InterestRepository interface {
	WithTx(tx *gorm.DB) InterestRepository
	Create(ctx context.Context, senderID, recipientID model.ServiceID) (*model.Interest, error)
	// Delete returns the number of removed edges.
	Delete(ctx context.Context, senderID, recipientID model.ServiceID) (int64, error)
	DeleteBetween(ctx context.Context, a, b model.ServiceID) error
	Exists(ctx context.Context, senderID, recipientID model.ServiceID) (bool, error)
	ListSent(ctx context.Context, senderID model.ServiceID, cursor Cursor, limit int) ([]*model.Interest, error)
	ListReceived(ctx context.Context, recipientID model.ServiceID, cursor Cursor, limit int) ([]*model.Interest, error)
	CountReceived(ctx context.Context, recipientID model.ServiceID) (int64, error)
}

type interestRepository struct {
	db *gorm.DB
}

func NewInterestRepository(db *gorm.DB) InterestRepository { return &interestRepository{db: db} }

func (r *interestRepository) WithTx(tx *gorm.DB) InterestRepository { return &interestRepository{db: tx} }

func (r *interestRepository) Create(ctx context.Context, senderID, recipientID model.ServiceID) (*model.Interest, error) {
	in := &model.Interest{SenderID: senderID, RecipientID: recipientID}
	// 중복은 unique index 가 막는다
	if err := r.db.WithContext(ctx).Create(in).Error; err != nil {
		return nil, err
	}
	return in, nil
}

func (r *interestRepository) Delete(ctx context.Context, senderID, recipientID model.ServiceID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("sender_id = ? AND recipient_id = ?", senderID, recipientID).
		Delete(&model.Interest{})
	return res.RowsAffected, res.Error
}

func (r *interestRepository) DeleteBetween(ctx context.Context, a, b model.ServiceID) error {
	return r.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)", a, b, b, a).
		Delete(&model.Interest{}).Error
}

func (r *interestRepository) Exists(ctx context.Context, senderID, recipientID model.ServiceID) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Interest{}).
		Where("sender_id = ? AND recipient_id = ?", senderID, recipientID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *interestRepository) ListSent(ctx context.Context, senderID model.ServiceID, cursor Cursor, limit int) ([]*model.Interest, error) {
	var res []*model.Interest
	err := newestFirst(r.db.WithContext(ctx).Where("sender_id = ?", senderID), "id", cursor, limit).Find(&res).Error
	return res, err
}

func (r *interestRepository) ListReceived(ctx context.Context, recipientID model.ServiceID, cursor Cursor, limit int) ([]*model.Interest, error) {
	var res []*model.Interest
	err := newestFirst(r.db.WithContext(ctx).Where("recipient_id = ?", recipientID), "id", cursor, limit).Find(&res).Error
	return res, err
}

func (r *interestRepository) CountReceived(ctx context.Context, recipientID model.ServiceID) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Interest{}).Where("recipient_id = ?", recipientID).Count(&cnt).Error
	return cnt, err
}
