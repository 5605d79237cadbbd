package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/UMC-MyFit/my-fit-back-sub000/internal/model"
)

type CoffeechatRepository interface {
	WithTx(tx *gorm.DB) CoffeechatRepository
	Create(ctx context.Context, c *model.Coffeechat) error
	FindByID(ctx context.Context, id int64) (*model.Coffeechat, error)
	LockByID(ctx context.Context, id int64) (*model.Coffeechat, error)
	// FindActiveInRoom returns the PENDING or ACCEPTED coffeechat of a room, if any.
	FindActiveInRoom(ctx context.Context, roomID int64) (*model.Coffeechat, error)
	// Transition applies fields only while status is one of from. Zero rows means
	// a concurrent caller got there first.
	Transition(ctx context.Context, id int64, from []model.CoffeechatStatus, fields map[string]any) (int64, error)
	ListUpcoming(ctx context.Context, me model.ServiceID, now time.Time) ([]*model.Coffeechat, error)
}

type coffeechatRepository struct{ db *gorm.DB }

func NewCoffeechatRepository(db *gorm.DB) CoffeechatRepository { return &coffeechatRepository{db: db} }

func (r *coffeechatRepository) WithTx(tx *gorm.DB) CoffeechatRepository {
	return &coffeechatRepository{db: tx}
}

func (r *coffeechatRepository) Create(ctx context.Context, c *model.Coffeechat) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *coffeechatRepository) FindByID(ctx context.Context, id int64) (*model.Coffeechat, error) {
	var c model.Coffeechat
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *coffeechatRepository) LockByID(ctx context.Context, id int64) (*model.Coffeechat, error) {
	var c model.Coffeechat
	if err := forUpdate(r.db.WithContext(ctx)).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *coffeechatRepository) FindActiveInRoom(ctx context.Context, roomID int64) (*model.Coffeechat, error) {
	var c model.Coffeechat
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND status IN ?", roomID, []model.CoffeechatStatus{model.CoffeechatPending, model.CoffeechatAccepted}).
		Order("id DESC").
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *coffeechatRepository) Transition(ctx context.Context, id int64, from []model.CoffeechatStatus, fields map[string]any) (int64, error) {
	if _, ok := fields["updated_at"]; !ok {
		fields["updated_at"] = time.Now()
	}
	res := r.db.WithContext(ctx).Model(&model.Coffeechat{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *coffeechatRepository) ListUpcoming(ctx context.Context, me model.ServiceID, now time.Time) ([]*model.Coffeechat, error) {
	var res []*model.Coffeechat
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_at >= ?", model.CoffeechatAccepted, now).
		Where("requester_id = ? OR receiver_id = ?", me, me).
		Order("scheduled_at ASC").
		Find(&res).Error
	return res, err
}
