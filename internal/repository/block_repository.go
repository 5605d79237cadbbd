package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/UMC-MyFit/my-fit-back-sub000/internal/model"
)

type BlockRepository interface {
	WithTx(tx *gorm.DB) BlockRepository
	Create(ctx context.Context, blockerID, blockedID model.ServiceID) (*model.Block, error)
	Delete(ctx context.Context, blockerID, blockedID model.ServiceID) (int64, error)
	Exists(ctx context.Context, blockerID, blockedID model.ServiceID) (bool, error)
	// ExistsEither reports a block in either direction between a and b.
	ExistsEither(ctx context.Context, a, b model.ServiceID) (bool, error)
	List(ctx context.Context, blockerID model.ServiceID, cursor Cursor, limit int) ([]*model.Block, error)
}

type blockRepository struct{ db *gorm.DB }

func NewBlockRepository(db *gorm.DB) BlockRepository { return &blockRepository{db: db} }

func (r *blockRepository) WithTx(tx *gorm.DB) BlockRepository { return &blockRepository{db: tx} }

func (r *blockRepository) Create(ctx context.Context, blockerID, blockedID model.ServiceID) (*model.Block, error) {
	b := &model.Block{BlockerID: blockerID, BlockedID: blockedID}
	if err := r.db.WithContext(ctx).Create(b).Error; err != nil {
		return nil, err
	}
	return b, nil
}

func (r *blockRepository) Delete(ctx context.Context, blockerID, blockedID model.ServiceID) (int64, error) {
	res := r.db.WithContext(ctx).Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).Delete(&model.Block{})
	return res.RowsAffected, res.Error
}

func (r *blockRepository) Exists(ctx context.Context, blockerID, blockedID model.ServiceID) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Block{}).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Count(&cnt).Error
	return cnt > 0, err
}

func (r *blockRepository) ExistsEither(ctx context.Context, a, b model.ServiceID) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&cnt).Error
	return cnt > 0, err
}

func (r *blockRepository) List(ctx context.Context, blockerID model.ServiceID, cursor Cursor, limit int) ([]*model.Block, error) {
	var res []*model.Block
	err := newestFirst(r.db.WithContext(ctx).Where("blocker_id = ?", blockerID), "id", cursor, limit).Find(&res).Error
	return res, err
}
