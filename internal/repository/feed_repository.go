package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/UMC-MyFit/my-fit-back-sub000/internal/model"
)

type FeedRepository interface {
	WithTx(tx *gorm.DB) FeedRepository
	Create(ctx context.Context, f *model.Feed) error
	FindByID(ctx context.Context, id int64) (*model.Feed, error)
	List(ctx context.Context, cursor Cursor, limit int) ([]*model.Feed, error)
	// Delete removes the feed together with its comments and likes.
	Delete(ctx context.Context, id int64) error

	CreateComment(ctx context.Context, c *model.FeedComment) error
	FindComment(ctx context.Context, id int64) (*model.FeedComment, error)
	ListComments(ctx context.Context, feedID int64, cursor Cursor, limit int) ([]*model.FeedComment, error)
	DeleteComment(ctx context.Context, id int64) error

	// CreateLike inserts the like; a duplicate surfaces as a unique violation.
	CreateLike(ctx context.Context, feedID int64, serviceID model.ServiceID) error
	DeleteLike(ctx context.Context, feedID int64, serviceID model.ServiceID) (int64, error)
	CountLikes(ctx context.Context, feedID int64) (int64, error)
	CountComments(ctx context.Context, feedID int64) (int64, error)
}

type feedRepository struct{ db *gorm.DB }

func NewFeedRepository(db *gorm.DB) FeedRepository { return &feedRepository{db: db} }

func (r *feedRepository) WithTx(tx *gorm.DB) FeedRepository { return &feedRepository{db: tx} }

func (r *feedRepository) Create(ctx context.Context, f *model.Feed) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *feedRepository) FindByID(ctx context.Context, id int64) (*model.Feed, error) {
	var f model.Feed
	if err := r.db.WithContext(ctx).First(&f, id).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *feedRepository) List(ctx context.Context, cursor Cursor, limit int) ([]*model.Feed, error) {
	var res []*model.Feed
	err := newestFirst(r.db.WithContext(ctx), "id", cursor, limit).Find(&res).Error
	return res, err
}

func (r *feedRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("feed_id = ?", id).Delete(&model.FeedComment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("feed_id = ?", id).Delete(&model.FeedLike{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Feed{}, id).Error
	})
}

func (r *feedRepository) CreateComment(ctx context.Context, c *model.FeedComment) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *feedRepository) FindComment(ctx context.Context, id int64) (*model.FeedComment, error) {
	var c model.FeedComment
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *feedRepository) ListComments(ctx context.Context, feedID int64, cursor Cursor, limit int) ([]*model.FeedComment, error) {
	var res []*model.FeedComment
	err := newestFirst(r.db.WithContext(ctx).Where("feed_id = ?", feedID), "id", cursor, limit).Find(&res).Error
	return res, err
}

func (r *feedRepository) DeleteComment(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.FeedComment{}, id).Error
}

func (r *feedRepository) CreateLike(ctx context.Context, feedID int64, serviceID model.ServiceID) error {
	return r.db.WithContext(ctx).Create(&model.FeedLike{FeedID: feedID, ServiceID: serviceID}).Error
}

func (r *feedRepository) DeleteLike(ctx context.Context, feedID int64, serviceID model.ServiceID) (int64, error) {
	res := r.db.WithContext(ctx).Where("feed_id = ? AND service_id = ?", feedID, serviceID).Delete(&model.FeedLike{})
	return res.RowsAffected, res.Error
}

func (r *feedRepository) CountLikes(ctx context.Context, feedID int64) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.FeedLike{}).Where("feed_id = ?", feedID).Count(&cnt).Error
	return cnt, err
}

func (r *feedRepository) CountComments(ctx context.Context, feedID int64) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.FeedComment{}).Where("feed_id = ?", feedID).Count(&cnt).Error
	return cnt, err
}
