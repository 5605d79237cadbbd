package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/UMC-MyFit/my-fit-back-sub000/internal/model"
)

// ServiceRepository is the identity store: users and their public services.
type ServiceRepository interface {
	WithTx(tx *gorm.DB) ServiceRepository
	CreateUser(ctx context.Context, user *model.User, svc *model.Service) error
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUserID(ctx context.Context, userID int64) (*model.Service, error)
	FindByID(ctx context.Context, id model.ServiceID) (*model.Service, error)
	FindByIDs(ctx context.Context, ids []model.ServiceID) (map[model.ServiceID]*model.Service, error)
	Exists(ctx context.Context, id model.ServiceID) (bool, error)
	// LockPair takes row locks on both services, lower id first, and returns
	// how many of the two exist.
	LockPair(ctx context.Context, a, b model.ServiceID) (int, error)
}

type serviceRepository struct{ db *gorm.DB }

func NewServiceRepository(db *gorm.DB) ServiceRepository { return &serviceRepository{db: db} }

func (r *serviceRepository) WithTx(tx *gorm.DB) ServiceRepository { return &serviceRepository{db: tx} }

func (r *serviceRepository) CreateUser(ctx context.Context, user *model.User, svc *model.Service) error {
	db := r.db.WithContext(ctx)
	if err := db.Create(user).Error; err != nil {
		return err
	}
	svc.UserID = user.ID
	return db.Create(svc).Error
}

func (r *serviceRepository) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *serviceRepository) FindByUserID(ctx context.Context, userID int64) (*model.Service, error) {
	var s model.Service
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *serviceRepository) FindByID(ctx context.Context, id model.ServiceID) (*model.Service, error) {
	var s model.Service
	if err := r.db.WithContext(ctx).First(&s, int64(id)).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *serviceRepository) FindByIDs(ctx context.Context, ids []model.ServiceID) (map[model.ServiceID]*model.Service, error) {
	out := make(map[model.ServiceID]*model.Service, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []*model.Service
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, s := range rows {
		out[s.ID] = s
	}
	return out, nil
}

func (r *serviceRepository) Exists(ctx context.Context, id model.ServiceID) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Service{}).Where("id = ?", id).Count(&cnt).Error
	return cnt > 0, err
}

func (r *serviceRepository) LockPair(ctx context.Context, a, b model.ServiceID) (int, error) {
	lo, hi := model.Pair(a, b)
	var ids []model.ServiceID
	err := forUpdate(r.db.WithContext(ctx).Model(&model.Service{})).
		Where("id IN ?", []model.ServiceID{lo, hi}).
		Order("id").
		Pluck("id", &ids).Error
	return len(ids), err
}
