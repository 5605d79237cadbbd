package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/UMC-MyFit/my-fit-back-sub000/internal/model"
)

type NetworkRepository interface {
	WithTx(tx *gorm.DB) NetworkRepository
	Create(ctx context.Context, senderID, recipientID model.ServiceID) (*model.Network, error)
	FindByID(ctx context.Context, id int64) (*model.Network, error)
	// LockByID reads the edge under a row lock.
	LockByID(ctx context.Context, id int64) (*model.Network, error)
	// FindBetween returns the edge of the unordered pair, or gorm.ErrRecordNotFound.
	FindBetween(ctx context.Context, a, b model.ServiceID) (*model.Network, error)
	// TransitionFromPending moves a PENDING edge to status; zero rows means it was no longer pending.
	TransitionFromPending(ctx context.Context, id int64, status model.NetworkStatus) (int64, error)
	RejectBetween(ctx context.Context, a, b model.ServiceID) error
	Delete(ctx context.Context, id int64) error
	ListAccepted(ctx context.Context, me model.ServiceID, cursor Cursor, limit int) ([]*model.Network, error)
	ListPendingReceived(ctx context.Context, me model.ServiceID, cursor Cursor, limit int) ([]*model.Network, error)
	ListPendingSent(ctx context.Context, me model.ServiceID, cursor Cursor, limit int) ([]*model.Network, error)
	CountAccepted(ctx context.Context, me model.ServiceID) (int64, error)
}

type networkRepository struct{ db *gorm.DB }

func NewNetworkRepository(db *gorm.DB) NetworkRepository { return &networkRepository{db: db} }

func (r *networkRepository) WithTx(tx *gorm.DB) NetworkRepository { return &networkRepository{db: tx} }

func (r *networkRepository) Create(ctx context.Context, senderID, recipientID model.ServiceID) (*model.Network, error) {
	lo, hi := model.Pair(senderID, recipientID)
	n := &model.Network{
		SenderID:    senderID,
		RecipientID: recipientID,
		PairLow:     lo,
		PairHigh:    hi,
		Status:      model.NetworkPending,
	}
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return nil, err
	}
	return n, nil
}

func (r *networkRepository) FindByID(ctx context.Context, id int64) (*model.Network, error) {
	var n model.Network
	if err := r.db.WithContext(ctx).First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *networkRepository) LockByID(ctx context.Context, id int64) (*model.Network, error) {
	var n model.Network
	if err := forUpdate(r.db.WithContext(ctx)).First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *networkRepository) FindBetween(ctx context.Context, a, b model.ServiceID) (*model.Network, error) {
	lo, hi := model.Pair(a, b)
	var n model.Network
	if err := r.db.WithContext(ctx).Where("pair_low = ? AND pair_high = ?", lo, hi).First(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *networkRepository) TransitionFromPending(ctx context.Context, id int64, status model.NetworkStatus) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Network{}).
		Where("id = ? AND status = ?", id, model.NetworkPending).
		Updates(map[string]any{"status": status, "updated_at": time.Now()})
	return res.RowsAffected, res.Error
}

func (r *networkRepository) RejectBetween(ctx context.Context, a, b model.ServiceID) error {
	lo, hi := model.Pair(a, b)
	return r.db.WithContext(ctx).Model(&model.Network{}).
		Where("pair_low = ? AND pair_high = ?", lo, hi).
		Updates(map[string]any{"status": model.NetworkRejected, "updated_at": time.Now()}).Error
}

func (r *networkRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Network{}, id).Error
}

func (r *networkRepository) ListAccepted(ctx context.Context, me model.ServiceID, cursor Cursor, limit int) ([]*model.Network, error) {
	var res []*model.Network
	q := r.db.WithContext(ctx).
		Where("status = ?", model.NetworkAccepted).
		Where("sender_id = ? OR recipient_id = ?", me, me)
	err := newestFirst(q, "id", cursor, limit).Find(&res).Error
	return res, err
}

func (r *networkRepository) ListPendingReceived(ctx context.Context, me model.ServiceID, cursor Cursor, limit int) ([]*model.Network, error) {
	var res []*model.Network
	q := r.db.WithContext(ctx).Where("recipient_id = ? AND status = ?", me, model.NetworkPending)
	err := newestFirst(q, "id", cursor, limit).Find(&res).Error
	return res, err
}

func (r *networkRepository) ListPendingSent(ctx context.Context, me model.ServiceID, cursor Cursor, limit int) ([]*model.Network, error) {
	var res []*model.Network
	q := r.db.WithContext(ctx).Where("sender_id = ? AND status = ?", me, model.NetworkPending)
	err := newestFirst(q, "id", cursor, limit).Find(&res).Error
	return res, err
}

func (r *networkRepository) CountAccepted(ctx context.Context, me model.ServiceID) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Network{}).
		Where("status = ?", model.NetworkAccepted).
		Where("sender_id = ? OR recipient_id = ?", me, me).
		Count(&cnt).Error
	return cnt, err
}
