package service

import (
	"context"

	"github.com/UMC-MyFit/my-fit-back-sub000/internal/model"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/repository"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/apperr"
)

var (
	ErrNotificationNotFound  = apperr.NotFound(apperr.CodeNotificationNotFound, "notification not found")
	ErrNotificationForbidden = apperr.Forbidden(apperr.CodeNotificationForbidden, "not your notification")
)

type NotificationPage struct {
	Notifications []*model.Notification `json:"notifications"`
	NextCursor    *int64                `json:"next_cursor"`
}

type NotificationService interface {
	List(ctx context.Context, me model.ServiceID, page Page) (*NotificationPage, error)
	MarkRead(ctx context.Context, id int64, me model.ServiceID) error
	UnreadCount(ctx context.Context, me model.ServiceID) (int64, error)
}

type notificationService struct {
	notifications repository.NotificationRepository
}

func NewNotificationService(notifications repository.NotificationRepository) NotificationService {
	return &notificationService{notifications: notifications}
}

func (s *notificationService) List(ctx context.Context, me model.ServiceID, page Page) (*NotificationPage, error) {
	if err := page.validate(); err != nil {
		return nil, err
	}
	rows, err := s.notifications.List(ctx, me, page.Cursor, page.Limit)
	if err != nil {
		return nil, internalErr(err)
	}
	out := &NotificationPage{Notifications: rows}
	if rows == nil {
		out.Notifications = []*model.Notification{}
	} else {
		out.NextCursor = nextCursor(rows[len(rows)-1].ID, len(rows), page.Limit)
	}
	return out, nil
}

// MarkRead is idempotent for the receiver.
func (s *notificationService) MarkRead(ctx context.Context, id int64, me model.ServiceID) error {
	n, err := s.notifications.FindByID(ctx, id)
	if isNotFound(err) {
		return ErrNotificationNotFound
	}
	if err != nil {
		return internalErr(err)
	}
	if n.ReceiverID != me {
		return ErrNotificationForbidden
	}
	if n.IsRead {
		return nil
	}
	return internalErr(s.notifications.MarkRead(ctx, id))
}

func (s *notificationService) UnreadCount(ctx context.Context, me model.ServiceID) (int64, error) {
	cnt, err := s.notifications.CountUnread(ctx, me)
	if err != nil {
		return 0, internalErr(err)
	}
	return cnt, nil
}
