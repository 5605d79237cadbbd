package service

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/UMC-MyFit/my-fit-back-sub000/internal/chatcache"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/model"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/realtime"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/repository"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/logger"
)

// EventSink accepts realtime events without blocking.
type EventSink interface {
	Enqueue(ev realtime.Event) bool
}

// roomWriter is the single append path for room messages. append runs inside
// the caller's transaction; deliver runs after commit and never fails.
type roomWriter struct {
	rooms    repository.ChatRoomRepository
	messages repository.MessageRepository
	services repository.ServiceRepository
	cache    chatcache.MessageCache
	events   EventSink
}

// senderName resolves the display name captured on the message.
func (w *roomWriter) senderName(ctx context.Context, tx *gorm.DB, id model.ServiceID) (string, error) {
	svc, err := w.services.WithTx(tx).FindByID(ctx, id)
	if isNotFound(err) {
		return "", ErrSenderNameMissing
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(svc.Name) == "" {
		return "", ErrSenderNameMissing
	}
	return svc.Name, nil
}

func (w *roomWriter) append(ctx context.Context, tx *gorm.DB, msg *model.Message) error {
	if err := w.rooms.WithTx(tx).MarkVisible(ctx, msg.RoomID); err != nil {
		return err
	}
	return w.messages.WithTx(tx).Create(ctx, msg)
}

func (w *roomWriter) deliver(ctx context.Context, msg *model.Message, cc *model.Coffeechat) {
	if w.cache != nil {
		if err := w.cache.Append(ctx, msg); err != nil {
			logger.Warn("message cache append failed",
				zap.Int64("room_id", msg.RoomID), zap.Int64("message_id", msg.ID), zap.Error(err))
		}
	}
	if w.events == nil {
		return
	}
	ev := realtime.Event{Type: realtime.EventMessage, RoomID: msg.RoomID, Message: msg}
	if cc != nil {
		ev.Type = realtime.EventCoffeechat
		ev.Coffeechat = cc
	}
	w.events.Enqueue(ev)
}
