package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/UMC-MyFit/my-fit-back-sub000/internal/chatcache"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/model"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/repository"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/apperr"
)

var (
	ErrCoffeechatNotFound  = apperr.NotFound(apperr.CodeCoffeechatNotFound, "coffeechat not found")
	ErrCoffeechatForbidden = apperr.Forbidden(apperr.CodeCoffeechatForbidden, "not allowed to act on this coffeechat")
	ErrCoffeechatResolved  = apperr.Conflict(apperr.CodeCoffeechatResolved, "coffeechat is no longer in a state that allows this")
	ErrCoffeechatActive    = apperr.Conflict(apperr.CodeCoffeechatActive, "room already has an open coffeechat")
	ErrCoffeechatPast      = apperr.InvalidOperation(apperr.CodeCoffeechatSchedule, "scheduled time must be in the future")
	ErrCoffeechatNoChange  = apperr.InvalidOperation(apperr.CodeCoffeechatNoChange, "nothing to update")
	ErrCoffeechatTitle     = apperr.InvalidOperation(apperr.CodeCoffeechatTitle, "title and place must not be empty")
)

type CoffeechatRequest struct {
	RoomID      int64
	RequesterID model.ServiceID
	Title       string
	Place       string
	ScheduledAt time.Time
}

// CoffeechatUpdate carries the fields to change; nil leaves a field as is.
type CoffeechatUpdate struct {
	Title       *string
	Place       *string
	ScheduledAt *time.Time
}

// CoffeechatService 커피챗. Every transition appends a message to the owning
// room in the same transaction and goes through the cache and realtime path.
type CoffeechatService interface {
	Request(ctx context.Context, in CoffeechatRequest) (*model.Coffeechat, error)
	Accept(ctx context.Context, id int64, acting model.ServiceID) (*model.Coffeechat, error)
	Reject(ctx context.Context, id int64, acting model.ServiceID) (*model.Coffeechat, error)
	Update(ctx context.Context, id int64, acting model.ServiceID, in CoffeechatUpdate) (*model.Coffeechat, error)
	Cancel(ctx context.Context, id int64, acting model.ServiceID) (*model.Coffeechat, error)
	Get(ctx context.Context, id int64, caller model.ServiceID) (*model.Coffeechat, error)
	ListUpcoming(ctx context.Context, me model.ServiceID) ([]*model.Coffeechat, error)
}

type coffeechatService struct {
	db          *gorm.DB
	coffeechats repository.CoffeechatRepository
	rooms       repository.ChatRoomRepository
	writer      *roomWriter
	now         func() time.Time
}

func NewCoffeechatService(
	db *gorm.DB,
	coffeechats repository.CoffeechatRepository,
	rooms repository.ChatRoomRepository,
	messages repository.MessageRepository,
	services repository.ServiceRepository,
	cache chatcache.MessageCache,
	events EventSink,
) CoffeechatService {
	return &coffeechatService{
		db:          db,
		coffeechats: coffeechats,
		rooms:       rooms,
		writer:      &roomWriter{rooms: rooms, messages: messages, services: services, cache: cache, events: events},
		now:         time.Now,
	}
}

func (s *coffeechatService) Request(ctx context.Context, in CoffeechatRequest) (*model.Coffeechat, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Place = strings.TrimSpace(in.Place)
	if in.Title == "" || in.Place == "" {
		return nil, ErrCoffeechatTitle
	}
	now := s.now()
	if !in.ScheduledAt.After(now) {
		return nil, ErrCoffeechatPast
	}

	var (
		cc  *model.Coffeechat
		msg *model.Message
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rooms := s.rooms.WithTx(tx)
		// 방 행을 잠가 동시 요청을 직렬화한다
		if _, err := rooms.LockByID(ctx, in.RoomID); err != nil {
			if isNotFound(err) {
				return ErrRoomNotFound
			}
			return err
		}
		if _, err := rooms.FindParticipant(ctx, in.RoomID, in.RequesterID); err != nil {
			if isNotFound(err) {
				return ErrCoffeechatForbidden
			}
			return err
		}
		partners, err := rooms.Partners(ctx, []int64{in.RoomID}, in.RequesterID)
		if err != nil {
			return err
		}
		receiver, ok := partners[in.RoomID]
		if !ok {
			return ErrRoomNotFound
		}
		repo := s.coffeechats.WithTx(tx)
		if _, err := repo.FindActiveInRoom(ctx, in.RoomID); err == nil {
			return ErrCoffeechatActive
		} else if !isNotFound(err) {
			return err
		}
		name, err := s.writer.senderName(ctx, tx, in.RequesterID)
		if err != nil {
			return err
		}

		cc = &model.Coffeechat{
			RoomID:      in.RoomID,
			RequesterID: in.RequesterID,
			ReceiverID:  receiver.ServiceID,
			Title:       in.Title,
			Place:       in.Place,
			ScheduledAt: in.ScheduledAt,
			Status:      model.CoffeechatPending,
		}
		if err := repo.Create(ctx, cc); err != nil {
			return err
		}
		msg = &model.Message{
			RoomID:        in.RoomID,
			SenderID:      in.RequesterID,
			SenderName:    name,
			DetailMessage: fmt.Sprintf("%s님이 커피챗을 요청했습니다.", name),
			Type:          model.MessageCoffeechat,
			CoffeechatID:  &cc.ID,
		}
		return s.writer.append(ctx, tx, msg)
	})
	if err != nil {
		return nil, internalErr(err)
	}
	s.writer.deliver(ctx, msg, cc)
	return cc, nil
}

func (s *coffeechatService) Accept(ctx context.Context, id int64, acting model.ServiceID) (*model.Coffeechat, error) {
	now := s.now()
	return s.transition(ctx, id, acting, coffeechatStep{
		allowed: func(c *model.Coffeechat) bool { return c.ReceiverID == acting },
		from:    []model.CoffeechatStatus{model.CoffeechatPending},
		fields:  map[string]any{"status": model.CoffeechatAccepted, "accepted_at": now},
		text:    "%s님이 커피챗을 수락했습니다.",
	})
}

func (s *coffeechatService) Reject(ctx context.Context, id int64, acting model.ServiceID) (*model.Coffeechat, error) {
	return s.transition(ctx, id, acting, coffeechatStep{
		allowed: func(c *model.Coffeechat) bool { return c.ReceiverID == acting },
		from:    []model.CoffeechatStatus{model.CoffeechatPending},
		fields:  map[string]any{"status": model.CoffeechatRejected},
		text:    "%s님이 커피챗을 거절했습니다.",
	})
}

// Update edits a PENDING coffeechat. Only the requester may edit.
func (s *coffeechatService) Update(ctx context.Context, id int64, acting model.ServiceID, in CoffeechatUpdate) (*model.Coffeechat, error) {
	fields := map[string]any{}
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return nil, ErrCoffeechatTitle
		}
		fields["title"] = t
	}
	if in.Place != nil {
		p := strings.TrimSpace(*in.Place)
		if p == "" {
			return nil, ErrCoffeechatTitle
		}
		fields["place"] = p
	}
	if in.ScheduledAt != nil {
		if !in.ScheduledAt.After(s.now()) {
			return nil, ErrCoffeechatPast
		}
		fields["scheduled_at"] = *in.ScheduledAt
	}
	if len(fields) == 0 {
		return nil, ErrCoffeechatNoChange
	}
	return s.transition(ctx, id, acting, coffeechatStep{
		allowed: func(c *model.Coffeechat) bool { return c.RequesterID == acting },
		from:    []model.CoffeechatStatus{model.CoffeechatPending},
		fields:  fields,
		text:    "%s님이 커피챗 정보를 수정했습니다.",
	})
}

func (s *coffeechatService) Cancel(ctx context.Context, id int64, acting model.ServiceID) (*model.Coffeechat, error) {
	return s.transition(ctx, id, acting, coffeechatStep{
		allowed: func(c *model.Coffeechat) bool { return c.Involves(acting) },
		from:    []model.CoffeechatStatus{model.CoffeechatPending, model.CoffeechatAccepted},
		fields:  map[string]any{"status": model.CoffeechatCanceled},
		text:    "%s님이 커피챗을 취소했습니다.",
	})
}

type coffeechatStep struct {
	allowed func(*model.Coffeechat) bool
	from    []model.CoffeechatStatus
	fields  map[string]any
	// text is the SYSTEM message; %s is the acting service's name.
	text string
}

// transition locks the coffeechat, checks role and state, applies the
// conditional update and appends the SYSTEM message, all in one transaction.
func (s *coffeechatService) transition(ctx context.Context, id int64, acting model.ServiceID, t coffeechatStep) (*model.Coffeechat, error) {
	var (
		cc  *model.Coffeechat
		msg *model.Message
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.coffeechats.WithTx(tx)
		cur, err := repo.LockByID(ctx, id)
		if isNotFound(err) {
			return ErrCoffeechatNotFound
		}
		if err != nil {
			return err
		}
		if !t.allowed(cur) {
			return ErrCoffeechatForbidden
		}
		if !statusIn(cur.Status, t.from) {
			return ErrCoffeechatResolved
		}
		name, err := s.writer.senderName(ctx, tx, acting)
		if err != nil {
			return err
		}
		rows, err := repo.Transition(ctx, id, t.from, t.fields)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrCoffeechatResolved
		}
		if cc, err = repo.FindByID(ctx, id); err != nil {
			return err
		}
		msg = &model.Message{
			RoomID:        cc.RoomID,
			SenderID:      acting,
			SenderName:    name,
			DetailMessage: fmt.Sprintf(t.text, name),
			Type:          model.MessageSystem,
			CoffeechatID:  &cc.ID,
		}
		return s.writer.append(ctx, tx, msg)
	})
	if err != nil {
		return nil, internalErr(err)
	}
	s.writer.deliver(ctx, msg, cc)
	return cc, nil
}

func statusIn(s model.CoffeechatStatus, set []model.CoffeechatStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func (s *coffeechatService) Get(ctx context.Context, id int64, caller model.ServiceID) (*model.Coffeechat, error) {
	cc, err := s.coffeechats.FindByID(ctx, id)
	if isNotFound(err) {
		return nil, ErrCoffeechatNotFound
	}
	if err != nil {
		return nil, internalErr(err)
	}
	if !cc.Involves(caller) {
		return nil, ErrCoffeechatForbidden
	}
	return cc, nil
}

func (s *coffeechatService) ListUpcoming(ctx context.Context, me model.ServiceID) ([]*model.Coffeechat, error) {
	list, err := s.coffeechats.ListUpcoming(ctx, me, s.now())
	if err != nil {
		return nil, internalErr(err)
	}
	if list == nil {
		list = []*model.Coffeechat{}
	}
	return list, nil
}
