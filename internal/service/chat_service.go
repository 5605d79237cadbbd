package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/UMC-MyFit/my-fit-back-sub000/internal/chatcache"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/model"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/repository"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/apperr"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/logger"
)

const (
	// MessagePageSize is the page size of getMessages and the depth of the room cache.
	MessagePageSize = chatcache.DefaultSize
	RoomPageSize    = 10
)

var (
	ErrRoomNotFound      = apperr.NotFound(apperr.CodeRoomNotFound, "chatting room not found")
	ErrSelfChat          = apperr.InvalidOperation(apperr.CodeSelfChat, "cannot open a chat with yourself")
	ErrNotRoomMember     = apperr.InvalidOperation(apperr.CodeNotRoomMember, "sender is not a participant of this room")
	ErrSenderNameMissing = apperr.InvalidOperation(apperr.CodeSenderNameMissing, "sender name is not set")
	ErrEmptyMessage      = apperr.InvalidOperation(apperr.CodeEmptyMessage, "message must not be empty")
	ErrInvalidMsgType    = apperr.InvalidOperation(apperr.CodeInvalidMsgType, "unknown message type")
	ErrRoomForbidden     = apperr.Forbidden(apperr.CodeRoomForbidden, "not a participant of this room")
)

type SendMessageInput struct {
	RoomID   int64
	SenderID model.ServiceID
	Text     string
	Type     model.MessageType
}

// MessagePage is always in ascending id order.
type MessagePage struct {
	Messages   []*model.Message `json:"messages"`
	NextCursor *int64           `json:"next_cursor"`
	HasNext    bool             `json:"has_next"`
}

type RoomSummary struct {
	ChattingRoomID int64          `json:"chatting_room_id"`
	Partner        model.Profile  `json:"partner"`
	LastMessage    *model.Message `json:"last_message"`
	HasUnread      bool           `json:"has_unread"`
}

type RoomPage struct {
	ChattingRooms []RoomSummary `json:"chatting_rooms"`
	NextCursor    *int64        `json:"next_cursor"`
}

type RoomCheck struct {
	ChattingRoomID int64 `json:"chatting_room_id"`
	IsNew          bool  `json:"is_new"`
}

type ChatService interface {
	SendMessage(ctx context.Context, in SendMessageInput) (*model.Message, error)
	GetMessages(ctx context.Context, roomID int64, caller model.ServiceID, cursor *int64) (*MessagePage, error)
	GetChattingRooms(ctx context.Context, me model.ServiceID, cursor *int64) (*RoomPage, error)
	CheckOrCreateRoom(ctx context.Context, me, target model.ServiceID) (*RoomCheck, error)
	MarkRoomRead(ctx context.Context, roomID int64, me model.ServiceID) error
	// Authorize checks that me may read the room.
	Authorize(ctx context.Context, roomID int64, me model.ServiceID) error
}

type chatService struct {
	db       *gorm.DB
	rooms    repository.ChatRoomRepository
	messages repository.MessageRepository
	services repository.ServiceRepository
	cache    chatcache.MessageCache
	writer   *roomWriter
}

func NewChatService(
	db *gorm.DB,
	rooms repository.ChatRoomRepository,
	messages repository.MessageRepository,
	services repository.ServiceRepository,
	cache chatcache.MessageCache,
	events EventSink,
) ChatService {
	return &chatService{
		db:       db,
		rooms:    rooms,
		messages: messages,
		services: services,
		cache:    cache,
		writer:   &roomWriter{rooms: rooms, messages: messages, services: services, cache: cache, events: events},
	}
}

func (s *chatService) SendMessage(ctx context.Context, in SendMessageInput) (*model.Message, error) {
	if in.Type == "" {
		in.Type = model.MessageText
	}
	if !in.Type.Valid() {
		return nil, ErrInvalidMsgType
	}
	if strings.TrimSpace(in.Text) == "" {
		return nil, ErrEmptyMessage
	}
	msg := &model.Message{RoomID: in.RoomID, SenderID: in.SenderID, DetailMessage: in.Text, Type: in.Type}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.rooms.WithTx(tx).FindByID(ctx, in.RoomID); err != nil {
			if isNotFound(err) {
				return ErrRoomNotFound
			}
			return err
		}
		if _, err := s.rooms.WithTx(tx).FindParticipant(ctx, in.RoomID, in.SenderID); err != nil {
			if isNotFound(err) {
				return ErrNotRoomMember
			}
			return err
		}
		name, err := s.writer.senderName(ctx, tx, in.SenderID)
		if err != nil {
			return err
		}
		msg.SenderName = name
		return s.writer.append(ctx, tx, msg)
	})
	if err != nil {
		return nil, internalErr(err)
	}
	s.writer.deliver(ctx, msg, nil)
	return msg, nil
}

func (s *chatService) Authorize(ctx context.Context, roomID int64, me model.ServiceID) error {
	if _, err := s.rooms.FindByID(ctx, roomID); err != nil {
		if isNotFound(err) {
			return ErrRoomNotFound
		}
		return internalErr(err)
	}
	if _, err := s.rooms.FindParticipant(ctx, roomID, me); err != nil {
		if isNotFound(err) {
			return ErrRoomForbidden
		}
		return internalErr(err)
	}
	return nil
}

// GetMessages serves the first page from the room cache when it has entries
// and reads the message table otherwise. A cache error is a miss.
func (s *chatService) GetMessages(ctx context.Context, roomID int64, caller model.ServiceID, cursor *int64) (*MessagePage, error) {
	if err := s.Authorize(ctx, roomID, caller); err != nil {
		return nil, err
	}
	if cursor == nil && s.cache != nil {
		cached, err := s.cache.Recent(ctx, roomID)
		if err != nil {
			logger.Warn("message cache read failed, using store", zap.Int64("room_id", roomID), zap.Error(err))
		} else if len(cached) > 0 {
			if len(cached) > MessagePageSize {
				cached = cached[len(cached)-MessagePageSize:]
			}
			return newMessagePage(cached), nil
		}
	}

	rows, err := s.messages.ListBefore(ctx, roomID, cursor, MessagePageSize)
	if err != nil {
		return nil, internalErr(err)
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return newMessagePage(rows), nil
}

// newMessagePage expects msgs in ascending id order.
func newMessagePage(msgs []*model.Message) *MessagePage {
	page := &MessagePage{Messages: msgs}
	if len(msgs) == MessagePageSize {
		lowest := msgs[0].ID
		page.HasNext = true
		page.NextCursor = &lowest
	}
	if page.Messages == nil {
		page.Messages = []*model.Message{}
	}
	return page
}

func (s *chatService) GetChattingRooms(ctx context.Context, me model.ServiceID, cursor *int64) (*RoomPage, error) {
	chats, err := s.rooms.ListVisible(ctx, me, cursor, RoomPageSize)
	if err != nil {
		return nil, internalErr(err)
	}
	page := &RoomPage{ChattingRooms: make([]RoomSummary, 0, len(chats))}
	if len(chats) == 0 {
		return page, nil
	}

	roomIDs := make([]int64, len(chats))
	for i, c := range chats {
		roomIDs[i] = c.RoomID
	}
	partners, err := s.rooms.Partners(ctx, roomIDs, me)
	if err != nil {
		return nil, internalErr(err)
	}
	partnerIDs := make([]model.ServiceID, 0, len(partners))
	for _, p := range partners {
		partnerIDs = append(partnerIDs, p.ServiceID)
	}
	profiles, err := s.services.FindByIDs(ctx, partnerIDs)
	if err != nil {
		return nil, internalErr(err)
	}
	latest, err := s.messages.LatestByRooms(ctx, roomIDs)
	if err != nil {
		return nil, internalErr(err)
	}

	now := time.Now()
	for _, c := range chats {
		sum := RoomSummary{ChattingRoomID: c.RoomID, LastMessage: latest[c.RoomID]}
		if p, ok := partners[c.RoomID]; ok {
			sum.Partner = model.Profile{ServiceID: p.ServiceID}
			if svc, ok := profiles[p.ServiceID]; ok {
				sum.Partner = svc.Profile(now)
			}
		}
		if sum.LastMessage != nil && sum.LastMessage.SenderID != me {
			unread, err := s.messages.CountSince(ctx, c.RoomID, me, c.LastReadTime)
			if err != nil {
				return nil, internalErr(err)
			}
			sum.HasUnread = unread > 0
		}
		page.ChattingRooms = append(page.ChattingRooms, sum)
	}
	page.NextCursor = nextCursor(chats[len(chats)-1].ID, len(chats), RoomPageSize)
	return page, nil
}

// CheckOrCreateRoom returns the pair's room, creating it on first contact.
// The pair lock and the unique (pair_low, pair_high) index together make
// concurrent callers converge on one room.
func (s *chatService) CheckOrCreateRoom(ctx context.Context, me, target model.ServiceID) (*RoomCheck, error) {
	if me == target {
		return nil, ErrSelfChat
	}
	if room, err := s.rooms.FindByPair(ctx, me, target); err == nil {
		return &RoomCheck{ChattingRoomID: room.ID}, nil
	} else if !isNotFound(err) {
		return nil, internalErr(err)
	}

	var out *RoomCheck
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := s.services.WithTx(tx).LockPair(ctx, me, target)
		if err != nil {
			return err
		}
		if n < 2 {
			return ErrServiceNotFound
		}
		rooms := s.rooms.WithTx(tx)
		if room, err := rooms.FindByPair(ctx, me, target); err == nil {
			out = &RoomCheck{ChattingRoomID: room.ID}
			return nil
		} else if !isNotFound(err) {
			return err
		}
		room, err := rooms.CreateWithParticipants(ctx, me, target, time.Now())
		if err != nil {
			return err
		}
		out = &RoomCheck{ChattingRoomID: room.ID, IsNew: true}
		return nil
	})
	if err == nil {
		return out, nil
	}
	if isUnique(err) {
		// lost the race: the winner's room is committed
		room, ferr := s.rooms.FindByPair(ctx, me, target)
		if ferr != nil {
			return nil, internalErr(ferr)
		}
		return &RoomCheck{ChattingRoomID: room.ID}, nil
	}
	return nil, internalErr(err)
}

func (s *chatService) MarkRoomRead(ctx context.Context, roomID int64, me model.ServiceID) error {
	n, err := s.rooms.TouchLastRead(ctx, roomID, me, time.Now())
	if err != nil {
		return internalErr(err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.rooms.FindByID(ctx, roomID); isNotFound(err) {
		return ErrRoomNotFound
	} else if err != nil {
		return internalErr(err)
	}
	return ErrRoomForbidden
}
