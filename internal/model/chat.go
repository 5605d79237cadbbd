package model

import "time"

// ChatRoom 채팅방. One room per unordered pair of services.
type ChatRoom struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	PairLow   ServiceID `gorm:"not null;uniqueIndex:ux_room_pair"`
	PairHigh  ServiceID `gorm:"not null;uniqueIndex:ux_room_pair"`
	IsVisible bool      `gorm:"not null;default:false"`
	CreatedAt time.Time
}

func (ChatRoom) TableName() string { return "chat_rooms" }

// Chat is a participant row; every room has exactly two.
type Chat struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	RoomID       int64     `gorm:"not null;index;uniqueIndex:ux_chat_member"`
	ServiceID    ServiceID `gorm:"not null;index:idx_chat_service;uniqueIndex:ux_chat_member"`
	LastReadTime time.Time `gorm:"not null"`
}

func (Chat) TableName() string { return "chats" }

type MessageType string

const (
	MessageText       MessageType = "TEXT"
	MessageCoffeechat MessageType = "COFFEECHAT"
	MessageSystem     MessageType = "SYSTEM"
)

// Valid reports whether t is a known message type.
func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageCoffeechat, MessageSystem:
		return true
	}
	return false
}

// Message is immutable once written. ID is the pagination cursor.
// SenderName is captured at send time and never joined live.
type Message struct {
	ID            int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	RoomID        int64       `gorm:"not null;index" json:"chatting_room_id"`
	SenderID      ServiceID   `gorm:"not null" json:"sender_id"`
	SenderName    string      `gorm:"type:varchar(50);not null" json:"sender_name"`
	DetailMessage string      `gorm:"type:text;not null" json:"detail_message"`
	Type          MessageType `gorm:"type:varchar(16);not null" json:"type"`
	CoffeechatID  *int64      `json:"coffeechat_id"`
	CreatedAt     time.Time   `json:"created_at"`
}

func (Message) TableName() string { return "messages" }

// CoffeechatStatus is the lifecycle state of a coffeechat proposal.
type CoffeechatStatus string

const (
	CoffeechatPending  CoffeechatStatus = "PENDING"
	CoffeechatAccepted CoffeechatStatus = "ACCEPTED"
	CoffeechatRejected CoffeechatStatus = "REJECTED"
	CoffeechatCanceled CoffeechatStatus = "CANCELED"
)

// Active reports whether the proposal can still be canceled.
func (s CoffeechatStatus) Active() bool {
	return s == CoffeechatPending || s == CoffeechatAccepted
}

// Coffeechat 커피챗: a meeting proposal made inside a chat room.
type Coffeechat struct {
	ID          int64            `gorm:"primaryKey;autoIncrement" json:"coffeechat_id"`
	RoomID      int64            `gorm:"not null;index" json:"chatting_room_id"`
	RequesterID ServiceID        `gorm:"not null;index" json:"requester_id"`
	ReceiverID  ServiceID        `gorm:"not null;index" json:"receiver_id"`
	Title       string           `gorm:"type:varchar(100);not null" json:"title"`
	Place       string           `gorm:"type:varchar(255);not null" json:"place"`
	ScheduledAt time.Time        `gorm:"not null" json:"scheduled_at"`
	Status      CoffeechatStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	AcceptedAt  *time.Time       `json:"accepted_at"`
}

func (Coffeechat) TableName() string { return "coffeechats" }

// Involves reports whether id is the requester or the receiver.
func (c *Coffeechat) Involves(id ServiceID) bool {
	return c.RequesterID == id || c.ReceiverID == id
}
