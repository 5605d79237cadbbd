package model

import "time"

// Feed 피드 게시글.
type Feed struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"feed_id"`
	ServiceID ServiceID `gorm:"not null;index:idx_feed_author" json:"service_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Feed) TableName() string { return "feeds" }

type FeedComment struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"comment_id"`
	FeedID    int64     `gorm:"not null;index" json:"feed_id"`
	ServiceID ServiceID `gorm:"not null" json:"service_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (FeedComment) TableName() string { return "feed_comments" }

type FeedLike struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	FeedID    int64     `gorm:"not null;uniqueIndex:ux_feed_like"`
	ServiceID ServiceID `gorm:"not null;uniqueIndex:ux_feed_like"`
	CreatedAt time.Time
}

func (FeedLike) TableName() string { return "feed_likes" }

type NotificationType string

const (
	NotificationComment NotificationType = "COMMENT"
	NotificationLike    NotificationType = "LIKE"
)

// Notification 알림: append-only record of something that happened to the receiver.
type Notification struct {
	ID         int64            `gorm:"primaryKey;autoIncrement" json:"notification_id"`
	ReceiverID ServiceID        `gorm:"not null;index:idx_notification_receiver" json:"receiver_id"`
	SenderID   ServiceID        `gorm:"not null" json:"sender_id"`
	Type       NotificationType `gorm:"type:varchar(16);not null" json:"type"`
	FeedID     *int64           `json:"feed_id"`
	Message    string           `gorm:"type:varchar(255);not null" json:"message"`
	IsRead     bool             `gorm:"not null;default:false" json:"is_read"`
	CreatedAt  time.Time        `json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }
