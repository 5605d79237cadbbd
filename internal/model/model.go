package model

// All lists every table for AutoMigrate.
func All() []any {
	return []any{
		&User{}, &Service{},
		&Interest{}, &Network{}, &Block{},
		&ChatRoom{}, &Chat{}, &Message{}, &Coffeechat{},
		&Feed{}, &FeedComment{}, &FeedLike{}, &Notification{},
	}
}
