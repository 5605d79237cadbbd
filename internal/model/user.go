package model

import "time"

// User is the login identity.
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (User) TableName() string { return "users" }

// Service is the public profile bound 1:1 to a User.
type Service struct {
	ID         ServiceID  `gorm:"primaryKey;autoIncrement" json:"service_id"`
	UserID     int64      `gorm:"uniqueIndex;not null" json:"-"`
	Name       string     `gorm:"type:varchar(50);not null" json:"name"`
	ProfileImg string     `gorm:"type:text" json:"profile_img"`
	Sector     string     `gorm:"type:varchar(50)" json:"sector"`
	BirthDate  *time.Time `json:"-"`
	CreatedAt  time.Time  `json:"-"`
	UpdatedAt  time.Time  `json:"-"`
}

func (Service) TableName() string { return "services" }

// Age is the international age at now, or nil when no birth date is stored.
func (s *Service) Age(now time.Time) *int {
	if s.BirthDate == nil {
		return nil
	}
	b := *s.BirthDate
	age := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		age--
	}
	return &age
}

// Profile is the public snapshot of a Service shown next to relations and chats.
type Profile struct {
	ServiceID  ServiceID `json:"service_id"`
	Name       string    `json:"name"`
	Age        *int      `json:"age"`
	Sector     string    `json:"sector"`
	ProfileImg string    `json:"profile_img"`
}

func (s *Service) Profile(now time.Time) Profile {
	return Profile{ServiceID: s.ID, Name: s.Name, Age: s.Age(now), Sector: s.Sector, ProfileImg: s.ProfileImg}
}
