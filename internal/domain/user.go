package domain

import "time"

// User is a forum identity. Email and nickname are unique only among
// active rows; withdrawal anonymizes both so they become reusable.
type User struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Email           string     `gorm:"size:255;not null;uniqueIndex:idx_users_email_active,where:deleted_at IS NULL" json:"email"`
	Nickname        string     `gorm:"size:64;not null;uniqueIndex:idx_users_nickname_active,where:deleted_at IS NULL" json:"nickname"`
	PasswordHash    string     `gorm:"size:1024;not null" json:"-"`
	ProfileImageURL string     `gorm:"size:1024" json:"profile_image_url,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `gorm:"index" json:"-"`
}

func (u *User) Active() bool { return u.DeletedAt == nil }
