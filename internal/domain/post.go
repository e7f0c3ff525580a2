package domain

import "time"

// Post links to its author by numeric id only, so posts survive the
// author's withdrawal without retaining any of the withdrawn PII.
type Post struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	AuthorID  uint       `gorm:"index;not null" json:"author_id"`
	Title     string     `gorm:"size:200;not null" json:"title"`
	Body      string     `gorm:"type:text;not null" json:"body"`
	ImageURL  string     `gorm:"size:1024" json:"image_url,omitempty"`
	ViewCount int64      `gorm:"not null;default:0" json:"view_count"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"-"`
}

type Comment struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	PostID    uint       `gorm:"index;not null" json:"post_id"`
	AuthorID  uint       `gorm:"index;not null" json:"author_id"`
	Body      string     `gorm:"size:2000;not null" json:"body"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"-"`
}

type PostLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_likes_post_user" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_post_likes_post_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
