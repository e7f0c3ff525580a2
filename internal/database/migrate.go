package database

import (
	"github.com/agora-forum/agora/internal/domain"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.RefreshToken{},
		&domain.Post{},
		&domain.Comment{},
		&domain.PostLike{},
	)
}
