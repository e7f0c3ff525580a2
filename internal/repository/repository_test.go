package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/agora-forum/agora/internal/domain"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.RefreshToken{}, &domain.Post{}, &domain.Comment{}, &domain.PostLike{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func mustCreateUser(t *testing.T, db *gorm.DB, email, nickname string) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, Nickname: nickname, PasswordHash: "x"}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func mustNewUser(email, nickname string) *domain.User {
	return &domain.User{Email: email, Nickname: nickname, PasswordHash: "x"}
}

func mustCreateToken(t *testing.T, repo RefreshTokenRepository, userID uint, hash string, expiresAt time.Time) {
	t.Helper()
	err := repo.Create(&domain.RefreshToken{UserID: userID, TokenHash: hash, ExpiresAt: expiresAt})
	if err != nil {
		t.Fatalf("create refresh token: %v", err)
	}
}
