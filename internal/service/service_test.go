package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/agora-forum/agora/internal/config"
	"github.com/agora-forum/agora/internal/domain"
	"github.com/agora-forum/agora/internal/repository"
	"github.com/agora-forum/agora/internal/security"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type serviceFixture struct {
	db       *gorm.DB
	cfg      *config.Config
	tokens   *TokenService
	auth     *AuthService
	users    *UserService
	posts    *PostService
	userRepo repository.UserRepository
	tokRepo  repository.RefreshTokenRepository
}

func newServiceFixture(t *testing.T) *serviceFixture {
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
	// One writer at a time keeps sqlite from returning lock errors under
	// concurrent transactions; the API-level interleaving still happens.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("raw db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	cfg := &config.Config{
		JWTIssuer:          "agora-test",
		JWTAudience:        "agora-api",
		JWTAccessSecret:    "unit-test-secret-key-0123456789abcdef",
		JWTAccessTTL:       30 * time.Minute,
		RefreshTTL:         7 * 24 * time.Hour,
		RefreshTokenPepper: "unit-test-pepper",
		PasswordMinLength:  8,
		PasswordMaxLength:  72,
	}

	jwtMgr := security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTAccessSecret)
	userRepo := repository.NewUserRepository(db)
	tokRepo := repository.NewRefreshTokenRepository(db)
	postRepo := repository.NewPostRepository(db)

	tokens := NewTokenService(jwtMgr, db, tokRepo, cfg.RefreshTokenPepper, cfg.JWTAccessTTL, cfg.RefreshTTL)
	return &serviceFixture{
		db:       db,
		cfg:      cfg,
		tokens:   tokens,
		auth:     NewAuthService(cfg, tokens, userRepo),
		users:    NewUserService(cfg, db, userRepo, tokRepo),
		posts:    NewPostService(db, postRepo),
		userRepo: userRepo,
		tokRepo:  tokRepo,
	}
}

const testPassword = "Sup3r-secret!"

func (f *serviceFixture) mustRegister(t *testing.T, email, nickname string) *domain.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), email, nickname, testPassword)
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return u
}

func (f *serviceFixture) liveTokenCount(t *testing.T, userID uint) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(&domain.RefreshToken{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		t.Fatalf("count tokens: %v", err)
	}
	return n
}
