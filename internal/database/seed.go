package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/agora-forum/agora/internal/domain"
	"github.com/agora-forum/agora/internal/observability"
	"github.com/agora-forum/agora/internal/security"

	"gorm.io/gorm"
)

type SeedReport struct {
	CreatedUsers int  `json:"created_users"`
	CreatedPosts int  `json:"created_posts"`
	Noop         bool `json:"noop"`
}

type seedUser struct {
	Email    string
	Nickname string
	Password string
}

var demoUsers = []seedUser{
	{Email: "alice@agora.local", Nickname: "alice", Password: "alice-demo-pass-1"},
	{Email: "bob@agora.local", Nickname: "bob", Password: "bob-demo-pass-1"},
}

var demoPosts = []domain.Post{
	{Title: "Welcome to Agora", Body: "Introduce yourself and say hello."},
	{Title: "Forum guidelines", Body: "Be kind. Stay on topic. Report abuse."},
}

func Seed(db *gorm.DB) error {
	_, err := SeedSync(db)
	return err
}

// SeedSync inserts the demo fixtures, skipping anything that already
// exists. It is safe to run repeatedly.
func SeedSync(db *gorm.DB) (*SeedReport, error) {
	start := time.Now()
	defer func() {
		observability.RecordDatabaseStartupDuration(context.Background(), "seed", time.Since(start))
	}()

	report := &SeedReport{}

	var firstAuthor uint
	for _, su := range demoUsers {
		email := strings.TrimSpace(strings.ToLower(su.Email))
		var existing domain.User
		err := db.Where("email = ? AND deleted_at IS NULL", email).First(&existing).Error
		if err == nil {
			if firstAuthor == 0 {
				firstAuthor = existing.ID
			}
			continue
		}
		if err != gorm.ErrRecordNotFound {
			observability.RecordDatabaseStartupEvent(context.Background(), "seed", "error")
			return nil, err
		}

		hash, err := security.HashPassword(su.Password)
		if err != nil {
			observability.RecordDatabaseStartupEvent(context.Background(), "seed", "error")
			return nil, fmt.Errorf("hash seed password: %w", err)
		}
		u := domain.User{Email: email, Nickname: su.Nickname, PasswordHash: hash}
		if err := db.Create(&u).Error; err != nil {
			observability.RecordDatabaseStartupEvent(context.Background(), "seed", "error")
			return nil, err
		}
		report.CreatedUsers++
		if firstAuthor == 0 {
			firstAuthor = u.ID
		}
	}

	var postCount int64
	if err := db.Model(&domain.Post{}).Count(&postCount).Error; err != nil {
		observability.RecordDatabaseStartupEvent(context.Background(), "seed", "error")
		return nil, err
	}
	if postCount == 0 && firstAuthor != 0 {
		for _, p := range demoPosts {
			p.AuthorID = firstAuthor
			if err := db.Create(&p).Error; err != nil {
				observability.RecordDatabaseStartupEvent(context.Background(), "seed", "error")
				return nil, err
			}
			report.CreatedPosts++
		}
	}

	report.Noop = report.CreatedUsers == 0 && report.CreatedPosts == 0
	observability.RecordDatabaseStartupEvent(context.Background(), "seed", "success")
	return report, nil
}
