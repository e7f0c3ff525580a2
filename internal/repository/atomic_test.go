package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agora-forum/agora/internal/domain"

	"gorm.io/gorm"
)

func TestAtomicCommitsAllWrites(t *testing.T) {
	db := newRepoTestDB(t)
	users := NewUserRepository(db)
	tokens := NewRefreshTokenRepository(db)

	err := Atomic(context.Background(), db, func(tx *gorm.DB) error {
		u := &domain.User{Email: "a@example.com", Nickname: "a", PasswordHash: "x"}
		if err := users.WithTx(tx).Create(u); err != nil {
			return err
		}
		return tokens.WithTx(tx).Create(&domain.RefreshToken{
			UserID: u.ID, TokenHash: "h1", ExpiresAt: time.Now().Add(time.Hour),
		})
	})
	if err != nil {
		t.Fatalf("atomic: %v", err)
	}

	if _, err := users.FindByEmail("a@example.com"); err != nil {
		t.Fatalf("user not committed: %v", err)
	}
	if _, err := tokens.FindValidByHash("h1"); err != nil {
		t.Fatalf("token not committed: %v", err)
	}
}

func TestAtomicRollsBackEveryStatementOnFailure(t *testing.T) {
	db := newRepoTestDB(t)
	users := NewUserRepository(db)
	mustCreateUser(t, db, "taken@example.com", "taken")

	err := Atomic(context.Background(), db, func(tx *gorm.DB) error {
		scoped := users.WithTx(tx)
		if err := scoped.Create(&domain.User{Email: "fresh@example.com", Nickname: "fresh", PasswordHash: "x"}); err != nil {
			return err
		}
		// Second statement collides with the unique nickname index.
		return scoped.Create(&domain.User{Email: "other@example.com", Nickname: "taken", PasswordHash: "x"})
	})
	if err == nil {
		t.Fatal("expected unique violation to fail the unit")
	}

	if _, err := users.FindByEmail("fresh@example.com"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("first write leaked out of the rolled-back unit: %v", err)
	}
}

func TestAtomicReturnsCallbackError(t *testing.T) {
	db := newRepoTestDB(t)
	sentinel := errors.New("abort")

	err := Atomic(context.Background(), db, func(tx *gorm.DB) error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel, got %v", err)
	}
}
