package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/agora-forum/agora/internal/domain"

	"gorm.io/gorm"
)

func TestPostRepositoryListPageOrdersNewestFirst(t *testing.T) {
	db := newRepoTestDB(t)
	repo := NewPostRepository(db)
	u := mustCreateUser(t, db, "a@example.com", "a")

	for _, title := range []string{"first", "second", "third"} {
		if err := repo.Create(&domain.Post{AuthorID: u.ID, Title: title, Body: "b"}); err != nil {
			t.Fatalf("create post: %v", err)
		}
	}

	page, err := repo.ListPage(PageRequest{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 3 || page.TotalPages != 2 || len(page.Items) != 2 {
		t.Fatalf("unexpected page shape: total=%d pages=%d items=%d", page.Total, page.TotalPages, len(page.Items))
	}
	if page.Items[0].Title != "third" {
		t.Fatalf("expected newest first, got %q", page.Items[0].Title)
	}
}

func TestPostRepositorySoftDeleteHidesPost(t *testing.T) {
	db := newRepoTestDB(t)
	repo := NewPostRepository(db)
	u := mustCreateUser(t, db, "a@example.com", "a")

	p := &domain.Post{AuthorID: u.ID, Title: "t", Body: "b"}
	if err := repo.Create(p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.SoftDelete(p.ID, time.Now()); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := repo.FindByID(p.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("deleted post still visible: %v", err)
	}
	page, err := repo.ListPage(PageRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 0 {
		t.Fatalf("deleted post still counted: %d", page.Total)
	}
}

func TestPostRepositoryIncrementViewCount(t *testing.T) {
	db := newRepoTestDB(t)
	repo := NewPostRepository(db)
	u := mustCreateUser(t, db, "a@example.com", "a")

	p := &domain.Post{AuthorID: u.ID, Title: "t", Body: "b"}
	if err := repo.Create(p); err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := repo.IncrementViewCount(p.ID); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}

	got, err := repo.FindByID(p.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ViewCount != 3 {
		t.Fatalf("expected 3 views, got %d", got.ViewCount)
	}
}

func TestPostRepositoryLikesUniquePerUser(t *testing.T) {
	db := newRepoTestDB(t)
	repo := NewPostRepository(db)
	u := mustCreateUser(t, db, "a@example.com", "a")

	p := &domain.Post{AuthorID: u.ID, Title: "t", Body: "b"}
	if err := repo.Create(p); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.AddLike(p.ID, u.ID); err != nil {
		t.Fatalf("like: %v", err)
	}
	if err := repo.AddLike(p.ID, u.ID); err == nil {
		t.Fatal("expected duplicate like to violate unique index")
	}

	n, err := repo.CountLikes(p.ID)
	if err != nil || n != 1 {
		t.Fatalf("count: n=%d err=%v", n, err)
	}

	removed, err := repo.RemoveLike(p.ID, u.ID)
	if err != nil || removed != 1 {
		t.Fatalf("remove: n=%d err=%v", removed, err)
	}
}

func TestPostRepositoryComments(t *testing.T) {
	db := newRepoTestDB(t)
	repo := NewPostRepository(db)
	u := mustCreateUser(t, db, "a@example.com", "a")

	p := &domain.Post{AuthorID: u.ID, Title: "t", Body: "b"}
	if err := repo.Create(p); err != nil {
		t.Fatalf("create: %v", err)
	}

	c1 := &domain.Comment{PostID: p.ID, AuthorID: u.ID, Body: "one"}
	c2 := &domain.Comment{PostID: p.ID, AuthorID: u.ID, Body: "two"}
	for _, c := range []*domain.Comment{c1, c2} {
		if err := repo.CreateComment(c); err != nil {
			t.Fatalf("create comment: %v", err)
		}
	}
	if err := repo.SoftDeleteComment(c1.ID, time.Now()); err != nil {
		t.Fatalf("delete comment: %v", err)
	}

	comments, err := repo.ListComments(p.ID)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(comments) != 1 || comments[0].Body != "two" {
		t.Fatalf("unexpected comments: %+v", comments)
	}
}
