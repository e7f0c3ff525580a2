package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/agora-forum/agora/internal/domain"
	"github.com/agora-forum/agora/internal/observability"
	"github.com/agora-forum/agora/internal/repository"

	"gorm.io/gorm"
)

var (
	ErrPostInvalidTitle   = errors.New("title must be between 2 and 200 characters")
	ErrPostInvalidBody    = errors.New("body is required")
	ErrCommentInvalidBody = errors.New("comment must be between 1 and 2000 characters")
)

type CreatePostInput struct {
	Title    string
	Body     string
	ImageURL string
}

type UpdatePostInput struct {
	Title    *string
	Body     *string
	ImageURL *string
}

// PostService is the forum-content side of the system. Ownership is the
// only authorization rule: authors mutate their own rows, nobody else's.
type PostService struct {
	db   *gorm.DB
	repo repository.PostRepository
}

func NewPostService(db *gorm.DB, repo repository.PostRepository) *PostService {
	return &PostService{db: db, repo: repo}
}

func (s *PostService) Create(ctx context.Context, authorID uint, input CreatePostInput) (*domain.Post, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordPostOperation(ctx, "create", outcome, time.Since(start)) }()

	title := strings.TrimSpace(input.Title)
	body := strings.TrimSpace(input.Body)
	if len(title) < 2 || len(title) > 200 {
		outcome = "bad_request"
		return nil, ErrPostInvalidTitle
	}
	if body == "" {
		outcome = "bad_request"
		return nil, ErrPostInvalidBody
	}

	post := &domain.Post{AuthorID: authorID, Title: title, Body: body, ImageURL: input.ImageURL}
	if err := s.repo.Create(post); err != nil {
		outcome = "error"
		return nil, err
	}
	return post, nil
}

func (s *PostService) List(ctx context.Context, req repository.PageRequest) (*repository.PageResult[domain.Post], error) {
	return s.repo.ListPage(req)
}

// Get returns the post and bumps its view count inside one unit, so the
// read always reflects the visit it is part of.
func (s *PostService) Get(ctx context.Context, id uint) (*domain.Post, error) {
	var post *domain.Post
	err := repository.Atomic(ctx, s.db, func(tx *gorm.DB) error {
		scoped := s.repo.WithTx(tx)
		if err := scoped.IncrementViewCount(id); err != nil {
			return err
		}
		var err error
		post, err = scoped.FindByID(id)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return post, nil
}

func (s *PostService) Update(ctx context.Context, actorID, id uint, input UpdatePostInput) (*domain.Post, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordPostOperation(ctx, "update", outcome, time.Since(start)) }()

	fields := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if len(title) < 2 || len(title) > 200 {
			outcome = "bad_request"
			return nil, ErrPostInvalidTitle
		}
		fields["title"] = title
	}
	if input.Body != nil {
		body := strings.TrimSpace(*input.Body)
		if body == "" {
			outcome = "bad_request"
			return nil, ErrPostInvalidBody
		}
		fields["body"] = body
	}
	if input.ImageURL != nil {
		fields["image_url"] = *input.ImageURL
	}

	var updated *domain.Post
	err := repository.Atomic(ctx, s.db, func(tx *gorm.DB) error {
		scoped := s.repo.WithTx(tx)
		post, err := scoped.FindByID(id)
		if err != nil {
			return err
		}
		if post.AuthorID != actorID {
			return ErrForbidden
		}
		if len(fields) > 0 {
			if err := scoped.UpdateFields(id, fields); err != nil {
				return err
			}
		}
		updated, err = scoped.FindByID(id)
		return err
	})
	if err != nil {
		outcome = "error"
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return updated, nil
}

func (s *PostService) Delete(ctx context.Context, actorID, id uint) error {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordPostOperation(ctx, "delete", outcome, time.Since(start)) }()

	err := repository.Atomic(ctx, s.db, func(tx *gorm.DB) error {
		scoped := s.repo.WithTx(tx)
		post, err := scoped.FindByID(id)
		if err != nil {
			return err
		}
		if post.AuthorID != actorID {
			return ErrForbidden
		}
		return scoped.SoftDelete(id, time.Now())
	})
	if err != nil {
		outcome = "error"
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
	}
	return err
}

func (s *PostService) AddComment(ctx context.Context, authorID, postID uint, body string) (*domain.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" || len(body) > 2000 {
		return nil, ErrCommentInvalidBody
	}

	comment := &domain.Comment{PostID: postID, AuthorID: authorID, Body: body}
	err := repository.Atomic(ctx, s.db, func(tx *gorm.DB) error {
		scoped := s.repo.WithTx(tx)
		if _, err := scoped.FindByID(postID); err != nil {
			return err
		}
		return scoped.CreateComment(comment)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return comment, nil
}

func (s *PostService) ListComments(ctx context.Context, postID uint) ([]domain.Comment, error) {
	if _, err := s.repo.FindByID(postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.repo.ListComments(postID)
}

func (s *PostService) DeleteComment(ctx context.Context, actorID, commentID uint) error {
	err := repository.Atomic(ctx, s.db, func(tx *gorm.DB) error {
		scoped := s.repo.WithTx(tx)
		comment, err := scoped.FindCommentByID(commentID)
		if err != nil {
			return err
		}
		if comment.AuthorID != actorID {
			return ErrForbidden
		}
		return scoped.SoftDeleteComment(commentID, time.Now())
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// ToggleLike flips the actor's like on a post and returns the new state
// and count. The unique (post,user) index makes the flip race-safe.
func (s *PostService) ToggleLike(ctx context.Context, actorID, postID uint) (liked bool, count int64, err error) {
	err = repository.Atomic(ctx, s.db, func(tx *gorm.DB) error {
		scoped := s.repo.WithTx(tx)
		if _, err := scoped.FindByID(postID); err != nil {
			return err
		}
		removed, err := scoped.RemoveLike(postID, actorID)
		if err != nil {
			return err
		}
		if removed == 0 {
			if err := scoped.AddLike(postID, actorID); err != nil {
				return err
			}
			liked = true
		}
		count, err = scoped.CountLikes(postID)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, 0, ErrNotFound
		}
		return false, 0, err
	}
	return liked, count, nil
}
