package service

import (
	"context"

	"github.com/agora-forum/agora/internal/domain"
	"github.com/agora-forum/agora/internal/repository"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, email, password, ua, ip string) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken, ua, ip string) (*LoginResult, error)
	Logout(ctx context.Context, refreshToken string) error
}

type UserServiceInterface interface {
	GetByID(id uint) (*domain.User, error)
	Register(ctx context.Context, email, nickname, password string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id uint, patch ProfilePatch) (*domain.User, error)
	ChangeEmail(ctx context.Context, id uint, newEmail string) (*domain.User, error)
	ChangePassword(ctx context.Context, id uint, currentPassword, newPassword string) error
	Withdraw(ctx context.Context, id uint, password string) error
}

type PostServiceInterface interface {
	Create(ctx context.Context, authorID uint, input CreatePostInput) (*domain.Post, error)
	List(ctx context.Context, req repository.PageRequest) (*repository.PageResult[domain.Post], error)
	Get(ctx context.Context, id uint) (*domain.Post, error)
	Update(ctx context.Context, actorID, id uint, input UpdatePostInput) (*domain.Post, error)
	Delete(ctx context.Context, actorID, id uint) error
	AddComment(ctx context.Context, authorID, postID uint, body string) (*domain.Comment, error)
	ListComments(ctx context.Context, postID uint) ([]domain.Comment, error)
	DeleteComment(ctx context.Context, actorID, commentID uint) error
	ToggleLike(ctx context.Context, actorID, postID uint) (bool, int64, error)
}

// CredentialValidator is the narrow capability the auth middleware needs:
// turn a presented access grant into a subject id or fail.
type CredentialValidator interface {
	ValidateAccess(raw string) (uint, error)
}
