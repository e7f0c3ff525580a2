package repository

import (
	"time"

	"github.com/agora-forum/agora/internal/domain"

	"gorm.io/gorm"
)

type PostRepository interface {
	WithTx(tx *gorm.DB) PostRepository
	Create(post *domain.Post) error
	FindByID(id uint) (*domain.Post, error)
	ListPage(req PageRequest) (*PageResult[domain.Post], error)
	UpdateFields(id uint, fields map[string]any) error
	SoftDelete(id uint, when time.Time) error
	IncrementViewCount(id uint) error

	CreateComment(comment *domain.Comment) error
	FindCommentByID(id uint) (*domain.Comment, error)
	ListComments(postID uint) ([]domain.Comment, error)
	SoftDeleteComment(id uint, when time.Time) error

	AddLike(postID, userID uint) error
	RemoveLike(postID, userID uint) (int64, error)
	CountLikes(postID uint) (int64, error)
}

type GormPostRepository struct{ db *gorm.DB }

func NewPostRepository(db *gorm.DB) PostRepository { return &GormPostRepository{db: db} }

func (r *GormPostRepository) WithTx(tx *gorm.DB) PostRepository {
	return &GormPostRepository{db: tx}
}

func (r *GormPostRepository) Create(post *domain.Post) error { return r.db.Create(post).Error }

func (r *GormPostRepository) FindByID(id uint) (*domain.Post, error) {
	var p domain.Post
	err := retryRead(func() error {
		return r.db.Where("id = ? AND deleted_at IS NULL", id).First(&p).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormPostRepository) ListPage(req PageRequest) (*PageResult[domain.Post], error) {
	req = normalizePageRequest(req)

	var total int64
	if err := r.db.Model(&domain.Post{}).Where("deleted_at IS NULL").Count(&total).Error; err != nil {
		return nil, err
	}

	var posts []domain.Post
	err := retryRead(func() error {
		return r.db.Where("deleted_at IS NULL").
			Order("created_at DESC, id DESC").
			Offset(req.offset()).
			Limit(req.PageSize).
			Find(&posts).Error
	})
	if err != nil {
		return nil, err
	}

	return &PageResult[domain.Post]{
		Items:      posts,
		Page:       req.Page,
		PageSize:   req.PageSize,
		Total:      total,
		TotalPages: calcTotalPages(total, req.PageSize),
	}, nil
}

func (r *GormPostRepository) UpdateFields(id uint, fields map[string]any) error {
	res := r.db.Model(&domain.Post{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormPostRepository) SoftDelete(id uint, when time.Time) error {
	res := r.db.Model(&domain.Post{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", when)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IncrementViewCount bumps the counter in SQL so concurrent readers never
// lose updates to a read-modify-write race.
func (r *GormPostRepository) IncrementViewCount(id uint) error {
	res := r.db.Model(&domain.Post{}).
		Where("id = ? AND deleted_at IS NULL", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormPostRepository) CreateComment(comment *domain.Comment) error {
	return r.db.Create(comment).Error
}

func (r *GormPostRepository) FindCommentByID(id uint) (*domain.Comment, error) {
	var c domain.Comment
	err := r.db.Where("id = ? AND deleted_at IS NULL", id).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormPostRepository) ListComments(postID uint) ([]domain.Comment, error) {
	var comments []domain.Comment
	err := retryRead(func() error {
		return r.db.Where("post_id = ? AND deleted_at IS NULL", postID).
			Order("created_at ASC, id ASC").
			Find(&comments).Error
	})
	return comments, err
}

func (r *GormPostRepository) SoftDeleteComment(id uint, when time.Time) error {
	res := r.db.Model(&domain.Comment{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", when)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormPostRepository) AddLike(postID, userID uint) error {
	return r.db.Create(&domain.PostLike{PostID: postID, UserID: userID}).Error
}

func (r *GormPostRepository) RemoveLike(postID, userID uint) (int64, error) {
	res := r.db.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&domain.PostLike{})
	return res.RowsAffected, res.Error
}

func (r *GormPostRepository) CountLikes(postID uint) (int64, error) {
	var n int64
	err := r.db.Model(&domain.PostLike{}).Where("post_id = ?", postID).Count(&n).Error
	return n, err
}
