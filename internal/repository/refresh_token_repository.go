package repository

import (
	"time"

	"github.com/agora-forum/agora/internal/domain"

	"gorm.io/gorm"
)

// RefreshTokenRepository stores peppered renewal-secret digests. Rows are
// deleted, never flagged: a digest that is absent at rotation time means the
// secret was already spent.
type RefreshTokenRepository interface {
	WithTx(tx *gorm.DB) RefreshTokenRepository
	Create(t *domain.RefreshToken) error
	FindValidByHash(hash string) (*domain.RefreshToken, error)
	DeleteByHash(hash string) (int64, error)
	DeleteByUserID(userID uint) (int64, error)
	CleanupExpired() (int64, error)
}

type GormRefreshTokenRepository struct{ db *gorm.DB }

func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &GormRefreshTokenRepository{db: db}
}

func (r *GormRefreshTokenRepository) WithTx(tx *gorm.DB) RefreshTokenRepository {
	return &GormRefreshTokenRepository{db: tx}
}

func (r *GormRefreshTokenRepository) Create(t *domain.RefreshToken) error {
	return r.db.Create(t).Error
}

// FindValidByHash returns the row for hash if it exists and has not
// expired. An expired row is removed on the way out so it can never be
// mistaken for a reused secret later.
func (r *GormRefreshTokenRepository) FindValidByHash(hash string) (*domain.RefreshToken, error) {
	var t domain.RefreshToken
	if err := r.db.Where("token_hash = ?", hash).First(&t).Error; err != nil {
		return nil, err
	}
	if !t.ExpiresAt.After(time.Now()) {
		r.db.Where("id = ?", t.ID).Delete(&domain.RefreshToken{})
		return nil, gorm.ErrRecordNotFound
	}
	return &t, nil
}

// DeleteByHash removes the row for hash and reports how many rows were hit.
// A zero count under a valid signature is the reuse signal.
func (r *GormRefreshTokenRepository) DeleteByHash(hash string) (int64, error) {
	res := r.db.Where("token_hash = ?", hash).Delete(&domain.RefreshToken{})
	return res.RowsAffected, res.Error
}

func (r *GormRefreshTokenRepository) DeleteByUserID(userID uint) (int64, error) {
	res := r.db.Where("user_id = ?", userID).Delete(&domain.RefreshToken{})
	return res.RowsAffected, res.Error
}

func (r *GormRefreshTokenRepository) CleanupExpired() (int64, error) {
	res := r.db.Where("expires_at <= ?", time.Now()).Delete(&domain.RefreshToken{})
	return res.RowsAffected, res.Error
}
