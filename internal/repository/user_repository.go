package repository

import (
	"time"

	"github.com/agora-forum/agora/internal/domain"

	"gorm.io/gorm"
)

// UserRepository reads and writes user rows. Every lookup is scoped to
// active accounts; withdrawn rows stay in the table but are invisible here.
type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository
	FindByID(id uint) (*domain.User, error)
	FindByEmail(email string) (*domain.User, error)
	FindByNickname(nickname string) (*domain.User, error)
	Create(user *domain.User) error
	UpdateFields(id uint, fields map[string]any) error
	Withdraw(id uint, anonymizedEmail, anonymizedNickname string, when time.Time) error
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

// WithTx rebinds the repository onto a transaction handle so its writes
// join the caller's atomic unit.
func (r *GormUserRepository) WithTx(tx *gorm.DB) UserRepository {
	return &GormUserRepository{db: tx}
}

func (r *GormUserRepository) FindByID(id uint) (*domain.User, error) {
	var u domain.User
	err := r.db.Where("id = ? AND deleted_at IS NULL", id).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) FindByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.db.Where("email = ? AND deleted_at IS NULL", email).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) FindByNickname(nickname string) (*domain.User, error) {
	var u domain.User
	err := r.db.Where("nickname = ? AND deleted_at IS NULL", nickname).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) Create(user *domain.User) error { return r.db.Create(user).Error }

// UpdateFields applies a partial update. Callers build the field map from
// an explicit column allow-list; nothing here widens it.
func (r *GormUserRepository) UpdateFields(id uint, fields map[string]any) error {
	res := r.db.Model(&domain.User{}).
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

// Withdraw marks the account deleted and replaces its identifying columns
// in the same statement, freeing the email and nickname for re-use.
func (r *GormUserRepository) Withdraw(id uint, anonymizedEmail, anonymizedNickname string, when time.Time) error {
	res := r.db.Model(&domain.User{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]any{
			"deleted_at": when,
			"email":      anonymizedEmail,
			"nickname":   anonymizedNickname,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
