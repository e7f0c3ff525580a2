package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agora-forum/agora/internal/config"
	"github.com/agora-forum/agora/internal/domain"
	"github.com/agora-forum/agora/internal/observability"
	"github.com/agora-forum/agora/internal/repository"
	"github.com/agora-forum/agora/internal/security"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserService owns the account lifecycle from registration to withdrawal.
// Every multi-statement write goes through the transactional coordinator.
type UserService struct {
	cfg       *config.Config
	db        *gorm.DB
	userRepo  repository.UserRepository
	tokenRepo repository.RefreshTokenRepository
}

// ProfilePatch distinguishes "absent" from "set to empty": nil pointers
// leave the column byte-for-byte untouched.
type ProfilePatch struct {
	Nickname        *string `json:"nickname"`
	ProfileImageURL *string `json:"profile_image_url"`
}

func NewUserService(cfg *config.Config, db *gorm.DB, userRepo repository.UserRepository, tokenRepo repository.RefreshTokenRepository) *UserService {
	return &UserService{cfg: cfg, db: db, userRepo: userRepo, tokenRepo: tokenRepo}
}

func (s *UserService) GetByID(id uint) (*domain.User, error) {
	u, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// Register creates an active account. Uniqueness is scoped to active
// rows, so identifiers freed by withdrawal are immediately reusable. The
// partial unique indexes back the same rule under concurrent inserts.
func (s *UserService) Register(ctx context.Context, email, nickname, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validateNickname(nickname); err != nil {
		return nil, err
	}
	if err := validatePassword(password, s.cfg.PasswordMinLength, s.cfg.PasswordMaxLength); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{Email: email, Nickname: nickname, PasswordHash: hash}
	err = repository.Atomic(ctx, s.db, func(tx *gorm.DB) error {
		scoped := s.userRepo.WithTx(tx)
		if _, err := scoped.FindByEmail(email); err == nil {
			return ErrEmailTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if _, err := scoped.FindByNickname(nickname); err == nil {
			return ErrNicknameTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return scoped.Create(user)
	})
	if err != nil {
		return nil, err
	}
	observability.RecordUserRegistered(ctx)
	return user, nil
}

// UpdateProfile applies the patch through a fixed column allow-list and
// returns the row re-read inside the same unit.
func (s *UserService) UpdateProfile(ctx context.Context, id uint, patch ProfilePatch) (*domain.User, error) {
	fields := map[string]any{}
	if patch.Nickname != nil {
		if err := validateNickname(*patch.Nickname); err != nil {
			return nil, err
		}
		fields["nickname"] = *patch.Nickname
	}
	if patch.ProfileImageURL != nil {
		fields["profile_image_url"] = *patch.ProfileImageURL
	}
	if len(fields) == 0 {
		return s.GetByID(id)
	}

	var updated *domain.User
	err := repository.Atomic(ctx, s.db, func(tx *gorm.DB) error {
		scoped := s.userRepo.WithTx(tx)
		if nick, ok := fields["nickname"].(string); ok {
			if holder, err := scoped.FindByNickname(nick); err == nil && holder.ID != id {
				return ErrNicknameTaken
			} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		if err := scoped.UpdateFields(id, fields); err != nil {
			return err
		}
		var err error
		updated, err = scoped.FindByID(id)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return updated, nil
}

// ChangeEmail conflicts only with an *active* holder of the new value; a
// withdrawn account holding it does not block the change.
func (s *UserService) ChangeEmail(ctx context.Context, id uint, newEmail string) (*domain.User, error) {
	newEmail = normalizeEmail(newEmail)
	if err := validateEmail(newEmail); err != nil {
		return nil, err
	}

	var updated *domain.User
	err := repository.Atomic(ctx, s.db, func(tx *gorm.DB) error {
		scoped := s.userRepo.WithTx(tx)
		if holder, err := scoped.FindByEmail(newEmail); err == nil {
			if holder.ID == id {
				updated = holder
				return nil
			}
			return ErrEmailTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := scoped.UpdateFields(id, map[string]any{"email": newEmail}); err != nil {
			return err
		}
		var err error
		updated, err = scoped.FindByID(id)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return updated, nil
}

// ChangePassword verifies the current password, stores the new hash and
// revokes every outstanding renewal credential in the same unit.
func (s *UserService) ChangePassword(ctx context.Context, id uint, currentPassword, newPassword string) error {
	if err := validatePassword(newPassword, s.cfg.PasswordMinLength, s.cfg.PasswordMaxLength); err != nil {
		return err
	}
	if currentPassword == newPassword {
		return fmt.Errorf("%w: new password must differ", ErrValidation)
	}

	user, err := s.GetByID(id)
	if err != nil {
		return err
	}
	ok, err := security.VerifyPassword(user.PasswordHash, currentPassword)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCredentials
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}
	var revoked int64
	err = repository.Atomic(ctx, s.db, func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).UpdateFields(id, map[string]any{"password_hash": hash}); err != nil {
			return err
		}
		revoked, err = s.tokenRepo.WithTx(tx).DeleteByUserID(id)
		return err
	})
	if err != nil {
		return err
	}
	observability.RecordSessionsRevoked(ctx, "password_change", revoked)
	return nil
}

// Withdraw soft-deletes the account after a password check. One unit:
// mark deleted, replace email/nickname with anonymized placeholders, and
// delete every credential record. Posts and comments stay, linked by id.
func (s *UserService) Withdraw(ctx context.Context, id uint, password string) error {
	user, err := s.GetByID(id)
	if err != nil {
		return err
	}
	ok, err := security.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCredentials
	}

	token := uuid.NewString()
	anonEmail := fmt.Sprintf("withdrawn-%s@withdrawn.invalid", token)
	anonNickname := "withdrawn-" + token[:8]

	err = repository.Atomic(ctx, s.db, func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).Withdraw(id, anonEmail, anonNickname, time.Now()); err != nil {
			return err
		}
		_, err := s.tokenRepo.WithTx(tx).DeleteByUserID(id)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	observability.RecordUserWithdrawn(ctx)
	return nil
}
