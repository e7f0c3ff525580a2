package service

import (
	"context"
	"errors"
	"time"

	"github.com/agora-forum/agora/internal/config"
	"github.com/agora-forum/agora/internal/domain"
	"github.com/agora-forum/agora/internal/repository"
	"github.com/agora-forum/agora/internal/security"

	"gorm.io/gorm"
)

type AuthService struct {
	cfg      *config.Config
	tokenSvc *TokenService
	userRepo repository.UserRepository
}

type LoginResult struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"-"`
	RefreshToken string       `json:"-"`
	CSRFToken    string       `json:"csrf_token"`
	ExpiresAt    time.Time    `json:"expires_at"`
}

func NewAuthService(cfg *config.Config, tokenSvc *TokenService, userRepo repository.UserRepository) *AuthService {
	return &AuthService{cfg: cfg, tokenSvc: tokenSvc, userRepo: userRepo}
}

// Login verifies the password and issues a credential pair. The unknown
// email path burns a dummy argon2 verification so both failure modes cost
// one hash; callers cannot time-probe which emails exist.
func (s *AuthService) Login(ctx context.Context, email, password, ua, ip string) (*LoginResult, error) {
	email = normalizeEmail(email)
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			security.VerifyDummy(password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	ok, err := security.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	access, refresh, csrf, err := s.tokenSvc.Issue(ctx, user, ua, ip)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
		CSRFToken:    csrf,
		ExpiresAt:    time.Now().Add(s.cfg.JWTAccessTTL),
	}, nil
}

// Refresh rotates the renewal credential. Reuse detection and escalation
// live in the token service; from here every failure is UNAUTHENTICATED.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, ua, ip string) (*LoginResult, error) {
	user, access, newRefresh, csrf, err := s.tokenSvc.Rotate(ctx, refreshToken, s.userRepo.FindByID, ua, ip)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return &LoginResult{
		User:         user,
		AccessToken:  access,
		RefreshToken: newRefresh,
		CSRFToken:    csrf,
		ExpiresAt:    time.Now().Add(s.cfg.JWTAccessTTL),
	}, nil
}

// Logout revokes the presented renewal credential only; other devices
// keep their sessions. Revoking an already spent credential is a no-op.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokenSvc.Revoke(refreshToken)
}

// ActiveUserValidator is the stateful access-grant check: the signature
// must verify and the subject must still be an active account. Withdrawn
// accounts lose their outstanding grants immediately instead of at expiry.
type ActiveUserValidator struct {
	tokenSvc *TokenService
	userRepo repository.UserRepository
}

func NewActiveUserValidator(tokenSvc *TokenService, userRepo repository.UserRepository) *ActiveUserValidator {
	return &ActiveUserValidator{tokenSvc: tokenSvc, userRepo: userRepo}
}

func (v *ActiveUserValidator) ValidateAccess(raw string) (uint, error) {
	id, err := v.tokenSvc.ValidateAccess(raw)
	if err != nil {
		return 0, err
	}
	if _, err := v.userRepo.FindByID(id); err != nil {
		return 0, ErrInvalidCredentials
	}
	return id, nil
}
