package service

import (
	"context"
	"errors"
	"time"

	"github.com/agora-forum/agora/internal/domain"
	"github.com/agora-forum/agora/internal/observability"
	"github.com/agora-forum/agora/internal/repository"
	"github.com/agora-forum/agora/internal/security"

	"gorm.io/gorm"
)

// TokenService issues, rotates and revokes the credential pair: a
// stateless access grant plus a store-backed renewal credential.
type TokenService struct {
	jwtMgr     *security.JWTManager
	db         *gorm.DB
	tokenRepo  repository.RefreshTokenRepository
	pepper     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenService(jwtMgr *security.JWTManager, db *gorm.DB, tokenRepo repository.RefreshTokenRepository, pepper string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{jwtMgr: jwtMgr, db: db, tokenRepo: tokenRepo, pepper: pepper, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

func (s *TokenService) AccessTTL() time.Duration  { return s.accessTTL }
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// Issue mints a fresh credential pair for user and persists the renewal
// credential's peppered hash. Multiple live credentials per user are
// expected; each device holds its own.
func (s *TokenService) Issue(ctx context.Context, user *domain.User, ua, ip string) (access, refresh, csrf string, err error) {
	access, err = s.jwtMgr.SignAccessToken(user.ID, s.accessTTL)
	if err != nil {
		return "", "", "", err
	}
	secret, err := security.NewRefreshSecret()
	if err != nil {
		return "", "", "", err
	}
	refresh, err = s.jwtMgr.SignRefreshToken(user.ID, secret, s.refreshTTL)
	if err != nil {
		return "", "", "", err
	}
	hash := security.HashRefreshSecret(refresh, s.pepper)
	err = s.tokenRepo.Create(&domain.RefreshToken{
		UserID:    user.ID,
		TokenHash: hash,
		UserAgent: ua,
		IP:        ip,
		ExpiresAt: time.Now().Add(s.refreshTTL),
	})
	if err != nil {
		return "", "", "", err
	}
	csrf, err = security.NewCSRFToken()
	if err != nil {
		return "", "", "", err
	}
	return access, refresh, csrf, nil
}

// ValidateAccess checks an access grant and returns the subject id.
// Expired, malformed and forged grants are indistinguishable to callers.
func (s *TokenService) ValidateAccess(raw string) (uint, error) {
	claims, err := s.jwtMgr.ParseAccessToken(raw)
	if err != nil {
		return 0, ErrInvalidCredentials
	}
	id, err := claims.UserID()
	if err != nil {
		return 0, ErrInvalidCredentials
	}
	return id, nil
}

// Rotate spends the presented renewal credential and issues a new pair.
// The spent row is deleted and the replacement inserted in one unit. A
// signature-valid credential whose row is already gone was spent before:
// that is the reuse signal, and every credential of the subject is revoked
// inside the same unit. Callers always see ErrInvalidCredentials for it.
func (s *TokenService) Rotate(ctx context.Context, refreshToken string, userFetcher func(id uint) (*domain.User, error), ua, ip string) (*domain.User, string, string, string, error) {
	claims, err := s.jwtMgr.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, "", "", "", ErrInvalidCredentials
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, "", "", "", ErrInvalidCredentials
	}

	hash := security.HashRefreshSecret(refreshToken, s.pepper)

	secret, err := security.NewRefreshSecret()
	if err != nil {
		return nil, "", "", "", err
	}
	newRefresh, err := s.jwtMgr.SignRefreshToken(userID, secret, s.refreshTTL)
	if err != nil {
		return nil, "", "", "", err
	}

	reused := false
	err = repository.Atomic(ctx, s.db, func(tx *gorm.DB) error {
		scoped := s.tokenRepo.WithTx(tx)
		old, err := scoped.FindValidByHash(hash)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Signature valid but no live row: the credential was
				// already spent. Kill every session of the subject.
				reused = true
				if _, err := scoped.DeleteByUserID(userID); err != nil {
					return err
				}
				return nil
			}
			return err
		}
		if old.UserID != userID {
			return ErrInvalidCredentials
		}
		n, err := scoped.DeleteByHash(hash)
		if err != nil {
			return err
		}
		if n == 0 {
			// A concurrent rotation spent it between lookup and delete.
			reused = true
			if _, err := scoped.DeleteByUserID(userID); err != nil {
				return err
			}
			return nil
		}
		return scoped.Create(&domain.RefreshToken{
			UserID:    userID,
			TokenHash: security.HashRefreshSecret(newRefresh, s.pepper),
			UserAgent: ua,
			IP:        ip,
			ExpiresAt: time.Now().Add(s.refreshTTL),
		})
	})
	if err != nil {
		return nil, "", "", "", err
	}
	if reused {
		observability.RecordRefreshReuseDetected(ctx)
		return nil, "", "", "", ErrInvalidCredentials
	}

	user, err := userFetcher(userID)
	if err != nil {
		return nil, "", "", "", err
	}
	access, err := s.jwtMgr.SignAccessToken(userID, s.accessTTL)
	if err != nil {
		return nil, "", "", "", err
	}
	csrf, err := security.NewCSRFToken()
	if err != nil {
		return nil, "", "", "", err
	}
	return user, access, newRefresh, csrf, nil
}

// Revoke deletes the row for the presented credential. Unknown or already
// spent credentials are a no-op; logout is idempotent.
func (s *TokenService) Revoke(refreshToken string) error {
	hash := security.HashRefreshSecret(refreshToken, s.pepper)
	_, err := s.tokenRepo.DeleteByHash(hash)
	return err
}

func (s *TokenService) RevokeAll(ctx context.Context, userID uint, reason string) error {
	n, err := s.tokenRepo.DeleteByUserID(userID)
	if err != nil {
		return err
	}
	observability.RecordSessionsRevoked(ctx, reason, n)
	return nil
}

// CleanupExpired backs the maintenance command; the hot path relies on
// lazy expiry during lookup.
func (s *TokenService) CleanupExpired() (int64, error) {
	return s.tokenRepo.CleanupExpired()
}
