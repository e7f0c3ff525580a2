package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// refreshSecretBytes yields 256 bits of entropy per renewal secret.
const refreshSecretBytes = 32

type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"typ,omitempty"`
}

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// UserID parses the subject claim. Access grants carry the numeric user id
// and nothing else; no PII ever rides in the token payload.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid subject")
	}
	return uint(id), nil
}

// JWTManager signs and verifies the two credential kinds. Access grants
// are self-contained; renewal credentials wrap a 256-bit random secret in
// a signed envelope so a presented credential can be attributed to its
// subject even after its store row is gone, which is what makes reuse
// escalation safe to act on.
type JWTManager struct {
	issuer   string
	audience string
	secret   []byte
}

func NewJWTManager(issuer, audience, secret string) *JWTManager {
	return &JWTManager{issuer: issuer, audience: audience, secret: []byte(secret)}
}

func (m *JWTManager) SignAccessToken(userID uint, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{m.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: tokenTypeAccess,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// SignRefreshToken wraps a freshly minted renewal secret. The secret rides
// as the jti claim; the envelope adds subject and expiry under the same
// HMAC key as access grants.
func (m *JWTManager) SignRefreshToken(userID uint, secret string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{m.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        secret,
		},
		TokenType: tokenTypeRefresh,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *JWTManager) ParseAccessToken(raw string) (*Claims, error) {
	return m.parse(raw, tokenTypeAccess)
}

func (m *JWTManager) ParseRefreshToken(raw string) (*Claims, error) {
	return m.parse(raw, tokenTypeRefresh)
}

func (m *JWTManager) parse(raw, wantType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.TokenType != wantType {
		return nil, fmt.Errorf("wrong token type %q", claims.TokenType)
	}
	return claims, nil
}

// NewRefreshSecret mints an opaque renewal secret.
func NewRefreshSecret() (string, error) {
	return NewRandomString(refreshSecretBytes)
}

// HashRefreshSecret derives the storable form of a renewal secret. The
// pepper keeps a leaked database from being replayed directly.
func HashRefreshSecret(secret, pepper string) string {
	sum := hmac.New(sha256.New, []byte(pepper))
	sum.Write([]byte(secret))
	return hex.EncodeToString(sum.Sum(nil))
}

func NewCSRFToken() (string, error) {
	return NewRandomString(32)
}

func NewRandomString(numBytes int) (string, error) {
	buf := make([]byte, numBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ConstantTimeEquals compares two tokens without early exit, so the
// comparison itself cannot leak matching prefixes through timing.
func ConstantTimeEquals(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func GetCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
