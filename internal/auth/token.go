package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/restaurant-auth/internal/domain"
)

// Sentinel token failures. Expiry and signature/format problems are distinct
// so callers can pick the right response (re-login vs. reject).
var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

// TokenConfig carries the immutable signing material and validity windows.
// Access and refresh tokens are signed with independent secrets so that
// possession of one kind can never forge the other.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenManager issues and validates the two JWT kinds.
type TokenManager struct {
	cfg TokenConfig
}

// NewTokenManager builds a manager, applying default validity windows.
func NewTokenManager(cfg TokenConfig) *TokenManager {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &TokenManager{cfg: cfg}
}

// AccessClaims is the payload of a short-lived access token.
type AccessClaims struct {
	UserID string      `json:"id"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a long-lived renewal token. It carries no
// role: privileges are always re-read at access-token mint time.
type RefreshClaims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// AccessTTL returns the configured access-token validity window.
func (tm *TokenManager) AccessTTL() time.Duration {
	return tm.cfg.AccessTTL
}

// RefreshTTL returns the configured refresh-token validity window.
func (tm *TokenManager) RefreshTTL() time.Duration {
	return tm.cfg.RefreshTTL
}

// GenerateAccessToken signs a short-lived token embedding id, email and role.
func (tm *TokenManager) GenerateAccessToken(user *domain.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(tm.cfg.AccessTTL)
	claims := &AccessClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.cfg.AccessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// GenerateRefreshToken signs a long-lived token embedding id and email.
func (tm *TokenManager) GenerateRefreshToken(user *domain.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(tm.cfg.RefreshTTL)
	claims := &RefreshClaims{
		UserID: user.ID,
		Email:  user.Email,
		// A unique jti keeps concurrent logins from minting identical
		// tokens within the same second.
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.cfg.RefreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseAccessToken validates signature and expiry of an access token.
func (tm *TokenManager) ParseAccessToken(tokenStr string) (*AccessClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &AccessClaims{}, tm.keyFor(tm.cfg.AccessSecret))
	if err != nil {
		return nil, mapParseError(err)
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ParseRefreshToken validates only the signature of a refresh token. The
// embedded expiry is deliberately not enforced here: the persisted record's
// expiry is the authoritative field and the renewal protocol checks it.
func (tm *TokenManager) ParseRefreshToken(tokenStr string) (*RefreshClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &RefreshClaims{},
		tm.keyFor(tm.cfg.RefreshSecret), jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, mapParseError(err)
	}

	claims, ok := parsed.Claims.(*RefreshClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (tm *TokenManager) keyFor(secret []byte) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}
}

func mapParseError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return ErrTokenExpired
	}
	return ErrTokenInvalid
}
