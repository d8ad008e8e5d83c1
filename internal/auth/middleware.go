package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/restaurant-auth/pkg/util"
)

const claimsKey = "auth_claims"

// Middleware validates bearer access tokens on protected routes. It is
// stateless: verification never touches the store.
type Middleware struct {
	tokens *TokenManager
}

// NewMiddleware constructs the access guard.
func NewMiddleware(tokens *TokenManager) *Middleware {
	return &Middleware{tokens: tokens}
}

// Authenticate extracts and verifies the bearer token, attaching the
// verified claims to the request on success. A missing token is a 401;
// signature and expiry failures are 403 with distinct codes.
func (m *Middleware) Authenticate(c *fiber.Ctx) error {
	token, err := bearerToken(c)
	if err != nil {
		return err
	}

	claims, err := m.tokens.ParseAccessToken(token)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return apperrors.NewTokenExpired("token expired")
		}
		return apperrors.NewTokenInvalid()
	}

	c.Locals(claimsKey, claims)
	return c.Next()
}

// ClaimsFromContext retrieves the verified claims attached by Authenticate.
func ClaimsFromContext(c *fiber.Ctx) (*AccessClaims, bool) {
	val := c.Locals(claimsKey)
	if val == nil {
		return nil, false
	}
	claims, ok := val.(*AccessClaims)
	return claims, ok
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", apperrors.NewTokenMissing("token missing")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", apperrors.NewTokenMissing("invalid authorization header")
	}
	return parts[1], nil
}
