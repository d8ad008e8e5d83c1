package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/restaurant-auth/internal/domain"
	apperrors "github.com/spec-kit/restaurant-auth/pkg/util"
)

// RequireRole ensures the authenticated claims carry the required role.
// It must run after Authenticate. A role mismatch is ACCESS_DENIED, which
// callers must not conflate with TOKEN_INVALID even though both are 403s.
func RequireRole(required domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			return apperrors.NewTokenMissing("token missing")
		}
		if claims.Role != required {
			return apperrors.NewAccessDenied("access denied")
		}
		return c.Next()
	}
}
