package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/restaurant-auth/internal/api/dto"
	"github.com/spec-kit/restaurant-auth/internal/auth"
	"github.com/spec-kit/restaurant-auth/internal/domain"
	"github.com/spec-kit/restaurant-auth/internal/service"
	apperrors "github.com/spec-kit/restaurant-auth/pkg/util"
)

// UsersHandler exposes user listing and role assignment.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// List handles GET /api/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.auth.ListUsers(c.Context())
	if err != nil {
		return err
	}

	responses := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(responses)
}

// AssignRole handles PUT /api/users/:userId. Reachable only through the
// admin role guard.
func (h *UsersHandler) AssignRole(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if userID == "" {
		return apperrors.NewValidationError("userId required", nil)
	}

	var req dto.AssignRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	actorID := ""
	if claims, ok := auth.ClaimsFromContext(c); ok {
		actorID = claims.UserID
	}

	user, err := h.auth.AssignRole(c.Context(), userID, domain.Role(req.Role), actorID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "role updated to " + string(user.Role),
		"user":    dto.NewUserResponse(user),
	})
}
