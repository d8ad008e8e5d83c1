package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/restaurant-auth/internal/api/dto"
	"github.com/spec-kit/restaurant-auth/internal/auth"
	"github.com/spec-kit/restaurant-auth/internal/domain"
	"github.com/spec-kit/restaurant-auth/internal/ratelimit"
	"github.com/spec-kit/restaurant-auth/internal/service"
	apperrors "github.com/spec-kit/restaurant-auth/pkg/util"
)

// AuthHandler exposes registration, login and token renewal endpoints.
type AuthHandler struct {
	auth    *service.AuthService
	limiter *ratelimit.LoginLimiter
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, limiter *ratelimit.LoginLimiter) *AuthHandler {
	return &AuthHandler{auth: authService, limiter: limiter}
}

// Register handles POST /api/users.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.auth.Register(c.Context(), registerInput(req), nil)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "user registered successfully",
		"user":    dto.NewUserResponse(user),
	})
}

// Provision handles POST /api/admin/users. The admin role guard runs before
// this handler, so the provisioned role here is explicitly authorized.
func (h *AuthHandler) Provision(c *fiber.Ctx) error {
	var req dto.ProvisionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	var provisioned *domain.Role
	if req.Role != "" {
		role := domain.Role(req.Role)
		provisioned = &role
	}

	user, err := h.auth.Register(c.Context(), registerInput(req.RegisterRequest), provisioned)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "user provisioned successfully",
		"user":    dto.NewUserResponse(user),
	})
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	if h.limiter != nil && !h.limiter.Allow(c.Context(), req.Email, c.IP()) {
		return apperrors.NewRateLimited("too many failed login attempts, try again later")
	}

	result, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		if h.limiter != nil {
			h.limiter.RecordFailure(c.Context(), req.Email, c.IP())
		}
		return err
	}

	if h.limiter != nil {
		h.limiter.Reset(c.Context(), req.Email, c.IP())
	}

	return c.JSON(dto.LoginResponse{
		Token:        result.AccessToken,
		RefreshToken: result.RefreshToken,
		UserID:       result.UserID,
	})
}

// Refresh handles POST /api/refresh-token.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewRefreshTokenRequired()
	}

	result, err := h.auth.Refresh(c.Context(), req.Token)
	if err != nil {
		return err
	}

	return c.JSON(dto.RefreshResponse{Token: result.AccessToken})
}

// Protected handles GET /api/protected, echoing the verified claims.
func (h *AuthHandler) Protected(c *fiber.Ctx) error {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return apperrors.NewTokenMissing("token missing")
	}

	return c.JSON(fiber.Map{
		"message": "this is a protected route",
		"user": fiber.Map{
			"id":    claims.UserID,
			"email": claims.Email,
			"role":  claims.Role,
		},
	})
}

func registerInput(req dto.RegisterRequest) service.RegisterInput {
	return service.RegisterInput{
		Name:        req.Name,
		Email:       req.Email,
		Address:     req.Address,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
	}
}
