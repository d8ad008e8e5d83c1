package dto

import "github.com/spec-kit/restaurant-auth/internal/domain"

// UserResponse is the client-facing user shape; password hashes never leave
// the service.
type UserResponse struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Address     string      `json:"address"`
	PhoneNumber string      `json:"phoneNumber"`
	Role        domain.Role `json:"role"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Address:     user.Address,
		PhoneNumber: user.PhoneNumber,
		Role:        user.Role,
	}
}

// AssignRoleRequest payload for role assignment.
type AssignRoleRequest struct {
	Role string `json:"role"`
}
