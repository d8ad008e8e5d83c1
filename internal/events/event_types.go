package events

import (
	"time"

	"github.com/spec-kit/restaurant-auth/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventUserLoggedIn   EventType = "user_logged_in"
	EventTokenRefreshed EventType = "token_refreshed"
	EventRoleAssigned   EventType = "role_assigned"
)

// Event represents a domain event emitted by the auth service.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// UserLoggedInPayload payload.
type UserLoggedInPayload struct {
	Email string `json:"email"`
}

// TokenRefreshedPayload payload.
type TokenRefreshedPayload struct {
	Email string `json:"email"`
}

// RoleAssignedPayload payload.
type RoleAssignedPayload struct {
	OldRole    domain.Role `json:"old_role"`
	NewRole    domain.Role `json:"new_role"`
	AssignedBy string      `json:"assigned_by,omitempty"`
}
