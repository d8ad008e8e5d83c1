package dto

// RegisterRequest payload for public registration. Role is deliberately not
// accepted here; provisioning a non-default role goes through the
// admin-guarded endpoint.
type RegisterRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
}

// ProvisionRequest payload for admin-provisioned accounts.
type ProvisionRequest struct {
	RegisterRequest
	Role string `json:"role"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse mirrors the original login contract.
type LoginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"userId"`
}

// RefreshRequest payload for token renewal.
type RefreshRequest struct {
	Token string `json:"token"`
}

// RefreshResponse carries the freshly minted access token.
type RefreshResponse struct {
	Token string `json:"token"`
}
