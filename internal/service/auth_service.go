package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/restaurant-auth/internal/auth"
	"github.com/spec-kit/restaurant-auth/internal/config"
	"github.com/spec-kit/restaurant-auth/internal/domain"
	"github.com/spec-kit/restaurant-auth/internal/events"
	"github.com/spec-kit/restaurant-auth/internal/repository"
	apperrors "github.com/spec-kit/restaurant-auth/pkg/util"
)

// AuthService coordinates registration, login, token renewal and role
// assignment.
type AuthService struct {
	users      repository.UserRepository
	tokens     repository.RefreshTokenRepository
	tokenMgr   *auth.TokenManager
	dispatcher events.Dispatcher
	bcryptCost int
	now        func() time.Time
}

// AuthDependencies encapsulates collaborator requirements for the service.
type AuthDependencies struct {
	UserRepo         repository.UserRepository
	RefreshTokenRepo repository.RefreshTokenRepository
	Dispatcher       events.Dispatcher
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:  deps.UserRepo,
		tokens: deps.RefreshTokenRepo,
		tokenMgr: auth.NewTokenManager(auth.TokenConfig{
			AccessSecret:  []byte(cfg.Auth.AccessTokenSecret),
			RefreshSecret: []byte(cfg.Auth.RefreshTokenSecret),
			AccessTTL:     cfg.Auth.AccessTTL(),
			RefreshTTL:    cfg.Auth.RefreshTTL(),
		}),
		dispatcher: deps.Dispatcher,
		bcryptCost: cfg.Auth.BcryptCost,
		now:        time.Now,
	}
}

// RegisterInput carries the required registration fields.
type RegisterInput struct {
	Name        string
	Email       string
	Address     string
	PhoneNumber string
	Password    string
}

// LoginResult is the successful login payload.
type LoginResult struct {
	AccessToken      string
	RefreshToken     string
	UserID           string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// RefreshResult is the successful renewal payload.
type RefreshResult struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Register creates a new user. The role is always RoleCustomer unless
// provisionedRole is non-nil, which only the admin-guarded provisioning
// path supplies; role is never inferred from ambient request state.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, provisionedRole *domain.Role) (*domain.User, error) {
	missing := map[string]any{}
	if in.Name == "" {
		missing["name"] = "required"
	}
	if in.Email == "" {
		missing["email"] = "required"
	}
	if in.Address == "" {
		missing["address"] = "required"
	}
	if in.PhoneNumber == "" {
		missing["phoneNumber"] = "required"
	}
	if in.Password == "" {
		missing["password"] = "required"
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("all fields are required", missing)
	}

	role := domain.RoleCustomer
	if provisionedRole != nil {
		if !domain.ValidRole(*provisionedRole) {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": *provisionedRole})
		}
		role = *provisionedRole
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperrors.NewDuplicateIdentity()
	} else if err != pgx.ErrNoRows {
		return nil, apperrors.NewInternalError(err)
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		Address:      in.Address,
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if err == repository.ErrDuplicateEmail {
			return nil, apperrors.NewDuplicateIdentity()
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventUserRegistered, user.ID, events.UserRegisteredPayload{
		Email: user.Email,
		Role:  user.Role,
	})
	return user, nil
}

// Login authenticates by email and password and mints both token kinds. The
// failure is uniform for unknown email and wrong password so clients cannot
// enumerate accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewAuthenticationFailed()
		}
		return nil, apperrors.NewInternalError(err)
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewAuthenticationFailed()
	}

	accessToken, accessExp, err := s.tokenMgr.GenerateAccessToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	refreshToken, refreshExp, err := s.tokenMgr.GenerateRefreshToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	record := &domain.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		ExpiresAt: refreshExp,
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventUserLoggedIn, user.ID, events.UserLoggedInPayload{Email: user.Email})

	return &LoginResult{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		UserID:           user.ID,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Refresh exchanges a valid, unexpired, still-registered refresh token for a
// fresh access token. Expired records are reclaimed on presentation; the
// record itself is otherwise left untouched, so a refresh token stays usable
// until its stored expiry.
func (s *AuthService) Refresh(ctx context.Context, presented string) (*RefreshResult, error) {
	if presented == "" {
		return nil, apperrors.NewRefreshTokenRequired()
	}

	// Signature check first: a token we never signed cannot name a record.
	// The embedded expiry is ignored here — the stored expiry decides.
	if _, err := s.tokenMgr.ParseRefreshToken(presented); err != nil {
		return nil, apperrors.NewTokenInvalid()
	}

	record, err := s.tokens.GetByToken(ctx, presented)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewRefreshTokenUnknown()
		}
		return nil, apperrors.NewInternalError(err)
	}

	if record.Expired(s.now()) {
		if err := s.tokens.DeleteByToken(ctx, record.Token); err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		return nil, apperrors.NewTokenExpired("refresh token expired, please login again")
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	accessToken, accessExp, err := s.tokenMgr.GenerateAccessToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventTokenRefreshed, user.ID, events.TokenRefreshedPayload{Email: user.Email})

	return &RefreshResult{AccessToken: accessToken, ExpiresAt: accessExp}, nil
}

// AssignRole sets the target user's role. Reachable only through the admin
// role guard; assignedBy records the acting admin for the audit trail.
func (s *AuthService) AssignRole(ctx context.Context, targetID string, role domain.Role, assignedBy string) (*domain.User, error) {
	if !domain.ValidRole(role) {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}

	current, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user")
		}
		return nil, apperrors.NewInternalError(err)
	}

	updated, err := s.users.UpdateRole(ctx, targetID, role)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user")
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventRoleAssigned, updated.ID, events.RoleAssignedPayload{
		OldRole:    current.Role,
		NewRole:    updated.Role,
		AssignedBy: assignedBy,
	})
	return updated, nil
}

// ListUsers returns all registered users.
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return users, nil
}

// GetUser loads a single user by id.
func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user")
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, userID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: s.now(),
		Payload:   payload,
	})
}
