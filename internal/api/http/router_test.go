package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	httptransport "github.com/spec-kit/restaurant-auth/internal/api/http"
	"github.com/spec-kit/restaurant-auth/internal/api/http/handlers"
	"github.com/spec-kit/restaurant-auth/internal/auth"
	"github.com/spec-kit/restaurant-auth/internal/config"
	"github.com/spec-kit/restaurant-auth/internal/domain"
	"github.com/spec-kit/restaurant-auth/internal/events"
	"github.com/spec-kit/restaurant-auth/internal/persistence"
	"github.com/spec-kit/restaurant-auth/internal/repository"
	"github.com/spec-kit/restaurant-auth/internal/service"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	user.ID = uuid.NewString()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, *user)
	}
	return users, nil
}

func (r *fakeUserRepo) UpdateRole(_ context.Context, id string, role domain.Role) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	user.Role = role
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) setRole(id string, role domain.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		user.Role = role
	}
}

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.RefreshToken
}

func (r *fakeTokenRepo) Create(_ context.Context, token *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token.ID = uuid.NewString()
	copied := *token
	r.tokens[token.Token] = &copied
	return nil
}

func (r *fakeTokenRepo) GetByToken(_ context.Context, tokenStr string) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[tokenStr]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *token
	return &copied, nil
}

func (r *fakeTokenRepo) DeleteByToken(_ context.Context, tokenStr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, tokenStr)
	return nil
}

func (r *fakeTokenRepo) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for key, token := range r.tokens {
		if token.ExpiresAt.Before(cutoff) {
			delete(r.tokens, key)
			removed++
		}
	}
	return removed, nil
}

func (r *fakeTokenRepo) setExpiry(tokenStr string, expiresAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token, ok := r.tokens[tokenStr]; ok {
		token.ExpiresAt = expiresAt
	}
}

type testEnv struct {
	app    *fiber.App
	users  *fakeUserRepo
	tokens *fakeTokenRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.Config{
		Auth: config.AuthConfig{
			AccessTokenSecret:     "access-secret-for-tests",
			RefreshTokenSecret:    "refresh-secret-for-tests",
			AccessTokenTTLMinutes: 15,
			RefreshTokenTTLDays:   7,
			BcryptCost:            bcrypt.MinCost,
		},
	}

	users := &fakeUserRepo{users: map[string]*domain.User{}}
	tokens := &fakeTokenRepo{tokens: map[string]*domain.RefreshToken{}}

	authService := service.NewAuthService(cfg, service.AuthDependencies{
		UserRepo:         users,
		RefreshTokenRepo: tokens,
		Dispatcher:       events.NewInMemoryDispatcher(),
	})

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, zap.NewNop(), nil, 0)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("test", "dev", &persistence.Postgres{}, &persistence.Redis{}),
		Auth:           handlers.NewAuthHandler(authService, nil),
		Users:          handlers.NewUsersHandler(authService),
		AuthMiddleware: auth.NewMiddleware(authService.TokenManager()),
	})

	return &testEnv{app: app, users: users, tokens: tokens}
}

func (e *testEnv) request(t *testing.T, method, path, bearer string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, payload)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := e.app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

func registerBody(email string) map[string]any {
	return map[string]any{
		"name":        "Alice Diner",
		"email":       email,
		"address":     "1 Main Street",
		"phoneNumber": "555-0100",
		"password":    "secret-password",
	}
}

func (e *testEnv) login(t *testing.T, email string) (token, refreshToken, userID string) {
	t.Helper()
	resp, body := e.request(t, http.MethodPost, "/api/login", "", map[string]any{
		"email":    email,
		"password": "secret-password",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return body["token"].(string), body["refreshToken"].(string), body["userId"].(string)
}

func TestConnectionProbe(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/", nil)
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.request(t, http.MethodPost, "/api/users", "", registerBody("alice@example.com"))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	t.Run("missing fields", func(t *testing.T) {
		body := registerBody("bob@example.com")
		delete(body, "address")
		resp, _ := env.request(t, http.MethodPost, "/api/users", "", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("duplicate email", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodPost, "/api/users", "", registerBody("alice@example.com"))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.request(t, http.MethodPost, "/api/users", "", registerBody("alice@example.com"))

	t.Run("success", func(t *testing.T) {
		token, refreshToken, userID := env.login(t, "alice@example.com")
		assert.NotEmpty(t, token)
		assert.NotEmpty(t, refreshToken)
		assert.NotEmpty(t, userID)
	})

	t.Run("unknown user", func(t *testing.T) {
		resp, body := env.request(t, http.MethodPost, "/api/login", "", map[string]any{
			"email":    "a@x.com",
			"password": "secret",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.NotContains(t, body, "token")
	})

	t.Run("wrong password", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodPost, "/api/login", "", map[string]any{
			"email":    "alice@example.com",
			"password": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestRefreshEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.request(t, http.MethodPost, "/api/users", "", registerBody("alice@example.com"))
	_, refreshToken, _ := env.login(t, "alice@example.com")

	t.Run("success", func(t *testing.T) {
		resp, body := env.request(t, http.MethodPost, "/api/refresh-token", "", map[string]any{
			"token": refreshToken,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, body["token"])
	})

	t.Run("missing token", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodPost, "/api/refresh-token", "", map[string]any{})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("expired then unknown", func(t *testing.T) {
		env.tokens.setExpiry(refreshToken, time.Now().Add(-time.Hour))

		resp, _ := env.request(t, http.MethodPost, "/api/refresh-token", "", map[string]any{
			"token": refreshToken,
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		// The record was reclaimed, replay can never succeed.
		resp, _ = env.request(t, http.MethodPost, "/api/refresh-token", "", map[string]any{
			"token": refreshToken,
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestProtectedEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.request(t, http.MethodPost, "/api/users", "", registerBody("alice@example.com"))
	token, _, userID := env.login(t, "alice@example.com")

	t.Run("with token", func(t *testing.T) {
		resp, body := env.request(t, http.MethodGet, "/api/protected", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		user := body["user"].(map[string]any)
		assert.Equal(t, userID, user["id"])
		assert.Equal(t, "alice@example.com", user["email"])
	})

	t.Run("without token", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodGet, "/api/protected", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestListUsersEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.request(t, http.MethodPost, "/api/users", "", registerBody("alice@example.com"))
	token, _, _ := env.login(t, "alice@example.com")

	resp, _ := env.request(t, http.MethodGet, "/api/users", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.request(t, http.MethodGet, "/api/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAssignRoleEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.request(t, http.MethodPost, "/api/users", "", registerBody("admin@example.com"))
	env.request(t, http.MethodPost, "/api/users", "", registerBody("alice@example.com"))

	_, _, adminID := env.login(t, "admin@example.com")
	_, _, targetID := env.login(t, "alice@example.com")

	// Promote the acting user out of band, then log in again so the access
	// token carries the admin role.
	env.users.setRole(adminID, domain.RoleAdmin)
	adminToken, _, _ := env.login(t, "admin@example.com")
	customerToken, _, _ := env.login(t, "alice@example.com")

	t.Run("denied for non-admin", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodPut, "/api/users/"+adminID, customerToken, map[string]any{
			"role": "Manager",
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		// Target role unchanged.
		admin, err := env.users.GetByID(context.Background(), adminID)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, admin.Role)
	})

	t.Run("allowed for admin", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodPut, "/api/users/"+targetID, adminToken, map[string]any{
			"role": "Staff",
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		target, err := env.users.GetByID(context.Background(), targetID)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleStaff, target.Role)
	})

	t.Run("unknown target", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodPut, "/api/users/"+uuid.NewString(), adminToken, map[string]any{
			"role": "Staff",
		})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("bad role", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodPut, "/api/users/"+targetID, adminToken, map[string]any{
			"role": "Superuser",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAdminProvisionEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.request(t, http.MethodPost, "/api/users", "", registerBody("admin@example.com"))
	_, _, adminID := env.login(t, "admin@example.com")
	env.users.setRole(adminID, domain.RoleAdmin)
	adminToken, _, _ := env.login(t, "admin@example.com")

	t.Run("admin provisions role", func(t *testing.T) {
		body := registerBody("manager@example.com")
		body["role"] = "Manager"
		resp, decoded := env.request(t, http.MethodPost, "/api/admin/users", adminToken, body)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		user := decoded["user"].(map[string]any)
		assert.Equal(t, "Manager", user["role"])
	})

	t.Run("public registration cannot provision", func(t *testing.T) {
		body := registerBody("sneaky@example.com")
		body["role"] = "Admin"
		resp, decoded := env.request(t, http.MethodPost, "/api/users", "", body)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		user := decoded["user"].(map[string]any)
		assert.Equal(t, "Customer", user["role"])
	})

	t.Run("non-admin denied", func(t *testing.T) {
		env.request(t, http.MethodPost, "/api/users", "", registerBody("alice@example.com"))
		customerToken, _, _ := env.login(t, "alice@example.com")

		resp, _ := env.request(t, http.MethodPost, "/api/admin/users", customerToken, registerBody("x@example.com"))
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}
