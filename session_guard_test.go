package auth_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-repository-bun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auth "github.com/naturemart/auth-service"
)

func newGuardedApp(guard *auth.SessionGuard, roles ...auth.UserRole) *fiber.App {
	app := fiber.New()
	app.Get("/protected", guard.Protected(roles...), func(c *fiber.Ctx) error {
		user, ok := auth.UserFromFiber(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{"email": user.Email})
	})
	return app
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	body := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestProtected(t *testing.T) {
	t.Run("missing header", func(t *testing.T) {
		guard := auth.NewSessionGuard(newTestCodec(t), new(MockUserStore))
		app := newGuardedApp(guard)

		req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Authorization header is missing", decodeBody(t, resp)["message"])
	})

	t.Run("malformed header", func(t *testing.T) {
		guard := auth.NewSessionGuard(newTestCodec(t), new(MockUserStore))
		app := newGuardedApp(guard)

		req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Token abc123")
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Authorization header is missing", decodeBody(t, resp)["message"])
	})

	t.Run("invalid token", func(t *testing.T) {
		guard := auth.NewSessionGuard(newTestCodec(t), new(MockUserStore))
		app := newGuardedApp(guard)

		req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer not-a-token")
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Invalid token", decodeBody(t, resp)["message"])
	})

	t.Run("expired token", func(t *testing.T) {
		expired := newTestCodec(t).WithLifetimes(time.Nanosecond, 0, 0, 0)
		user := newTestUser(t, "password123")

		token, err := expired.IssueAccess(user)
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)

		guard := auth.NewSessionGuard(newTestCodec(t), new(MockUserStore))
		app := newGuardedApp(guard)

		req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Token expired", decodeBody(t, resp)["message"])
	})

	t.Run("subject no longer exists", func(t *testing.T) {
		codec := newTestCodec(t)
		store := new(MockUserStore)
		user := newTestUser(t, "password123")

		token, err := codec.IssueAccess(user)
		require.NoError(t, err)

		store.On("GetByID", mock.Anything, user.ID.String()).
			Return(nil, repository.NewRecordNotFound()).Once()

		guard := auth.NewSessionGuard(codec, store)
		app := newGuardedApp(guard)

		req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "User not found", decodeBody(t, resp)["message"])
	})

	t.Run("role mismatch", func(t *testing.T) {
		codec := newTestCodec(t)
		store := new(MockUserStore)
		user := newTestUser(t, "password123")

		token, err := codec.IssueAccess(user)
		require.NoError(t, err)

		store.On("GetByID", mock.Anything, user.ID.String()).Return(user, nil).Once()

		guard := auth.NewSessionGuard(codec, store)
		app := newGuardedApp(guard, auth.RoleAdmin)

		req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "You are not authorized to access this resource", decodeBody(t, resp)["message"])
	})

	t.Run("valid token reaches the handler", func(t *testing.T) {
		codec := newTestCodec(t)
		store := new(MockUserStore)
		user := newTestUser(t, "password123")

		token, err := codec.IssueAccess(user)
		require.NoError(t, err)

		store.On("GetByID", mock.Anything, user.ID.String()).Return(user, nil).Once()

		guard := auth.NewSessionGuard(codec, store)
		app := newGuardedApp(guard)

		req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, user.Email, decodeBody(t, resp)["email"])
	})

	t.Run("admin role passes its own gate", func(t *testing.T) {
		codec := newTestCodec(t)
		store := new(MockUserStore)
		user := newTestUser(t, "password123")
		user.Role = auth.RoleAdmin

		token, err := codec.IssueAccess(user)
		require.NoError(t, err)

		store.On("GetByID", mock.Anything, user.ID.String()).Return(user, nil).Once()

		guard := auth.NewSessionGuard(codec, store)
		app := newGuardedApp(guard, auth.RoleAdmin)

		req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}
