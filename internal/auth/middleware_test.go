package auth_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/incident-service/internal/auth"
	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/persistence"
	"github.com/spec-kit/incident-service/internal/repository/sqlite"
	apperrors "github.com/spec-kit/incident-service/pkg/util"
)

func newApp(t *testing.T) (*fiber.App, *auth.TokenManager, *domain.User) {
	t.Helper()
	db, err := persistence.OpenSQLite("file::memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, persistence.MigrateSQLite(db.DB, zap.NewNop()))

	users := sqlite.NewUserRepository(db.DB)
	user := &domain.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "x"}
	require.NoError(t, users.Create(context.Background(), user))

	tokens := auth.NewTokenManager("secret", 10, "")
	mw := auth.NewAuthMiddleware(tokens, users)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).SendString(domainErr.Code)
		},
	})
	app.Get("/me", mw.Handle, auth.RequireIdentity(), func(c *fiber.Ctx) error {
		return c.SendString(auth.IdentityFromContext(c).Email)
	})
	app.Get("/maybe", mw.Optional, func(c *fiber.Ctx) error {
		if id := auth.IdentityFromContext(c); id != nil {
			return c.SendString(id.Name)
		}
		return c.SendString("anonymous")
	})
	return app, tokens, user
}

func call(t *testing.T, app *fiber.App, path, token string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestMiddlewareAuthenticatesBearerToken(t *testing.T) {
	app, tokens, user := newApp(t)
	token, err := tokens.GenerateToken(user.Identity())
	require.NoError(t, err)

	status, body := call(t, app, "/me", token.Value)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ada@example.com", body)
}

func TestMiddlewareRejectsMissingOrBadToken(t *testing.T) {
	app, tokens, _ := newApp(t)

	status, body := call(t, app, "/me", "")
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "UNAUTHORIZED", body)

	status, _ = call(t, app, "/me", "not-a-jwt")
	require.Equal(t, http.StatusUnauthorized, status)

	ghost, err := tokens.GenerateToken(&domain.Identity{ID: "00000000-0000-0000-0000-000000000000"})
	require.NoError(t, err)
	status, _ = call(t, app, "/me", ghost.Value)
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestOptionalMiddleware(t *testing.T) {
	app, tokens, user := newApp(t)

	status, body := call(t, app, "/maybe", "")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "anonymous", body)

	token, err := tokens.GenerateToken(user.Identity())
	require.NoError(t, err)
	_, body = call(t, app, "/maybe", token.Value)
	require.Equal(t, "Ada", body)
}
