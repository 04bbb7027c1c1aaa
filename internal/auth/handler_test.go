package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lims-backend/internal/auth"
	"lims-backend/internal/config"
	"lims-backend/internal/engine"
	"lims-backend/internal/metadata"
	"lims-backend/internal/store"
	"lims-backend/internal/users"
)

func testAuthApp(t *testing.T) *fiber.App {
	t.Helper()
	ctx := context.Background()

	db, err := store.New(ctx, config.DatabaseConfig{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	reg := metadata.NewDefaultRegistry()
	require.NoError(t, db.EnsureEntityTables(ctx, reg.All()))

	userStore := users.NewStore(db, reg.Get("users"))
	require.NoError(t, userStore.EnsureDefaultAdmin(ctx, "admin", "admin"))

	tokens := auth.NewTokenService("test-secret", time.Hour)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var appErr *engine.AppError
			if errors.As(err, &appErr) {
				return c.Status(appErr.Status).JSON(appErr)
			}
			return c.Status(500).JSON(fiber.Map{"msg": err.Error()})
		},
	})
	auth.RegisterRoutes(app, auth.NewHandler(userStore, tokens))
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	return out
}

func TestLogin(t *testing.T) {
	app := testAuthApp(t)

	t.Run("bootstrap credentials yield a token", func(t *testing.T) {
		resp := postJSON(t, app, "/api/login", fiber.Map{"username": "admin", "password": "admin"})
		require.Equal(t, 200, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.NotEmpty(t, body["token"])
	})

	t.Run("bad password", func(t *testing.T) {
		resp := postJSON(t, app, "/api/login", fiber.Map{"username": "admin", "password": "nope"})
		assert.Equal(t, 401, resp.StatusCode)
		assert.Equal(t, "Invalid credentials", decodeBody(t, resp)["msg"])
	})

	t.Run("unknown user gets the same answer as bad password", func(t *testing.T) {
		resp := postJSON(t, app, "/api/login", fiber.Map{"username": "ghost", "password": "x"})
		assert.Equal(t, 401, resp.StatusCode)
		assert.Equal(t, "Invalid credentials", decodeBody(t, resp)["msg"])
	})

	t.Run("missing fields", func(t *testing.T) {
		for _, body := range []fiber.Map{
			{"username": "admin"},
			{"password": "admin"},
			{},
		} {
			resp := postJSON(t, app, "/api/login", body)
			assert.Equal(t, 400, resp.StatusCode)
		}
	})
}

func TestRegister(t *testing.T) {
	app := testAuthApp(t)

	t.Run("creates a user without echoing the credential", func(t *testing.T) {
		resp := postJSON(t, app, "/api/register", fiber.Map{
			"username":    "dana",
			"password":    "pw",
			"affiliation": "Proteomics Core",
		})
		require.Equal(t, 201, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "dana", body["username"])
		assert.Equal(t, "Proteomics Core", body["affiliation"])
		assert.NotContains(t, body, "password")

		login := postJSON(t, app, "/api/login", fiber.Map{"username": "dana", "password": "pw"})
		assert.Equal(t, 200, login.StatusCode)
	})

	t.Run("duplicate username", func(t *testing.T) {
		resp := postJSON(t, app, "/api/register", fiber.Map{"username": "admin", "password": "pw"})
		assert.Equal(t, 409, resp.StatusCode)
	})

	t.Run("missing fields", func(t *testing.T) {
		resp := postJSON(t, app, "/api/register", fiber.Map{"username": "eve"})
		assert.Equal(t, 400, resp.StatusCode)
	})
}
