package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/unlisted-api/internal/models"
	"github.com/rajivgeraev/unlisted-api/internal/utils"
)

func newTestApp(jwtService *utils.JWTService) *fiber.App {
	app := fiber.New()

	api := app.Group("/api")
	api.Use(AuthMiddleware(jwtService))
	api.Get("/me", func(c fiber.Ctx) error {
		id, role, ok := CurrentUser(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{"id": id.String(), "role": string(role)})
	})

	admin := api.Group("/admin")
	admin.Use(RequireRole(models.RoleAdmin))
	admin.Get("/ping", func(c fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	jwtService := utils.NewJWTService("secret", time.Hour)
	app := newTestApp(jwtService)

	userID := uuid.New()
	token, err := jwtService.GenerateToken(userID, "user")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing header", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Token " + token, status: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer abc.def.ghi", status: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + token, status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			if tt.status == http.StatusOK {
				var body map[string]string
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, userID.String(), body["id"])
				assert.Equal(t, "user", body["role"])
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	jwtService := utils.NewJWTService("secret", time.Hour)
	app := newTestApp(jwtService)

	userToken, err := jwtService.GenerateToken(uuid.New(), "user")
	require.NoError(t, err)
	adminToken, err := jwtService.GenerateToken(uuid.New(), "admin")
	require.NoError(t, err)
	forgedRole, err := jwtService.GenerateToken(uuid.New(), "superuser")
	require.NoError(t, err)

	for token, status := range map[string]int{
		userToken:  http.StatusForbidden,
		adminToken: http.StatusOK,
		forgedRole: http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, status, resp.StatusCode)
	}
}
