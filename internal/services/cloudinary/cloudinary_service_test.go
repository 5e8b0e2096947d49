package cloudinary

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rajivgeraev/unlisted-api/internal/config"
	"github.com/rajivgeraev/unlisted-api/internal/utils"
)

func TestGenerateSignature(t *testing.T) {
	svc := NewCloudinaryService(config.CloudinaryConfig{APISecret: "abcd"}, nil, zap.NewNop())

	params := url.Values{}
	params.Set("timestamp", "1700000000")
	params.Set("upload_preset", "unlisted_logos")

	got, err := svc.GenerateSignature(params)
	require.NoError(t, err)

	sum := sha1.Sum([]byte("timestamp=1700000000&upload_preset=unlisted_logos" + "abcd"))
	assert.Equal(t, hex.EncodeToString(sum[:]), got)
}

func newTestApp(t *testing.T, cfg config.CloudinaryConfig) (*fiber.App, *utils.JWTService) {
	t.Helper()
	jwtService := utils.NewJWTService("secret", time.Hour)
	svc := NewCloudinaryService(cfg, jwtService, zap.NewNop())
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }
	app := fiber.New()
	svc.SetupRoutes(app)
	return app, jwtService
}

func get(t *testing.T, app *fiber.App, path, token string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestGenerateUploadParams(t *testing.T) {
	app, jwtService := newTestApp(t, config.CloudinaryConfig{
		CloudName:    "demo",
		APIKey:       "key",
		APISecret:    "abcd",
		UploadPreset: "unlisted_logos",
		UploadFolder: "company_logos",
	})

	admin, err := jwtService.GenerateToken(uuid.New(), "admin")
	require.NoError(t, err)
	user, err := jwtService.GenerateToken(uuid.New(), "user")
	require.NoError(t, err)

	resp, _ := get(t, app, "/api/admin/upload/params", user)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = get(t, app, "/api/admin/upload/params?isin=bad", admin)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := get(t, app, "/api/admin/upload/params?isin=ine976i01016", admin)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var params map[string]string
	require.NoError(t, json.Unmarshal(body, &params))
	assert.Equal(t, "1700000000", params["timestamp"])
	assert.Equal(t, "INE976I01016", params["public_id"])
	assert.Equal(t, "key", params["api_key"])
	assert.NotEmpty(t, params["signature"])
}

func TestGenerateUploadParams_NotConfigured(t *testing.T) {
	app, jwtService := newTestApp(t, config.CloudinaryConfig{})
	admin, err := jwtService.GenerateToken(uuid.New(), "admin")
	require.NoError(t, err)

	resp, _ := get(t, app, "/api/admin/upload/params", admin)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
