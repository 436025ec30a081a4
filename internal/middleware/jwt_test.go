package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newProtectedApp() (*fiber.App, *map[string]any) {
	captured := map[string]any{}
	app := fiber.New()
	app.Get("/secure", JWTProtected(testSecret), func(c *fiber.Ctx) error {
		captured["user_id"] = c.Locals("user_id")
		captured["user_name"] = c.Locals("user_name")
		captured["user_role"] = c.Locals("user_role")
		return c.SendStatus(fiber.StatusOK)
	})
	return app, &captured
}

func TestJWTProtectedAcceptsBearerHeader(t *testing.T) {
	app, captured := newProtectedApp()
	token := signToken(t, jwt.MapClaims{
		"sub":  "user-1",
		"name": "Siti Rahma",
		"role": "GUARDIAN",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "user-1", (*captured)["user_id"])
	require.Equal(t, "Siti Rahma", (*captured)["user_name"])
	require.Equal(t, "guardian", (*captured)["user_role"], "role is normalised to lower case")
}

func TestJWTProtectedAcceptsQueryToken(t *testing.T) {
	app, captured := newProtectedApp()
	token := signToken(t, jwt.MapClaims{
		"user_id": "user-2",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/secure?token="+token, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "user-2", (*captured)["user_id"])
}

func TestJWTProtectedRejections(t *testing.T) {
	app, _ := newProtectedApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/secure", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "missing credential")

	other := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1"})
	forged, err := other.SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "wrong signature")

	noSubject := signToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	req = httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+noSubject)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "token without a subject")

	expired := signToken(t, jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(-time.Hour).Unix()})
	req = httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "expired token")
}
