package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func invoke(mw echo.MiddlewareFunc, authHeader string) (echo.Context, *httptest.ResponseRecorder, bool) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	_ = mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})(c)
	return c, rec, called
}

func TestJWTAuth_InjectsClaims(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{"sub": "7", "role": "RENTER"})

	c, rec, called := invoke(JWTAuth(testSecret), "Bearer "+token)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "7", c.Get("user_id"))
	assert.Equal(t, "RENTER", c.Get("role"))
}

func TestJWTAuth_RejectsMissingHeader(t *testing.T) {
	_, rec, called := invoke(JWTAuth(testSecret), "")
	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuth_RejectsWrongSecret(t *testing.T) {
	token := signToken(t, "other-secret", jwt.MapClaims{"sub": "7", "role": "RENTER"})

	_, rec, called := invoke(JWTAuth(testSecret), "Bearer "+token)
	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	e := echo.New()

	run := func(role interface{}, allowed ...string) (int, bool) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != nil {
			c.Set("role", role)
		}
		called := false
		_ = RequireRole(allowed...)(func(c echo.Context) error {
			called = true
			return c.NoContent(http.StatusOK)
		})(c)
		return rec.Code, called
	}

	code, called := run("RENTER", "RENTER")
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, code)

	code, called = run("OWNER", "RENTER")
	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, code)

	code, called = run(nil, "RENTER")
	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, code)

	code, called = run("ADMIN", "RENTER", "ADMIN")
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, code)
}
