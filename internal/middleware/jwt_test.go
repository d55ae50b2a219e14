package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
    t.Helper()
    tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    s, err := tok.SignedString([]byte(secret))
    require.NoError(t, err)
    return s
}

func runJWT(t *testing.T, authHeader string) (echo.Context, *httptest.ResponseRecorder, error) {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/", nil)
    if authHeader != "" {
        req.Header.Set("Authorization", authHeader)
    }
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
    err := JWTAuth(testSecret)(next)(c)
    return c, rec, err
}

func TestJWTAuthValidToken(t *testing.T) {
    tok := signToken(t, testSecret, jwt.MapClaims{
        "sub":  "42",
        "role": "MEMBER",
        "exp":  time.Now().Add(time.Hour).Unix(),
    })

    c, rec, err := runJWT(t, "Bearer "+tok)
    require.NoError(t, err)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "42", c.Get("user_id"))
    assert.Equal(t, "MEMBER", c.Get("role"))
}

func TestJWTAuthMissingHeader(t *testing.T) {
    _, rec, err := runJWT(t, "")
    require.NoError(t, err)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthWrongSecret(t *testing.T) {
    tok := signToken(t, "other-secret", jwt.MapClaims{"sub": "42", "role": "MEMBER"})

    _, rec, err := runJWT(t, "Bearer "+tok)
    require.NoError(t, err)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthExpiredToken(t *testing.T) {
    tok := signToken(t, testSecret, jwt.MapClaims{
        "sub": "42", "role": "MEMBER",
        "exp": time.Now().Add(-time.Hour).Unix(),
    })

    _, rec, err := runJWT(t, "Bearer "+tok)
    require.NoError(t, err)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleAllows(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/", nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.Set("role", "STAFF")

    next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
    require.NoError(t, RequireRole("STAFF")(next)(c))
    assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleRejectsOtherRole(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/", nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.Set("role", "MEMBER")

    next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
    require.NoError(t, RequireRole("STAFF")(next)(c))
    assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleRejectsMissingRole(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/", nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)

    next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
    require.NoError(t, RequireRole("STAFF")(next)(c))
    assert.Equal(t, http.StatusForbidden, rec.Code)
}
