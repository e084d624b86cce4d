package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/portal/internal/config"
	"github.com/Additional-Code/portal/internal/session"
	"github.com/Additional-Code/portal/pkg/errorbank"
)

func signed(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestMiddleware(t *testing.T) {
	var cfg config.Config
	cfg.Auth.JWTSecret = "s3cret"
	mw := Middleware(session.NewVerifier(cfg, zap.NewNop()))

	var got session.Session
	var fromCtx bool
	handler := mw(func(c echo.Context) error {
		got = Session(c)
		_, fromCtx = session.FromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	e := echo.New()
	token := signed(t, "s3cret", jwt.MapClaims{"userId": "cust-9", "exp": time.Now().Add(time.Hour).Unix()})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)

	require.NoError(t, handler(e.NewContext(req, httptest.NewRecorder())))
	assert.Equal(t, "cust-9", got.UserID)
	assert.Equal(t, token, got.Token)
	assert.True(t, fromCtx)
}

func TestMiddlewareRejects(t *testing.T) {
	var cfg config.Config
	cfg.Auth.JWTSecret = "s3cret"
	handler := Middleware(session.NewVerifier(cfg, zap.NewNop()))(func(c echo.Context) error {
		t.Fatal("handler must not run")
		return nil
	})
	e := echo.New()

	err := handler(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder()))
	require.Error(t, err)
	assert.True(t, errorbank.Is(err, errorbank.KindUnauthorized))
	assert.Equal(t, "missing bearer token", errorbank.From(err).Message())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+signed(t, "other", jwt.MapClaims{"sub": "x", "exp": time.Now().Add(time.Hour).Unix()}))
	err = handler(e.NewContext(req, httptest.NewRecorder()))
	assert.Equal(t, "invalid bearer token", errorbank.From(err).Message())
}
