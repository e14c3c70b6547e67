package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"seatly/internal/shared/config"
	"seatly/internal/shared/middleware"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func sessionRouter() *gin.Engine {
	engine := gin.New()
	engine.GET("/probe", middleware.RequireSession(), func(c *gin.Context) {
		c.String(http.StatusOK, middleware.SessionID(c))
	})
	return engine
}

func TestRequireSession(t *testing.T) {
	engine := sessionRouter()

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set(middleware.SessionHeader, "session-123")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "session-123", rec.Body.String())
}

func TestRequireSession_Missing(t *testing.T) {
	engine := sessionRouter()

	for _, header := range []string{"", "   "} {
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		if header != "" {
			req.Header.Set(middleware.SessionHeader, header)
		}
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func staffRouter(cfg *config.Config) *gin.Engine {
	engine := gin.New()
	engine.GET("/staff/probe", middleware.StaffAuthWithConfig(cfg), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return engine
}

func signToken(t *testing.T, secret, role string, expiresIn time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "staff-1",
		"role": role,
		"exp":  time.Now().Add(expiresIn).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestStaffAuth(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret"}}
	engine := staffRouter(cfg)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"malformed", "Token abc", http.StatusUnauthorized},
		{"bad signature", "Bearer " + signToken(t, "other-secret", "STAFF", time.Hour), http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, "test-secret", "STAFF", -time.Hour), http.StatusUnauthorized},
		{"wrong role", "Bearer " + signToken(t, "test-secret", "DINER", time.Hour), http.StatusForbidden},
		{"staff", "Bearer " + signToken(t, "test-secret", "STAFF", time.Hour), http.StatusOK},
		{"admin", "Bearer " + signToken(t, "test-secret", "ADMIN", time.Hour), http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/staff/probe", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
