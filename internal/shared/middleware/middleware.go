package middleware

import (
	"net/http"
	"strings"

	"seatly/internal/shared/config"
	"seatly/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// SessionHeader identifies the holding browser session. The session is not
// identity-authenticated; it only scopes hold ownership and idempotent
// resubmission.
const SessionHeader = "X-Session-ID"

// SessionContextKey is the gin context key the session ID is stored under.
const SessionContextKey = "session_id"

// RequireSession extracts the client session ID and rejects requests
// without one.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := strings.TrimSpace(c.GetHeader(SessionHeader))
		if sessionID == "" {
			response.RespondJSON(c, "error", http.StatusBadRequest, "Session ID is required", nil, "missing "+SessionHeader+" header")
			c.Abort()
			return
		}
		c.Set(SessionContextKey, sessionID)
		c.Next()
	}
}

// SessionID returns the session ID set by RequireSession.
func SessionID(c *gin.Context) string {
	if v, ok := c.Get(SessionContextKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// StaffAuth creates the staff-path JWT authentication middleware
func StaffAuth() gin.HandlerFunc {
	return StaffAuthWithConfig(config.Load())
}

// StaffAuthWithConfig creates the staff-path JWT authentication middleware
// with config. Identity is issued by the external auth collaborator; this
// only verifies the bearer token and the staff role claim.
func StaffAuthWithConfig(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "Authorization header is required", nil, nil)
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "authorization header format must be Bearer {token}", nil, nil)
			c.Abort()
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.JWT.Secret), nil
		})
		if err != nil || !token.Valid {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "invalid or expired token", nil, nil)
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "invalid token claims", nil, nil)
			c.Abort()
			return
		}
		if role, _ := claims["role"].(string); role != "STAFF" && role != "ADMIN" {
			response.RespondJSON(c, "error", http.StatusForbidden, "Insufficient permissions", nil, nil)
			c.Abort()
			return
		}

		c.Set("staff_id", claims["sub"])
		c.Next()
	}
}
