package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey = "user_id"
	CtxRoleKey   = "role"
)

// RequireAuth verifies "Authorization: Bearer <token>" and stashes the
// caller's id (sub) and role into the echo context. Token issuance lives
// in the external identity service; this only verifies.
func RequireAuth(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Request().Header.Get("Authorization")
			if h == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing Authorization header"})
			}

			parts := strings.SplitN(h, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid Authorization header"})
			}
			tokenStr := strings.TrimSpace(parts[1])
			if tokenStr == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "empty token"})
			}

			token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
				// pin the alg, rejects "none" and RS->HS confusion
				if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return secret, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || token == nil || !token.Valid {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid claims"})
			}
			sub, ok := claims["sub"].(string)
			if !ok || sub == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing sub"})
			}
			role := ""
			if r, ok := claims["role"].(string); ok {
				role = r
			}

			c.Set(CtxUserIDKey, sub)
			c.Set(CtxRoleKey, role)
			return next(c)
		}
	}
}

// CallerID returns the authenticated user id, or "".
func CallerID(c echo.Context) string {
	if v, ok := c.Get(CtxUserIDKey).(string); ok {
		return v
	}
	return ""
}

// CallerRole returns the authenticated role, or "".
func CallerRole(c echo.Context) string {
	if v, ok := c.Get(CtxRoleKey).(string); ok {
		return v
	}
	return ""
}
