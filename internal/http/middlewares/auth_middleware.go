package middlewares

import (
	"errors"
	"net/http"

	"github.com/adeolu/servicehub/internal/auth"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyHeader(header string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt TokenVerifier
}

func NewAuthMiddleware(jwt TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

// RequireAuth answers 401 when the header is missing or not Bearer-shaped and
// 403 when the token itself fails verification or has expired.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := m.jwt.VerifyHeader(c.GetHeader("Authorization"))

		if err != nil {
			if errors.Is(err, auth.ErrMissingBearer) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": gin.H{
						"code":    "unauthorized",
						"message": "Missing or invalid Authorization header",
					},
				})
				return
			}

			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "forbidden",
					"message": "Invalid or expired access token",
				},
			})
			return
		}

		// Stash the caller's email on the context; it is the only trusted identity
		c.Set(CtxEmail, claims.Email)

		c.Next()
	}
}

// Helper so handlers don't need to know the magic key.

func EmailFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxEmail)
	if !ok {
		return "", false
	}
	email, ok := v.(string)
	return email, ok && email != ""
}
