package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"socialhub-backend/internal/shared"
	"socialhub-backend/internal/shared/response"
	"socialhub-backend/pkg/jwt"
)

// AuthMiddleware validates the bearer token and stores the caller's business
// and user ids in the gin context.
func AuthMiddleware(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateToken(parts[1])
		if err != nil {
			log.Debug().Err(err).Str("request_id", c.GetString(shared.ContextKeyRequestID)).Msg("[Auth] Token rejected")
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		businessID, err := claims.BusinessUUID()
		if err != nil {
			response.Unauthorized(c, "token is not bound to a business")
			c.Abort()
			return
		}

		c.Set(shared.ContextKeyBusinessID, businessID)
		c.Set(shared.ContextKeyUserID, claims.UserID)
		c.Next()
	}
}
