package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"matomotrack/api/logging"
	"matomotrack/api/models"
	"matomotrack/api/utils"
)

const identityKey = "identity"

// Identity resolves the wiki user from the jwt_token cookie or a Bearer token.
// It never rejects a request: a missing or invalid token means an anonymous visitor.
func Identity(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		var id models.Identity

		if tokenString := bearerOrCookie(c); tokenString != "" && len(secret) > 0 {
			claims, err := utils.ValidateJWT(secret, tokenString)
			if err != nil {
				logging.Ctx(c.Request.Context()).Debug().Err(err).Msg("ignoring invalid session token")
			} else {
				id = models.Identity{
					Username:   claims.Username,
					Registered: true,
					Bot:        utils.HasGroup(claims.Groups, "bot"),
				}
			}
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

func bearerOrCookie(c *gin.Context) string {
	if tokenString, err := c.Cookie("jwt_token"); err == nil && tokenString != "" {
		return tokenString
	}
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// IdentityFrom returns the identity set by Identity, or an anonymous one.
func IdentityFrom(c *gin.Context) models.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(models.Identity); ok {
			return id
		}
	}
	return models.Identity{}
}
