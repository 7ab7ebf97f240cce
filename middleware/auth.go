package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"minisocial-api/models"
)

const sessionKey = "session"

// TokenParser resolves a bearer token into a session.
type TokenParser interface {
	ParseToken(token string) (models.Session, error)
}

// AuthMiddleware rejects requests without a valid bearer token and stores the
// resolved session on the context.
func AuthMiddleware(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			abortUnauthorized(c, "Authorization header required")
			return
		}

		session, err := parser.ParseToken(token)
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(sessionKey, session)
		c.Set("user_id", session.UserID)
		c.Next()
	}
}

// SessionFrom returns the session stored by AuthMiddleware.
func SessionFrom(c *gin.Context) (models.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return models.Session{}, false
	}
	session, ok := v.(models.Session)
	return session, ok
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
		Error:   "Unauthorized",
		Message: message,
		Code:    http.StatusUnauthorized,
	})
}
