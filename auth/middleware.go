package auth

import (
	"net/http"
	"strings"

	"pairchat/domain/chat"
	"pairchat/errors"

	"github.com/gin-gonic/gin"
)

// UserIDKey is the gin context key holding the authenticated chat.UserID.
const UserIDKey = "user_id"

type TokenValidator interface {
	ValidateToken(tokenString string, expected TokenType) (chat.UserID, error)
}

// RequireAuth validates the "Authorization: Bearer <access token>" header
// and injects the caller identity into the gin context.
func RequireAuth(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(tokenStr) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errors.ErrUnauthenticated.Error()})
			return
		}

		userID, err := tokens.ValidateToken(strings.TrimSpace(tokenStr), AccessToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errors.ErrInvalidToken.Error()})
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserIDFrom returns the identity injected by RequireAuth.
func UserIDFrom(c *gin.Context) (chat.UserID, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(chat.UserID)
	return id, ok
}
