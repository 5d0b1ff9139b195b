package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pairchat/auth"
	"pairchat/domain/chat"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	issuer := auth.NewTokenIssuer("test-secret", time.Hour, 24*time.Hour, chat.SystemClock{})

	router := gin.New()
	router.GET("/me", auth.RequireAuth(issuer), func(c *gin.Context) {
		userID, ok := auth.UserIDFrom(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, userID.String())
	})

	call := func(header string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		router.ServeHTTP(rec, r)
		return rec
	}

	t.Run("should fail when header is missing", func(t *testing.T) {
		rec := call("")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("should fail with invalid token", func(t *testing.T) {
		req := require.New(t)
		rec := call("Bearer invalid-token-string")
		req.Equal(http.StatusUnauthorized, rec.Code)
		req.Contains(rec.Body.String(), "invalid or expired")
	})

	t.Run("should fail with a refresh token", func(t *testing.T) {
		req := require.New(t)
		token, err := issuer.GenerateToken(7, auth.RefreshToken)
		req.NoError(err)
		req.Equal(http.StatusUnauthorized, call("Bearer "+token).Code)
	})

	t.Run("should succeed and inject user id when token is valid", func(t *testing.T) {
		req := require.New(t)
		token, err := issuer.GenerateToken(7, auth.AccessToken)
		req.NoError(err)

		rec := call("Bearer " + token)
		req.Equal(http.StatusOK, rec.Code)
		req.Equal("7", rec.Body.String())
	})
}
