package server

import (
	"log/slog"
	"net/http"

	"pairchat/auth"
	"pairchat/observability"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	AllowedOrigins []string
}

// NewRouter wires the REST surface. Routes answer without a trailing slash;
// the slash-suffixed forms are redirected by gin.
func NewRouter(log *slog.Logger, h *Handler, tokens auth.TokenValidator,
	health *observability.HealthReporter, config RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), AccessLog(log))

	if len(config.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: config.AllowedOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{"Content-Type", "Authorization", requestIDHeader},
		}))
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse{Error: http.StatusText(http.StatusNotFound)})
	})

	if health != nil {
		router.GET("/health", func(c *gin.Context) {
			report, err := health.Report()
			if err != nil {
				log.Error("Health report failed", "err", err)
				c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
				return
			}
			c.JSON(http.StatusOK, report)
		})
	}

	public := router.Group("/auth")
	public.POST("/register", h.Register)
	public.POST("/token", h.ObtainToken)
	public.POST("/token/refresh", h.RefreshToken)

	protected := router.Group("/", auth.RequireAuth(tokens))
	protected.GET("/users", h.ListUsers)
	protected.GET("/conversations", h.ListConversations)
	protected.POST("/conversations", h.CreateConversation)
	protected.GET("/conversations/:conversation_id/messages", h.ListMessages)
	protected.POST("/conversations/:conversation_id/messages", h.CreateMessage)
	protected.GET("/conversations/:conversation_id/messages/:message_id", h.GetMessage)
	protected.DELETE("/conversations/:conversation_id/messages/:message_id", h.DeleteMessage)

	return router
}
