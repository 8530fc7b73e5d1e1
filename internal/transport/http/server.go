package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/dkoval/chatterbox-server/internal/auth"
	"github.com/dkoval/chatterbox-server/internal/config"
	"github.com/dkoval/chatterbox-server/internal/core"
	"github.com/dkoval/chatterbox-server/internal/store"
)

// NewServer builds the HTTP server: REST API, health check, and the
// WebSocket endpoint.
func NewServer(hub *core.Hub, authService *auth.Service, st store.Store, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(LoggerMiddleware(logger), gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	apiHandlers := NewAPIHandlers(authService, logger)
	roomHandlers := NewRoomHandlers(st, logger)

	api := router.Group("/api")
	api.POST("/signup", apiHandlers.Signup)
	api.POST("/login", apiHandlers.Login)

	authorized := api.Group("")
	authorized.Use(AuthMiddleware(authService, logger))
	authorized.POST("/rooms", roomHandlers.CreateRoom)
	authorized.GET("/rooms", roomHandlers.ListRooms)
	authorized.GET("/rooms/:id", roomHandlers.GetRoom)
	authorized.POST("/rooms/:id/join", roomHandlers.JoinRoom)
	authorized.GET("/rooms/:id/messages", roomHandlers.ListMessages)

	router.GET("/ws", gin.WrapH(NewWSHandler(hub, authService, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
