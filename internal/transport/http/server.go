package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/meister-server/internal/auth"
	"github.com/vovakirdan/meister-server/internal/config"
	"github.com/vovakirdan/meister-server/internal/core"
	"github.com/vovakirdan/meister-server/internal/service/stats"
)

// NewServer builds the HTTP server: the game WebSocket, the lobby and the admin API.
func NewServer(hub *core.Hub, authService *auth.Service, statsService *stats.Service, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), CORSMiddleware(), LoggerMiddleware(logger))

	api := NewAPIHandlers(authService, statsService, hub.Manager(), logger)
	ws := NewWSHandler(hub, WSOptions{
		MaxMessageBytes: cfg.MaxMessageBytes,
		RateLimit:       cfg.RateLimit,
	}, logger)

	router.GET("/health", api.Health)
	router.GET("/ws", gin.WrapH(ws))
	router.GET("/api/rooms", api.Rooms)

	admin := router.Group("/api/admin")
	admin.POST("/login", api.Login)
	admin.GET("/users", api.ListUsers)
	admin.GET("/history", api.History)
	admin.GET("/stats", api.Stats)
	admin.GET("/overrides", api.ListOverrides)

	protected := admin.Group("", AdminMiddleware(authService, logger))
	protected.POST("/users", api.AddUser)
	protected.DELETE("/users/:name", api.RemoveUser)
	protected.PUT("/overrides/:name", api.PutOverride)
	protected.DELETE("/overrides/:name", api.DeleteOverride)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
