package main

import (
	"net/http"
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"drawzzl/config"
	"drawzzl/game"
	"drawzzl/logger"
)

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(ctx *gin.Context) { ctx.String(http.StatusOK, "healthy") })

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")
		if origin == "" || slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

func main() {
	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)

	log := logger.Log

	sessions := game.NewSessionRegistry(cfg.SessionTTL, cfg.GameEndedTTL)
	registry := game.NewRegistry(sessions, game.NewWordSource(), cfg.ReconnectGrace,
		game.NewTickerFactory(), log)

	registryStarted := make(chan struct{})
	go registry.Run(registryStarted)
	<-registryStarted

	gateway := game.NewGateway(registry, sessions, log)
	handler := game.NewHandler(gateway, cfg.AllowedOrigins, log)

	r := CreateServer(cfg.AllowedOrigins)
	r.GET("/ws", handler.ServeWS)

	log.Info().Str("addr", cfg.ListenAddr).Msg("drawzzl server listening")
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
