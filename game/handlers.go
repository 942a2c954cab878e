package game

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type Handler struct {
	gateway  *Gateway
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewHandler(gateway *Gateway, allowedOrigins []string, log zerolog.Logger) *Handler {
	return &Handler{
		gateway: gateway,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
		log: log,
	}
}

// ServeWS upgrades the connection and hands it to the gateway. Everything
// after the handshake happens over the event channel, not HTTP.
func (h *Handler) ServeWS(ctx *gin.Context) {
	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("ip", ctx.ClientIP()).Msg("websocket upgrade failed")
		return
	}
	ns := NewWebsocketConnection(conn)
	go h.gateway.HandleConnection(ns)
}
