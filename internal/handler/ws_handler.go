package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/sihmvp/dropout-monitor/internal/events"
	"github.com/sihmvp/dropout-monitor/internal/middleware"
	ws "github.com/sihmvp/dropout-monitor/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams roster change notifications.
type WSHandler struct {
	bus      events.Bus
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(bus events.Bus, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		bus:      bus,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// RosterStream godoc
// WS /ws/roster?token=
// Forwards every roster event until the client disconnects.
func (h *WSHandler) RosterStream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("username", middleware.Actor(c)).Logger()

	sub, cancel, err := h.bus.Subscribe(c.Request.Context())
	if err != nil {
		wsLog.Error().Err(err).Msg("Roster subscription failed")
		ws.WriteError(conn, "subscription failed")
		return
	}
	defer cancel()

	// The reader only services control frames and notices the close.
	closed := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(ws.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(ws.PongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
		}
	}()

	if err := ws.WriteTyped(conn, ws.Frame{Event: ws.EventReady}); err != nil {
		return
	}
	wsLog.Info().Msg("Roster watcher connected")

	ping := time.NewTicker(ws.PingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			wsLog.Debug().Msg("Roster watcher disconnected")
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			if err := ws.WriteRoster(conn, ev); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed")
				return
			}
		case <-ping.C:
			if err := ws.WritePing(conn); err != nil {
				return
			}
		}
	}
}
