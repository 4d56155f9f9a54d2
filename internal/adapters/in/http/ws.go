package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"dispatch/internal/coordination"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/metrics"
	"dispatch/internal/realtime"

	"github.com/labstack/echo/v4"
	"golang.org/x/net/websocket"
)

// WSHandler upgrades /ws requests and pumps envelopes between the socket and
// the coordination service.
type WSHandler struct {
	coordinator *coordination.Service
	logger      *slog.Logger
}

// NewWSHandler creates the websocket entry point.
func NewWSHandler(coordinator *coordination.Service, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		coordinator: coordinator,
		logger:      logger.With("component", "ws_handler"),
	}
}

// Serve handles GET /ws. The identity headers must be present; an anonymous
// connection is refused before the upgrade.
func (h *WSHandler) Serve(ctx echo.Context) error {
	actor, err := actorFromRequest(ctx)
	if err != nil {
		return jsonError(ctx, http.StatusUnauthorized, "missing or invalid identity headers")
	}

	websocket.Handler(func(conn *websocket.Conn) {
		h.pump(actor, conn)
	}).ServeHTTP(ctx.Response(), ctx.Request())
	return nil
}

// wsConn adapts one websocket connection to the registry's Sender.
type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) Send(env realtime.Envelope) error {
	return websocket.JSON.Send(c.conn, env)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

// pump registers the connection and runs its read loop until the client goes
// away. Payload-level rejections are answered over the socket by the
// coordination service; only a transport failure ends the loop.
func (h *WSHandler) pump(actor kernel.Actor, conn *websocket.Conn) {
	sender := &wsConn{conn: conn}
	session, err := h.coordinator.Registry().Register(actor, sender)
	if err != nil {
		_ = conn.Close()
		return
	}

	metrics.ConnectionsActive.Inc()
	defer func() {
		h.coordinator.Registry().Unregister(session.ID)
		metrics.ConnectionsActive.Dec()
		_ = conn.Close()
	}()

	ctx := conn.Request().Context()
	for {
		var env realtime.Envelope
		if err := websocket.JSON.Receive(conn, &env); err != nil {
			if !errors.Is(err, io.EOF) {
				h.logger.Debug("websocket read ended",
					"session_id", session.ID.String(), "error", err)
			}
			return
		}
		h.coordinator.HandleMessage(ctx, session, env)
	}
}
