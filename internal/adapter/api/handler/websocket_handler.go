package handler

import (
	"context"
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	ws "roadmech/internal/infrastructure/websocket"
	"roadmech/pkg/errors"
)

type WebSocketHandler struct {
	gateway *ws.Gateway
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // restrict per deployment
	},
}

func NewWebSocketHandler(gateway *ws.Gateway) *WebSocketHandler {
	return &WebSocketHandler{
		gateway: gateway,
	}
}

// HandleWebSocket upgrades the connection and hands it to the gateway,
// which expects an authenticate event as the first message.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	// The request context dies when this handler returns, so the gateway
	// runs the connection on its own context.
	h.gateway.HandleConnection(context.Background(), conn)
	return nil
}
