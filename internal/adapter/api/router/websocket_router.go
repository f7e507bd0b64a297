package router

import (
	"github.com/labstack/echo/v4"

	"roadmech/internal/adapter/api/handler"
)

// SetupWebSocketRouter has no auth middleware; the gateway authenticates
// inside the connection with the first event.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/ws", wsHandler.HandleWebSocket)
}
