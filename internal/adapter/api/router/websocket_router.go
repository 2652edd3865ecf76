package router

import (
	"github.com/labstack/echo/v4"

	"storedesk/internal/adapter/api/handler"
)

// SetupWebSocketRouter sets up the live feed endpoint. Auth happens inside
// the handler via the token query parameter.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/v1/ws", wsHandler.HandleWebSocket)
}
