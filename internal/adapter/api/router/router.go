package router

import (
	"github.com/labstack/echo/v4"

	"storedesk/internal/adapter/api/handler"
	"storedesk/internal/adapter/api/middleware"
)

func Setup(
	e *echo.Echo,
	authMiddleware *middleware.AuthMiddleware,
	adminMiddleware *middleware.AdminMiddleware,
	conversationHandler *handler.ConversationHandler,
	uploadHandler *handler.UploadHandler,
	wsHandler *handler.WebSocketHandler,
	healthHandler *handler.HealthHandler,
) {
	SetupConversationRouter(e, conversationHandler, authMiddleware, adminMiddleware)
	SetupUploadRouter(e, uploadHandler, authMiddleware)
	SetupWebSocketRouter(e, wsHandler)
	SetupHealthRouter(e, healthHandler)
}
