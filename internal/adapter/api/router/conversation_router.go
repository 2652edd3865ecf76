package router

import (
	"github.com/labstack/echo/v4"

	"storedesk/internal/adapter/api/handler"
	"storedesk/internal/adapter/api/middleware"
)

// SetupConversationRouter sets up the conversation and message routes.
func SetupConversationRouter(e *echo.Echo, conversationHandler *handler.ConversationHandler, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	group := e.Group("/v1/conversations")
	group.Use(middleware.GeneralRateLimit())

	// Sends skip Authenticate: the identity resolver decides between the
	// verified session and the cached fallback identity.
	group.POST("/:id/messages", conversationHandler.SendMessage, middleware.SendRateLimit())

	group.GET("", conversationHandler.GetConversations, authMiddleware.Authenticate)
	group.POST("", conversationHandler.OpenConversation, authMiddleware.Authenticate)
	group.GET("/:id/messages", conversationHandler.GetMessages, authMiddleware.Authenticate)
	group.PUT("/:id/read", conversationHandler.MarkAsRead, authMiddleware.Authenticate)

	// Clearing is a participant action: the paired seller or an admin.
	// The usecase enforces participation.
	group.POST("/:id/reset", conversationHandler.ResetConversation, authMiddleware.Authenticate)

	// Moderation
	group.DELETE("/:id/messages/:messageId", conversationHandler.DeleteMessage, authMiddleware.Authenticate, adminMiddleware.AdminOnly)
}
