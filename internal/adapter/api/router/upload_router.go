package router

import (
	"github.com/labstack/echo/v4"

	"storedesk/internal/adapter/api/handler"
	"storedesk/internal/adapter/api/middleware"
)

func SetupUploadRouter(e *echo.Echo, uploadHandler *handler.UploadHandler, authMiddleware *middleware.AuthMiddleware) {
	e.POST("/v1/uploads", uploadHandler.Upload, authMiddleware.Authenticate, middleware.UploadRateLimit())
}
