package handler

import (
	"github.com/labstack/echo/v4"

	"storedesk/internal/domain/service"
	"storedesk/pkg/errors"
	"storedesk/pkg/logger"
	"storedesk/pkg/response"
)

type UploadHandler struct {
	uploader service.Uploader
}

func NewUploadHandler(uploader service.Uploader) *UploadHandler {
	return &UploadHandler{
		uploader: uploader,
	}
}

// Upload stores an image attachment and returns its durable URL. The client
// sends the message referencing the URL afterwards.
func (h *UploadHandler) Upload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.BadRequest("File is required", err))
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !isAllowedImageType(contentType) {
		return response.Error(c, errors.BadRequest("Only image attachments are supported", nil))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return response.Error(c, errors.Internal("Failed to open uploaded file", err))
	}
	defer src.Close()

	url, err := h.uploader.Upload(c.Request().Context(), src, contentType, func(written int64) {
		logger.Debug("Upload progress for %s: %d/%d bytes", fileHeader.Filename, written, fileHeader.Size)
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, map[string]string{"url": url})
}

func isAllowedImageType(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}
