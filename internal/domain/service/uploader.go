package service

import (
	"bytes"
	"context"
	"io"

	"storedesk/pkg/errors"
	"storedesk/pkg/logger"
)

// Uploader stores a binary attachment and returns a durable URL. The engine
// only ever persists the URL string. The optional progress callback receives
// cumulative bytes written.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader, contentType string, progress func(written int64)) (string, error)
}

// FallbackUploader tries a primary uploader and falls back to a secondary
// when the primary fails. With no secondary configured, the primary's error
// is surfaced as UploadFailed and the caller decides whether the send
// proceeds without the attachment.
type FallbackUploader struct {
	primary   Uploader
	secondary Uploader
}

func NewFallbackUploader(primary, secondary Uploader) *FallbackUploader {
	return &FallbackUploader{primary: primary, secondary: secondary}
}

func (u *FallbackUploader) Upload(ctx context.Context, r io.Reader, contentType string, progress func(int64)) (string, error) {
	// The attachment is buffered so the fallback attempt can replay the
	// bytes the primary already consumed.
	data, err := io.ReadAll(r)
	if err != nil {
		return "", errors.UploadFailed(err)
	}

	url, err := u.primary.Upload(ctx, bytes.NewReader(data), contentType, progress)
	if err == nil {
		return url, nil
	}

	if u.secondary == nil {
		return "", errors.UploadFailed(err)
	}

	logger.Warn("Primary upload failed, trying fallback bucket: %v", err)
	url, ferr := u.secondary.Upload(ctx, bytes.NewReader(data), contentType, progress)
	if ferr != nil {
		return "", errors.UploadFailed(ferr)
	}
	return url, nil
}
