package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    "BAD_REQUEST",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func Unauthorized(message string, err error) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

func Forbidden(message string, err error) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     err,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Message: message,
		Status:  http.StatusConflict,
		Err:     nil,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// NoAdminAvailable means the support pool is empty, so no conversation can be
// paired for the seller. Fatal to that operation.
func NoAdminAvailable(err error) *AppError {
	return &AppError{
		Code:    "NO_ADMIN_AVAILABLE",
		Message: "No support agent is available right now",
		Status:  http.StatusServiceUnavailable,
		Err:     err,
	}
}

// InvalidSend rejects a message whose trimmed text and image URL are both
// empty. Raised before any store call, so it has no side effects.
func InvalidSend() *AppError {
	return &AppError{
		Code:    "INVALID_SEND",
		Message: "Message must contain text or an image",
		Status:  http.StatusBadRequest,
		Err:     nil,
	}
}

func UploadFailed(err error) *AppError {
	return &AppError{
		Code:    "UPLOAD_FAILED",
		Message: "Attachment upload failed",
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}

// PartialBatchFailure marks a reset or multi-step repair that did not fully
// commit. It is never hidden from the caller.
func PartialBatchFailure(message string, err error) *AppError {
	return &AppError{
		Code:    "PARTIAL_BATCH_FAILURE",
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
