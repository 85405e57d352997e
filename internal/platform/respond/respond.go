// Package respond renders JSON bodies and error responses for the HTTP transports.
package respond

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Bahjat/seo-monitor/internal/model"
	"github.com/Bahjat/seo-monitor/internal/platform/errs"
)

const unexpectedMessage = "An unexpected error occurred."

// JSON writes data as a JSON body with the given status.
func JSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
		http.Error(w, `{"error":"Internal Server Error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Error writes a model.ErrorResponse with the given status and message.
func Error(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	JSON(w, logger, status, model.ErrorResponse{
		Error:      http.StatusText(status),
		StatusCode: status,
		Message:    message,
	})
}

// AppError maps err onto an HTTP status and writes it. Errors outside the
// errs taxonomy become a 500 with a generic message.
func AppError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *errs.AppError
	if !errors.As(err, &appErr) || appErr.Kind == errs.Unknown {
		Error(w, logger, http.StatusInternalServerError, unexpectedMessage)
		return
	}

	status := Status(appErr)
	JSON(w, logger, status, model.ErrorResponse{
		Error:      http.StatusText(status),
		StatusCode: status,
		Message:    appErr.Message,
		Kind:       appErr.Kind.String(),
		Step:       appErr.Step,
	})
}

// Status returns the HTTP status for an application error.
func Status(appErr *errs.AppError) int {
	switch appErr.Kind {
	case errs.InvalidInput:
		return http.StatusBadRequest
	case errs.FetchFailed:
		if appErr.Timeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case errs.ParseFailed:
		return http.StatusUnprocessableEntity
	case errs.NotFound:
		return http.StatusNotFound
	case errs.Unauthorized:
		return http.StatusUnauthorized
	case errs.Conflict:
		return http.StatusConflict
	case errs.RateLimited:
		return http.StatusTooManyRequests
	case errs.ExtractionFailed, errs.Unknown:
		// 500 Internal Server Error
	}
	return http.StatusInternalServerError
}
