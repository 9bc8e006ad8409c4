package handlers

import (
	"log/slog"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"event-ticketing/internal/status"
)

func httpStatus(k status.Kind) int {
	switch k {
	case status.KindNotFound:
		return http.StatusNotFound
	case status.KindValidation, status.KindConflict, status.KindSecurity:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {success, error, message}. Internal causes are
// logged, never returned to the client.
func writeError(e *core.RequestEvent, err error) error {
	se, ok := status.As(err)
	if !ok {
		se = status.Wrap(status.ErrInternal, err)
	}

	code := httpStatus(se.Kind)
	if code >= http.StatusInternalServerError {
		slog.ErrorContext(e.Request.Context(), "request failed",
			"method", e.Request.Method,
			"path", e.Request.URL.Path,
			"code", se.Code,
			"error", err,
		)
	}

	return e.JSON(code, map[string]any{
		"success": false,
		"error":   se.Code,
		"message": se.Message,
	})
}
