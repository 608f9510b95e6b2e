package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"template-storefront/internal/apperr"
	"template-storefront/internal/dto"

	"github.com/labstack/echo/v4"
)

const adminPathPrefix = "/api/admin"

// ErrorHandler renders every error returned by a handler as a dto.ErrorResponse.
// Buyers only ever see apperr.BuyerMessage; back-office routes get the error text.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var (
			status int
			body   dto.ErrorResponse
			he     *echo.HTTPError
		)
		if errors.As(err, &he) {
			status = he.Code
			body.Error = strings.ReplaceAll(strings.ToLower(http.StatusText(status)), " ", "_")
			body.Message = fmt.Sprint(he.Message)
		} else {
			status = apperr.HTTPStatus(err)
			body.Error = apperr.Kind(err)
			body.Message = apperr.BuyerMessage(err)
			if strings.HasPrefix(c.Path(), adminPathPrefix) {
				body.Message = err.Error()
			}
		}

		req := c.Request()
		attrs := []any{
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.Int("status", status),
			slog.Any("error", err),
		}
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(req.Context(), "request failed", attrs...)
		} else {
			logger.DebugContext(req.Context(), "request rejected", attrs...)
		}

		if req.Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.ErrorContext(req.Context(), "write error response", slog.Any("error", err))
		}
	}
}

func badRequest(what string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %v: %w", what, err, apperr.ErrInvalidInput)
	}
	return fmt.Errorf("%s: %w", what, apperr.ErrInvalidInput)
}
