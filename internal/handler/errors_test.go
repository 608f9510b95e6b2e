package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"template-storefront/internal/apperr"
	"template-storefront/internal/dto"

	"github.com/labstack/echo/v4"
)

func TestErrorHandler(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tests := []struct {
		name    string
		path    string
		err     error
		code    int
		kind    string
		message string
	}{
		{
			name:    "buyer_sees_safe_message",
			path:    "/api/orders/verify",
			err:     fmt.Errorf("check session paid: dial tcp: timeout: %w", apperr.ErrGatewayError),
			code:    http.StatusBadGateway,
			kind:    "gateway_error",
			message: "we couldn't confirm your payment yet - it may take a moment",
		},
		{
			name:    "expired_credential",
			path:    "/api/downloads/:token",
			err:     fmt.Errorf("order 1: %w", apperr.ErrCredentialExpired),
			code:    http.StatusGone,
			kind:    "credential_expired",
			message: "this download link has expired, look up your order again to get a fresh one",
		},
		{
			name:    "admin_sees_detail",
			path:    "/api/admin/categories/:id",
			err:     fmt.Errorf("category cat-1 still has products: %w", apperr.ErrConflict),
			code:    http.StatusConflict,
			kind:    "conflict",
			message: "category cat-1 still has products: conflict",
		},
		{
			name:    "unknown_error",
			path:    "/api/checkout",
			err:     fmt.Errorf("boom"),
			code:    http.StatusInternalServerError,
			kind:    "internal",
			message: "something went wrong",
		},
		{
			name:    "echo_http_error",
			path:    "/api/checkout",
			err:     echo.NewHTTPError(http.StatusMethodNotAllowed, "method not allowed"),
			code:    http.StatusMethodNotAllowed,
			kind:    "method_not_allowed",
			message: "method not allowed",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			c.SetPath(tt.path)

			ErrorHandler(logger)(tt.err, c)

			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
			var body dto.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error != tt.kind || body.Message != tt.message {
				t.Fatalf("unexpected body %+v", body)
			}
		})
	}
}
