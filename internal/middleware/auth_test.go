package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"template-storefront/internal/apperr"
	"template-storefront/internal/service"

	"github.com/labstack/echo/v4"
)

const token = "back-office-token-123"

func TestAdminAuth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		header  http.Header
		wantErr bool
	}{
		{name: "bearer", header: http.Header{echo.HeaderAuthorization: {"Bearer " + token}}},
		{name: "x_admin_token", header: http.Header{"X-Admin-Token": {token}}},
		{name: "wrong_token", header: http.Header{echo.HeaderAuthorization: {"Bearer nope"}}, wantErr: true},
		{name: "basic_scheme", header: http.Header{echo.HeaderAuthorization: {"Basic " + token}}, wantErr: true},
		{name: "missing", header: http.Header{}, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
			req.Header = tt.header
			c := e.NewContext(req, httptest.NewRecorder())

			reached := false
			h := AdminAuth(service.NewAuthorizer(token))(func(c echo.Context) error {
				reached = true
				if AdminCapability(c) == (service.AdminCapability{}) {
					t.Error("handler should receive a granted capability")
				}
				return nil
			})

			err := h(c)
			if tt.wantErr {
				if !errors.Is(err, apperr.ErrUnauthorized) {
					t.Fatalf("expected ErrUnauthorized, got %v", err)
				}
				if reached {
					t.Fatal("handler must not run without a valid token")
				}
				return
			}
			if err != nil || !reached {
				t.Fatalf("expected handler to run, err=%v", err)
			}
		})
	}
}

func TestAdminCapabilityWithoutMiddleware(t *testing.T) {
	t.Parallel()

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if AdminCapability(c) != (service.AdminCapability{}) {
		t.Fatal("expected zero capability")
	}
}
