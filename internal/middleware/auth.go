package middleware

import (
	"strings"

	"template-storefront/internal/service"

	"github.com/labstack/echo/v4"
)

const adminCapabilityKey = "admin_capability"

// AdminAuth checks the back-office bearer token and stores the resulting
// capability on the context. Requests without a valid token never reach the
// handler.
func AdminAuth(authorizer *service.Authorizer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ac, err := authorizer.Authorize(bearerToken(c))
			if err != nil {
				return err
			}
			c.Set(adminCapabilityKey, ac)
			return next(c)
		}
	}
}

// AdminCapability returns the capability set by AdminAuth. Outside of that
// middleware it is the zero value, which grants nothing.
func AdminCapability(c echo.Context) service.AdminCapability {
	ac, _ := c.Get(adminCapabilityKey).(service.AdminCapability)
	return ac
}

func bearerToken(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return c.Request().Header.Get("X-Admin-Token")
}
