package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/favo/internal/api"
	"github.com/sudo-init-do/favo/internal/domain"
)

// RequireRoles ensures the requester holds at least one of the allowed roles.
// Usage: route(..., RequireRoles(domain.RoleProveedor))
func RequireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			held, _ := c.Get(api.ContextRoles).([]string)
			if len(held) == 0 {
				return fmt.Errorf("%w: role missing", domain.ErrForbidden)
			}

			for _, h := range held {
				for _, r := range roles {
					if h == r {
						return next(c)
					}
				}
			}
			return fmt.Errorf("%w: access denied", domain.ErrForbidden)
		}
	}
}
