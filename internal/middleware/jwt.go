package middleware

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/favo/internal/api"
	"github.com/sudo-init-do/favo/internal/domain"
	"github.com/sudo-init-do/favo/internal/utils"
)

// Authenticator resolves a raw bearer token to the user it was issued for.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (domain.User, error)
}

// JWTAuth validates the Bearer token and injects the user into the echo context.
// The user is looked up on every request so deleted accounts lose access at once.
func JWTAuth(auth Authenticator, timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := utils.BearerToken(c)
			if err != nil {
				return domain.ErrUnauthorized
			}

			ctx, cancel := api.Ctx(c, timeout)
			defer cancel()
			u, err := auth.Authenticate(ctx, raw)
			if err != nil {
				return err
			}

			c.Set(api.ContextUserID, u.ID)
			c.Set(api.ContextUser, u)
			c.Set(api.ContextRoles, u.Roles())
			return next(c)
		}
	}
}
