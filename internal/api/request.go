package api

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/favo/internal/domain"
)

const (
	ContextUserID = "user_id"
	ContextUser   = "user"
	ContextRoles  = "roles"
)

// UserID returns the authenticated user's id.
func UserID(c echo.Context) (int64, error) {
	id, ok := c.Get(ContextUserID).(int64)
	if !ok || id == 0 {
		return 0, domain.ErrUnauthorized
	}
	return id, nil
}

// CurrentUser returns the user resolved by the auth middleware.
func CurrentUser(c echo.Context) (domain.User, error) {
	u, ok := c.Get(ContextUser).(domain.User)
	if !ok || u.ID == 0 {
		return domain.User{}, domain.ErrUnauthorized
	}
	return u, nil
}

// ParamID parses a positive integer path parameter.
func ParamID(c echo.Context, name string) (int64, error) {
	return parseID(name, c.Param(name))
}

// QueryID parses a positive integer query parameter. Missing yields 0, nil.
func QueryID(c echo.Context, name string) (int64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	return parseID(name, raw)
}

// QueryFloat parses an optional float query parameter. NaN and infinities
// are rejected.
func QueryFloat(c echo.Context, name string) (*float64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &domain.ValidationError{Field: name, Message: "must be a finite number"}
	}
	return &f, nil
}

// QueryBool parses an optional bool query parameter.
func QueryBool(c echo.Context, name string, def bool) bool {
	b, err := strconv.ParseBool(c.QueryParam(name))
	if err != nil {
		return def
	}
	return b
}

// BindAndValidate binds the request into dst and runs the echo validator.
func BindAndValidate(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return fmt.Errorf("%w: malformed request body", domain.ErrInvalidInput)
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(dst)
}

// Ctx derives a bounded context from the request.
func Ctx(c echo.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(c.Request().Context(), timeout)
}

func parseID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &domain.ValidationError{Field: name, Message: "must be a positive integer"}
	}
	return id, nil
}
