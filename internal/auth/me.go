package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/favo/internal/api"
)

// Me returns the currently authenticated user's profile
func (h *Handler) Me(c echo.Context) error {
	u, err := api.CurrentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}
