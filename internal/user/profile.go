package user

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/favo/internal/api"
)

type Handler struct {
	svc     *Service
	timeout time.Duration
}

func NewHandler(svc *Service, timeout time.Duration) *Handler {
	return &Handler{svc: svc, timeout: timeout}
}

// PUT /users/me
func (h *Handler) UpdateProfile(c echo.Context) error {
	actor, err := api.UserID(c)
	if err != nil {
		return err
	}
	var req UpdateProfileRequest
	if err := api.BindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	u, err := h.svc.UpdateProfile(ctx, actor, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

// GET /usuarios/:id
func (h *Handler) GetPublicProfile(c echo.Context) error {
	id, err := api.ParamID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	profile, err := h.svc.PublicProfile(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// GET /usuarios/buscar?q=&limit=
func (h *Handler) Search(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	users, err := h.svc.Search(ctx, c.QueryParam("q"), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}
