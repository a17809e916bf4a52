package user

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/favo/internal/api"
)

// GET /ubicaciones
func (h *Handler) ListUbicaciones(c echo.Context) error {
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	out, err := h.svc.ListUbicaciones(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

// GET /ubicaciones/:id
func (h *Handler) GetUbicacion(c echo.Context) error {
	id, err := api.ParamID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	u, err := h.svc.GetUbicacion(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

// POST /ubicaciones
func (h *Handler) CreateUbicacion(c echo.Context) error {
	var req UbicacionRequest
	if err := api.BindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	u, err := h.svc.CreateUbicacion(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, u)
}

// PUT /ubicaciones/:id
func (h *Handler) UpdateUbicacion(c echo.Context) error {
	id, err := api.ParamID(c, "id")
	if err != nil {
		return err
	}
	var req UbicacionRequest
	if err := api.BindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	u, err := h.svc.UpdateUbicacion(ctx, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}
