package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/favo/internal/api"
)

type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=6,max=72"`
	Nombre      string `json:"nombre" validate:"required,max=120"`
	EsProveedor *bool  `json:"es_proveedor"`
	EsDemanda   *bool  `json:"es_demanda"`
	UbicacionID *int64 `json:"id_ubicacion" validate:"omitempty,gt=0"`
}

type Handler struct {
	svc     *Service
	timeout time.Duration
}

func NewHandler(svc *Service, timeout time.Duration) *Handler {
	return &Handler{svc: svc, timeout: timeout}
}

// ===== Register =====
func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := api.BindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	u, err := h.svc.Register(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, u)
}
