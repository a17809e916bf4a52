package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/favo/internal/api"
)

// TokenRequest is the OAuth2 password-grant form. username carries the email.
type TokenRequest struct {
	Username string `form:"username" json:"username" validate:"required"`
	Password string `form:"password" json:"password" validate:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// ===== Token =====
func (h *Handler) Token(c echo.Context) error {
	var req TokenRequest
	if err := api.BindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	tok, err := h.svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, TokenResponse{
		AccessToken: tok.Token,
		TokenType:   "bearer",
		ExpiresIn:   int64(h.svc.opts.TTL.Seconds()),
	})
}
