package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sudo-init-do/favo/internal/domain"
)

func TestHTTPErrorHandlerMapsDomainErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("pedido 3: %w", domain.ErrNotFound), http.StatusNotFound, "not_found"},
		{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
		{domain.ErrInvalidState, http.StatusConflict, "invalid_state"},
		{domain.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
		{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{domain.ErrConflict, http.StatusConflict, "conflict"},
		{&domain.ValidationError{Field: "titulo", Message: "required"}, http.StatusBadRequest, "validation_error"},
		{echo.ErrNotFound, http.StatusNotFound, "not_found"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "internal_error"},
	}

	e := echo.New()
	h := HTTPErrorHandler(zap.NewNop())
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		h(tc.err, c)

		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		var body APIError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, tc.code, body.Code)
	}
}

func TestUpstreamErrorKeepsUnderlyingMessage(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	HTTPErrorHandler(zap.NewNop())(fmt.Errorf("%w: insert pedido: connection refused", domain.ErrUpstream), c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "upstream_failure", body.Code)
	assert.Contains(t, body.Detail, "connection refused")
}

func TestValidator(t *testing.T) {
	type req struct {
		Titulo string `validate:"required"`
		Score  int    `validate:"min=1,max=5"`
	}
	v := NewValidator()
	require.NoError(t, v.Validate(req{Titulo: "x", Score: 3}))

	err := v.Validate(req{Score: 3})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Titulo", verr.Field)
}

func TestParamAndQueryParsing(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?id_categoria=4&precio_nuevo=40.5&only_active=true", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("12")

	id, err := ParamID(c, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	cat, err := QueryID(c, "id_categoria")
	require.NoError(t, err)
	assert.Equal(t, int64(4), cat)

	missing, err := QueryID(c, "nope")
	require.NoError(t, err)
	assert.Zero(t, missing)

	price, err := QueryFloat(c, "precio_nuevo")
	require.NoError(t, err)
	require.NotNil(t, price)
	assert.Equal(t, 40.5, *price)

	assert.True(t, QueryBool(c, "only_active", false))
	assert.True(t, QueryBool(c, "missing", true))

	c.SetParamValues("-1")
	_, err = ParamID(c, "id")
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestQueryFloatRejectsNonFinite(t *testing.T) {
	e := echo.New()
	for _, raw := range []string{"NaN", "Inf", "+Inf", "-Inf", "abc"} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?precio_nuevo="+url.QueryEscape(raw), nil), httptest.NewRecorder())
		_, err := QueryFloat(c, "precio_nuevo")
		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr, raw)
	}
}

func TestUserIDRequiresAuth(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	_, err := UserID(c)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	c.Set(ContextUserID, int64(7))
	id, err := UserID(c)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
}
