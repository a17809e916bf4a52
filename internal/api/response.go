// Package api holds the HTTP plumbing shared by every handler package.
package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sudo-init-do/favo/internal/domain"
)

// APIError is the body of every failed response.
type APIError struct {
	Code   string       `json:"error"`
	Detail string       `json:"detail"`
	Fields []FieldError `json:"fields,omitempty"`
}

// FieldError represents a field-level validation error.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// HTTPErrorHandler maps domain errors to status codes and writes an APIError.
func HTTPErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, apiErr := mapError(err)
		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}
		var jsonErr error
		if c.Request().Method == http.MethodHead {
			jsonErr = c.NoContent(status)
		} else {
			jsonErr = c.JSON(status, apiErr)
		}
		if jsonErr != nil {
			log.Error("failed to send error response", zap.Error(jsonErr))
		}
	}
}

func mapError(err error) (int, APIError) {
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		msg, ok := echoErr.Message.(string)
		if !ok || msg == "" {
			msg = http.StatusText(echoErr.Code)
		}
		return echoErr.Code, APIError{Code: codeForStatus(echoErr.Code), Detail: msg}
	}

	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, APIError{
			Code:   "validation_error",
			Detail: validationErr.Error(),
			Fields: []FieldError{{Field: validationErr.Field, Message: validationErr.Message}},
		}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, APIError{Code: "not_found", Detail: err.Error()}
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, APIError{Code: "unauthorized", Detail: err.Error()}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, APIError{Code: "forbidden", Detail: err.Error()}
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, APIError{Code: "invalid_input", Detail: err.Error()}
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict, APIError{Code: "invalid_state", Detail: err.Error()}
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, APIError{Code: "conflict", Detail: err.Error()}
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusInternalServerError, APIError{Code: "upstream_failure", Detail: err.Error()}
	default:
		return http.StatusInternalServerError, APIError{Code: "internal_error", Detail: "an unexpected error occurred"}
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusTooManyRequests:
		return "too_many_requests"
	case http.StatusBadRequest:
		return "bad_request"
	}
	return "http_error"
}
