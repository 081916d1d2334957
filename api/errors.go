package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"

	"github.com/austinstudio/meeting-actions-sub000/domain"
)

const maxBodySize = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

var errInvalidBody = echo.NewHTTPError(http.StatusBadRequest, "invalid body")

// statusForError maps domain failures to HTTP status codes.
func statusForError(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return http.StatusConflict
	case errors.As(err, &he):
		return he.Code
	}
	return http.StatusInternalServerError
}

func errorMessage(status int, err error) string {
	var he *echo.HTTPError
	switch {
	case status == http.StatusInternalServerError:
		return "internal error"
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return "the board was changed concurrently, retry the request"
	case errors.As(err, &he):
		if msg, ok := he.Message.(string); ok {
			return msg
		}
	}
	return err.Error()
}

// decodeBody reads a size limited JSON body, rejecting unknown fields.
func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, maxBodySize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errInvalidBody
	}
	return nil
}
