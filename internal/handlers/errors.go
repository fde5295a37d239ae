package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mauv0809/simfin-analysis/internal/simfin"
	"github.com/rs/zerolog"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ErrorHandler writes errors as {"detail": ...}. Tickers without data map to
// 404, echo errors keep their status, and anything else is a 500.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, detail := errorStatus(err)
	logger := zerolog.Ctx(c.Request().Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", status).Msg("request failed")
	} else {
		logger.Debug().Err(err).Int("status", status).Msg("request rejected")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, ErrorResponse{Detail: detail})
	}
	if err != nil {
		logger.Error().Err(err).Msg("writing error response")
	}
}

func errorStatus(err error) (int, string) {
	if errors.Is(err, simfin.ErrNoDataFound) {
		return http.StatusNotFound, err.Error()
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := fmt.Sprint(he.Message)
		if he.Code >= http.StatusInternalServerError {
			return he.Code, unexpected(msg)
		}
		return he.Code, msg
	}

	return http.StatusInternalServerError, unexpected(err.Error())
}

func unexpected(msg string) string {
	return "An unexpected error occurred: " + msg
}
