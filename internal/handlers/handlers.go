// Package handlers exposes the analysis service over HTTP with echo.
package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// WelcomeMessage is returned by the root endpoint.
const WelcomeMessage = "Welcome to the SimFin Analysis API"

type Handler struct{}

func New() *Handler {
	return &Handler{}
}

// Root greets API clients
// @Summary Welcome message
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router / [get]
func (h *Handler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": WelcomeMessage,
	})
}

// Health returns application health status
// @Summary Health check
// @Description Returns the health status of the application
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
