package handlers

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// ContextLogger attaches logger to each request context, tagged with the
// request id when the RequestID middleware runs first.
func ContextLogger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			l := logger
			if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
				l = logger.With().Str("request_id", id).Logger()
			}
			req := c.Request()
			c.SetRequest(req.WithContext(l.WithContext(req.Context())))
			return next(c)
		}
	}
}

// RequestLogger logs one line per request through the context logger.
func RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogStatus:   true,
		LogURI:      true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger := zerolog.Ctx(c.Request().Context())
			event := logger.Info()
			if v.Error != nil {
				event = logger.Warn().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}

// Register wires the routes, validator and error handler onto e.
func Register(e *echo.Echo, h *Handler, analysis *AnalysisHandler) {
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler

	e.GET("/", h.Root)
	e.GET("/health", h.Health)
	e.GET("/analysis/:ticker", analysis.Analyze)
	e.GET("/analysis/:ticker/chart", analysis.Chart)
}
