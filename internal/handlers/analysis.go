package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/mauv0809/simfin-analysis/internal/models"
	"github.com/mauv0809/simfin-analysis/internal/present"
	"github.com/mauv0809/simfin-analysis/internal/service"
	"github.com/rs/zerolog"
)

// Analyzer computes the ratio table for one ticker.
type Analyzer interface {
	Analyze(ctx context.Context, req service.Request) ([]models.FiscalYearRatios, error)
}

// AnalysisHandler handles the ratio analysis endpoints.
type AnalysisHandler struct {
	analyzer Analyzer
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(analyzer Analyzer) *AnalysisHandler {
	return &AnalysisHandler{analyzer: analyzer}
}

// AnalysisRequest holds the path and query parameters of an analysis.
type AnalysisRequest struct {
	Ticker  string `param:"ticker" validate:"required,ticker"`
	Variant string `query:"variant" validate:"omitempty,oneof=annual quarterly"`
	Market  string `query:"market" validate:"omitempty,alpha,min=2,max=3"`
	Refresh bool   `query:"refresh"`
}

// AnalysisResponse is the JSON body of GET /analysis/:ticker.
type AnalysisResponse struct {
	Data  []present.Record `json:"data"`
	Image *string          `json:"image"`
}

// Analyze handles GET /analysis/:ticker
// Query params:
// - variant: annual (default) or quarterly
// - market: SimFin market, defaults to the configured market
// - refresh: if "true", download the share price dataset again first
func (h *AnalysisHandler) Analyze(c echo.Context) error {
	req, rows, err := h.run(c)
	if err != nil {
		return err
	}

	resp := AnalysisResponse{Data: present.Records(rows)}
	image, err := present.MarginChartDataURI(req.Ticker, rows)
	switch {
	case errors.Is(err, present.ErrNothingToPlot):
		zerolog.Ctx(c.Request().Context()).Warn().Str("ticker", req.Ticker).Msg("nothing to chart")
	case err != nil:
		return fmt.Errorf("charting %s: %w", req.Ticker, err)
	default:
		resp.Image = &image
	}

	return c.JSON(http.StatusOK, resp)
}

// Chart handles GET /analysis/:ticker/chart
// Accepts the same query params as Analyze and returns an interactive HTML
// margin chart.
func (h *AnalysisHandler) Chart(c echo.Context) error {
	req, rows, err := h.run(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := present.MarginChartHTML(&buf, req.Ticker, rows); err != nil {
		if errors.Is(err, present.ErrNothingToPlot) {
			return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("nothing to plot for %s", req.Ticker))
		}
		return fmt.Errorf("charting %s: %w", req.Ticker, err)
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

func (h *AnalysisHandler) run(c echo.Context) (AnalysisRequest, []models.FiscalYearRatios, error) {
	var req AnalysisRequest
	if err := c.Bind(&req); err != nil {
		return req, nil, err
	}
	if err := c.Validate(&req); err != nil {
		return req, nil, err
	}
	req.Market = strings.ToLower(req.Market)

	rows, err := h.analyzer.Analyze(c.Request().Context(), service.Request{
		Ticker:  req.Ticker,
		Market:  req.Market,
		Variant: req.Variant,
		Refresh: req.Refresh,
	})
	if err != nil {
		return req, nil, err
	}
	return req, rows, nil
}
