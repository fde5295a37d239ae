// Package service runs a ratio analysis for one ticker: it fetches the raw
// statements and prices, then hands them to the ratio pipeline.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mauv0809/simfin-analysis/internal/models"
	"github.com/mauv0809/simfin-analysis/internal/ratios"
	"github.com/mauv0809/simfin-analysis/internal/simfin"
	"github.com/rs/zerolog"
)

const (
	DefaultMarket  = "us"
	DefaultVariant = "annual"
	DefaultTimeout = 5 * time.Minute
)

// MarketData is the subset of the SimFin client the service needs.
type MarketData interface {
	FetchStatements(ctx context.Context, ticker, market, variant string) ([]models.StatementRow, error)
	FetchPrices(ctx context.Context, ticker, market, variant string, opts ...simfin.FetchOption) ([]models.PriceRow, error)
}

// Request selects the company and reporting variant to analyze.
type Request struct {
	Ticker  string
	Market  string
	Variant string
	Refresh bool // download the share price dataset again first
}

// AnalysisService orchestrates fetching and ratio computation.
type AnalysisService struct {
	data          MarketData
	market        string
	timeout       time.Duration
	alwaysRefresh bool
}

// Option configures the AnalysisService.
type Option func(*AnalysisService)

// WithDefaultMarket sets the market used when a request names none.
func WithDefaultMarket(market string) Option {
	return func(s *AnalysisService) {
		if market != "" {
			s.market = market
		}
	}
}

// WithTimeout bounds the upstream fetches of one analysis.
func WithTimeout(timeout time.Duration) Option {
	return func(s *AnalysisService) {
		s.timeout = timeout
	}
}

// WithAlwaysRefreshPrices re-downloads share prices on every analysis.
func WithAlwaysRefreshPrices(always bool) Option {
	return func(s *AnalysisService) {
		s.alwaysRefresh = always
	}
}

// NewAnalysisService creates a new analysis service.
func NewAnalysisService(data MarketData, opts ...Option) *AnalysisService {
	s := &AnalysisService{
		data:    data,
		market:  DefaultMarket,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze returns the ratio table of one ticker.
//
// Errors match simfin.ErrNoDataFound when the ticker has no statements or no
// prices, and simfin.ErrUpstreamUnavailable when the provider could not be
// read, including when the fetch timeout expires.
func (s *AnalysisService) Analyze(ctx context.Context, req Request) ([]models.FiscalYearRatios, error) {
	if req.Ticker == "" {
		return nil, errors.New("ticker is required")
	}
	if req.Market == "" {
		req.Market = s.market
	}
	if req.Variant == "" {
		req.Variant = DefaultVariant
	}

	log := zerolog.Ctx(ctx).With().Str("ticker", req.Ticker).Str("market", req.Market).Str("variant", req.Variant).Logger()
	start := time.Now()

	fetchCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	statements, err := s.data.FetchStatements(fetchCtx, req.Ticker, req.Market, req.Variant)
	if err != nil {
		return nil, classify(fetchCtx, "fetching statements", err)
	}

	refresh := req.Refresh || s.alwaysRefresh
	prices, err := s.data.FetchPrices(fetchCtx, req.Ticker, req.Market, "daily", simfin.WithRefresh(refresh))
	if err != nil {
		return nil, classify(fetchCtx, "fetching share prices", err)
	}

	rows := ratios.Compute(statements, prices)
	if len(rows) == 0 {
		return nil, &simfin.NoDataError{
			Ticker:  req.Ticker,
			Dataset: simfin.Dataset{Name: "income", Market: req.Market, Variant: req.Variant},
		}
	}

	log.Info().
		Int("statements", len(statements)).
		Int("prices", len(prices)).
		Int("rows", len(rows)).
		Dur("elapsed", time.Since(start)).
		Msg("analysis complete")
	return rows, nil
}

// classify wraps err so that an expired fetch deadline reads as an upstream
// failure.
func classify(ctx context.Context, op string, err error) error {
	if errors.Is(err, simfin.ErrNoDataFound) || errors.Is(err, simfin.ErrUpstreamUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w: %w", op, simfin.ErrUpstreamUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
