package simfin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/mauv0809/simfin-analysis/internal/models"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the SimFin bulk download endpoint.
	DefaultBaseURL = "https://backend.simfin.com/api/bulk-download/s3"

	// DefaultTimeout bounds a single dataset download. Bulk share price
	// archives run to hundreds of megabytes.
	DefaultTimeout = 10 * time.Minute

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 2

	// DefaultRefreshDays is how long a downloaded dataset is reused.
	DefaultRefreshDays = 30

	maxAttempts = 3
)

// Config holds the settings a Client needs. There is no package-level state:
// every Client owns its key and data directory.
type Config struct {
	APIKey      string
	DataDir     string
	BaseURL     string
	RefreshDays int
	RateLimit   float64 // requests per second
}

// Client reads SimFin bulk datasets through a local file cache.
type Client struct {
	apiKey     string
	baseURL    string
	dataDir    string
	refreshAge time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	retryBase  time.Duration
	downloads  singleflight.Group
	now        func() time.Time
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRetryBackoff sets the base delay of the exponential retry backoff.
func WithRetryBackoff(base time.Duration) ClientOption {
	return func(c *Client) {
		c.retryBase = base
	}
}

// NewClient creates a new SimFin client.
func NewClient(cfg Config, opts ...ClientOption) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	rps := cfg.RateLimit
	if rps <= 0 {
		rps = DefaultRateLimit
	}

	c := &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		dataDir:    cfg.DataDir,
		refreshAge: time.Duration(cfg.RefreshDays) * 24 * time.Hour,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		retryBase: time.Second,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FetchStatements returns the income statement rows of ticker.
func (c *Client) FetchStatements(ctx context.Context, ticker, market, variant string) ([]models.StatementRow, error) {
	ds := Dataset{Name: "income", Market: market, Variant: variant}

	path, err := c.ensureDataset(ctx, ds, false)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &UpstreamError{Dataset: ds, Err: err}
	}
	defer f.Close()

	rows, err := ParseStatements(f, ticker)
	if err != nil {
		return nil, &UpstreamError{Dataset: ds, Err: err}
	}
	if len(rows) == 0 {
		return nil, &NoDataError{Ticker: ticker, Dataset: ds}
	}

	zerolog.Ctx(ctx).Debug().Str("ticker", ticker).Str("dataset", ds.String()).Int("rows", len(rows)).Msg("loaded statements")
	return rows, nil
}

// FetchBalance returns the balance sheet rows of ticker ordered by fiscal
// year.
func (c *Client) FetchBalance(ctx context.Context, ticker, market, variant string) ([]models.BalanceRow, error) {
	ds := Dataset{Name: "balance", Market: market, Variant: variant}

	path, err := c.ensureDataset(ctx, ds, false)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &UpstreamError{Dataset: ds, Err: err}
	}
	defer f.Close()

	rows, err := ParseBalance(f, ticker)
	if err != nil {
		return nil, &UpstreamError{Dataset: ds, Err: err}
	}
	if len(rows) == 0 {
		return nil, &NoDataError{Ticker: ticker, Dataset: ds}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].FiscalYear != rows[j].FiscalYear {
			return rows[i].FiscalYear < rows[j].FiscalYear
		}
		return rows[i].FiscalPeriod < rows[j].FiscalPeriod
	})

	zerolog.Ctx(ctx).Debug().Str("ticker", ticker).Str("dataset", ds.String()).Int("rows", len(rows)).Msg("loaded balance sheets")
	return rows, nil
}

// FetchPrices returns the share prices of ticker ordered by date.
// variant defaults to "daily".
func (c *Client) FetchPrices(ctx context.Context, ticker, market, variant string, opts ...FetchOption) ([]models.PriceRow, error) {
	params := NewFetchParams(opts...)
	if variant == "" {
		variant = "daily"
	}
	ds := Dataset{Name: "shareprices", Market: market, Variant: variant}

	path, err := c.ensureDataset(ctx, ds, params.Refresh)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &UpstreamError{Dataset: ds, Err: err}
	}
	defer f.Close()

	rows, err := ParsePrices(f, ticker)
	if err != nil {
		return nil, &UpstreamError{Dataset: ds, Err: err}
	}
	if len(rows) == 0 {
		return nil, &NoDataError{Ticker: ticker, Dataset: ds}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date)
	})

	zerolog.Ctx(ctx).Debug().Str("ticker", ticker).Str("dataset", ds.String()).Int("rows", len(rows)).Msg("loaded share prices")
	return rows, nil
}

// Refresh downloads a dataset again regardless of the cached copy's age.
func (c *Client) Refresh(ctx context.Context, ds Dataset) error {
	_, err := c.ensureDataset(ctx, ds, true)
	return err
}

// ensureDataset returns the path of an up-to-date local copy of ds.
// Concurrent callers for the same dataset share one download. The download
// is detached from the caller that started it, so each caller only gives up
// on its own context.
func (c *Client) ensureDataset(ctx context.Context, ds Dataset, refresh bool) (string, error) {
	path := c.datasetPath(ds)
	if !refresh && c.isFresh(path) {
		return path, nil
	}
	if err := ctx.Err(); err != nil {
		return "", &UpstreamError{Dataset: ds, Err: err}
	}

	ch := c.downloads.DoChan(path, func() (interface{}, error) {
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultTimeout)
		defer cancel()
		return nil, c.download(dctx, ds, path)
	})

	select {
	case <-ctx.Done():
		zerolog.Ctx(ctx).Debug().Str("dataset", ds.String()).Msg("stopped waiting for download")
		return "", &UpstreamError{Dataset: ds, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return "", &UpstreamError{Dataset: ds, Err: res.Err}
		}
		if res.Shared {
			zerolog.Ctx(ctx).Debug().Str("dataset", ds.String()).Msg("joined in-flight download")
		}
		return path, nil
	}
}

func (c *Client) isFresh(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if c.refreshAge <= 0 {
		return true
	}
	return c.now().Sub(info.ModTime()) < c.refreshAge
}

// download fetches the archive of ds with retries and installs its CSV at
// path.
func (c *Client) download(ctx context.Context, ds Dataset, path string) error {
	log := zerolog.Ctx(ctx)
	start := time.Now()
	log.Info().Str("dataset", ds.String()).Msg("downloading SimFin dataset")

	b := retry.WithMaxRetries(maxAttempts-1, retry.NewExponential(c.retryBase))
	attempt := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		err := c.fetchArchive(ctx, ds, path)
		if err == nil {
			return nil
		}

		// Don't retry on context cancellation
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			return err
		}

		log.Warn().Err(err).Str("dataset", ds.String()).Int("attempt", attempt).Msg("download failed")
		return retry.RetryableError(err)
	})
	if err != nil {
		return fmt.Errorf("downloading %s: %w", ds, err)
	}

	log.Info().Str("dataset", ds.String()).Dur("elapsed", time.Since(start)).Msg("dataset ready")
	return nil
}
