// Package simfin reads income statements, balance sheets and share prices
// from SimFin bulk datasets, keeping the extracted CSV files in a local data
// directory.
package simfin

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoDataFound is matched by errors for tickers absent from a dataset.
	ErrNoDataFound = errors.New("no data found")
	// ErrUpstreamUnavailable is matched by errors for failed downloads and
	// unreadable datasets.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// Dataset identifies one SimFin bulk dataset, e.g. us/income/annual.
type Dataset struct {
	Name    string // income, balance, cashflow, shareprices
	Market  string
	Variant string // annual, quarterly, daily, ...
}

// FileName is the CSV file name SimFin uses inside the bulk archive.
func (d Dataset) FileName() string {
	return fmt.Sprintf("%s-%s-%s.csv", d.Market, d.Name, d.Variant)
}

func (d Dataset) String() string {
	return fmt.Sprintf("%s-%s-%s", d.Market, d.Name, d.Variant)
}

// NoDataError reports a ticker with no rows in a dataset.
type NoDataError struct {
	Ticker  string
	Dataset Dataset
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no data found for %s in %s", e.Ticker, e.Dataset)
}

func (e *NoDataError) Is(target error) bool {
	return target == ErrNoDataFound
}

// UpstreamError wraps a failure to download or read a dataset.
type UpstreamError struct {
	Dataset Dataset
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("SimFin dataset %s unavailable: %v", e.Dataset, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}

// APIError represents a non-200 response from the SimFin API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("SimFin API error: %s (status: %d)", e.Message, e.StatusCode)
}

// Retryable reports whether repeating the request may succeed.
func (e *APIError) Retryable() bool {
	switch e.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return false
	}
	return true
}

// FetchOption configures a single fetch.
type FetchOption func(*FetchParams)

// FetchParams holds the effective settings of a fetch.
type FetchParams struct {
	Refresh bool
}

// NewFetchParams applies opts to the default settings.
func NewFetchParams(opts ...FetchOption) FetchParams {
	var p FetchParams
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// WithRefresh forces the dataset to be downloaded again before it is read.
func WithRefresh(refresh bool) FetchOption {
	return func(p *FetchParams) {
		p.Refresh = refresh
	}
}
