package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mauv0809/simfin-analysis/internal/config"
	"github.com/mauv0809/simfin-analysis/internal/models"
	"github.com/mauv0809/simfin-analysis/internal/present"
	"github.com/mauv0809/simfin-analysis/internal/service"
	"github.com/mauv0809/simfin-analysis/internal/simfin"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "ratios",
		Short:        "Financial ratios from SimFin bulk data",
		SilenceUsage: true,
	}
	root.AddCommand(newAnalyzeCmd(), newBalanceCmd(), newRefreshCmd())
	return root
}

// setup loads the config and returns a client plus a context carrying the
// logger.
func setup(ctx context.Context) (*config.Config, *simfin.Client, context.Context, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, ctx, err
	}
	logger := cfg.NewLogger(os.Stderr)
	client := simfin.NewClient(simfin.Config{
		APIKey:      cfg.APIKey,
		DataDir:     cfg.DataDir,
		BaseURL:     cfg.BaseURL,
		RefreshDays: cfg.RefreshDays,
		RateLimit:   cfg.RateLimit,
	})
	return cfg, client, logger.WithContext(ctx), nil
}

type analyzeOptions struct {
	market  string
	variant string
	refresh bool
	json    bool
	noColor bool
	chart   string
}

func (o analyzeOptions) validate() error {
	switch o.variant {
	case "annual", "quarterly":
	default:
		return fmt.Errorf("variant must be one of: annual, quarterly (got %q)", o.variant)
	}
	switch strings.ToLower(filepath.Ext(o.chart)) {
	case "", ".png", ".html":
	default:
		return fmt.Errorf("chart file must end in .png or .html (got %q)", o.chart)
	}
	return nil
}

func newAnalyzeCmd() *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze <ticker>",
		Short: "Print the ratio table of a ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			ticker := args[0]

			cfg, client, ctx, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			svc := service.NewAnalysisService(client,
				service.WithDefaultMarket(cfg.DefaultMarket),
				service.WithTimeout(cfg.FetchTimeout),
				service.WithAlwaysRefreshPrices(cfg.RefreshPrices),
			)

			rows, err := svc.Analyze(ctx, service.Request{
				Ticker:  ticker,
				Market:  strings.ToLower(opts.market),
				Variant: opts.variant,
				Refresh: opts.refresh,
			})
			if err != nil {
				return err
			}

			if opts.chart != "" {
				if err := writeChart(opts.chart, ticker, rows); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if opts.json {
				return present.WriteJSON(out, rows)
			}
			present.WriteTable(out, rows, !opts.noColor)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.market, "market", "", "SimFin market (default from DEFAULT_MARKET)")
	cmd.Flags().StringVar(&opts.variant, "variant", service.DefaultVariant, "statement variant: annual or quarterly")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "download the share price dataset again first")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print JSON records instead of a table")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	cmd.Flags().StringVar(&opts.chart, "chart", "", "also write the margin chart to a .png or .html file")
	return cmd
}

func writeChart(path, ticker string, rows []models.FiscalYearRatios) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".html") {
		err = present.MarginChartHTML(f, ticker, rows)
	} else {
		var png []byte
		png, err = present.MarginChartPNG(ticker, rows)
		if err == nil {
			_, err = f.Write(png)
		}
	}
	if err != nil {
		f.Close()
		os.Remove(path)
		if errors.Is(err, present.ErrNothingToPlot) {
			return fmt.Errorf("%s: %w", ticker, err)
		}
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func newBalanceCmd() *cobra.Command {
	var (
		market  string
		variant string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "balance <ticker>",
		Short: "Print the balance sheets of a ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if variant != "annual" && variant != "quarterly" {
				return fmt.Errorf("variant must be one of: annual, quarterly (got %q)", variant)
			}

			cfg, client, ctx, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			if market == "" {
				market = cfg.DefaultMarket
			}

			ctx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout)
			defer cancel()
			rows, err := client.FetchBalance(ctx, args[0], strings.ToLower(market), variant)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			present.WriteBalanceTable(out, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&market, "market", "", "SimFin market (default from DEFAULT_MARKET)")
	cmd.Flags().StringVar(&variant, "variant", service.DefaultVariant, "statement variant: annual or quarterly")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newRefreshCmd() *cobra.Command {
	var ds simfin.Dataset

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Download a SimFin bulk dataset again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ds.Name == "" || ds.Variant == "" {
				return errors.New("dataset and variant are required")
			}

			cfg, client, ctx, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			if ds.Market == "" {
				ds.Market = cfg.DefaultMarket
			}
			ds.Market = strings.ToLower(ds.Market)

			if err := client.Refresh(ctx, ds); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "refreshed %s\n", ds)
			return nil
		},
	}

	cmd.Flags().StringVar(&ds.Market, "market", "", "SimFin market (default from DEFAULT_MARKET)")
	cmd.Flags().StringVar(&ds.Name, "dataset", "shareprices", "dataset: income, balance, cashflow or shareprices")
	cmd.Flags().StringVar(&ds.Variant, "variant", "daily", "dataset variant, e.g. annual, quarterly or daily")
	return cmd
}
