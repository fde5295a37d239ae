package present

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/mauv0809/simfin-analysis/internal/models"
	"github.com/shopspring/decimal"
)

// MarginChartHTML writes an interactive HTML page charting gross, operating
// and net margin per fiscal year.
func MarginChartHTML(w io.Writer, ticker string, rows []models.FiscalYearRatios) error {
	if len(rows) == 0 {
		return ErrNothingToPlot
	}

	xAxis := make([]string, 0, len(rows))
	gross := make([]opts.LineData, 0, len(rows))
	operating := make([]opts.LineData, 0, len(rows))
	net := make([]opts.LineData, 0, len(rows))
	for _, r := range rows {
		label := strconv.Itoa(r.FiscalYear)
		if r.FiscalPeriod != "" && r.FiscalPeriod != "FY" {
			label += " " + r.FiscalPeriod
		}
		xAxis = append(xAxis, label)
		gross = append(gross, lineValue(r.GrossMargin))
		operating = append(operating, lineValue(r.OperatingMargin))
		net = append(net, lineValue(r.NetMargin))
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: fmt.Sprintf("%s margins", ticker),
			Width:     fmt.Sprintf("%dpx", chartWidth),
			Height:    fmt.Sprintf("%dpx", chartHeight),
			Theme:     types.ThemeVintage,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    chartTitle(ticker),
			Subtitle: "Margin (%)",
		}),
		charts.WithLegendOpts(opts.Legend{
			Left: "right",
			Top:  "top",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Trigger: "axis",
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Fiscal Year"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Margin (%)"}),
	)

	line.SetXAxis(xAxis).
		AddSeries("Gross Margin", gross).
		AddSeries("Operating Margin", operating).
		AddSeries("Net Margin", net)

	if err := line.Render(w); err != nil {
		return fmt.Errorf("rendering margin chart page: %w", err)
	}
	return nil
}

// lineValue plots a missing margin as a gap.
func lineValue(d decimal.NullDecimal) opts.LineData {
	if !d.Valid {
		return opts.LineData{Value: "-"}
	}
	return opts.LineData{Value: d.Decimal.InexactFloat64()}
}
