package present

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/mauv0809/simfin-analysis/internal/models"
	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNothingToPlot is returned for an empty ratio table.
var ErrNothingToPlot = errors.New("no rows to plot")

const (
	chartWidth  = 900
	chartHeight = 500
)

type marginSeries struct {
	name string
	xs   []float64
	ys   []float64
}

func chartTitle(ticker string) string {
	return fmt.Sprintf("Profit Margins for %s by Fiscal Year", ticker)
}

// periodOffset spreads quarterly rows across their fiscal year.
func periodOffset(period string) float64 {
	switch period {
	case "Q2":
		return 0.25
	case "Q3":
		return 0.5
	case "Q4":
		return 0.75
	}
	return 0
}

// margins collects the defined gross, operating and net margins in row
// order. Empty series are left out.
func margins(rows []models.FiscalYearRatios) []marginSeries {
	all := []marginSeries{{name: "Gross Margin"}, {name: "Operating Margin"}, {name: "Net Margin"}}
	for _, r := range rows {
		x := float64(r.FiscalYear) + periodOffset(r.FiscalPeriod)
		for i, v := range []decimal.NullDecimal{r.GrossMargin, r.OperatingMargin, r.NetMargin} {
			if !v.Valid {
				continue
			}
			all[i].xs = append(all[i].xs, x)
			all[i].ys = append(all[i].ys, v.Decimal.InexactFloat64())
		}
	}

	out := all[:0]
	for _, s := range all {
		if len(s.xs) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// MarginChartPNG renders gross, operating and net margin against fiscal year
// as a PNG line chart. Rows without any margin still get the year axis.
func MarginChartPNG(ticker string, rows []models.FiscalYearRatios) ([]byte, error) {
	if len(rows) == 0 {
		return nil, ErrNothingToPlot
	}
	series := margins(rows)

	minX, maxX := math.Inf(1), math.Inf(-1)
	for _, r := range rows {
		x := float64(r.FiscalYear) + periodOffset(r.FiscalPeriod)
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
	}
	minY, maxY := 0.0, 0.0
	if len(series) > 0 {
		minY, maxY = math.Inf(1), math.Inf(-1)
		for _, s := range series {
			for _, y := range s.ys {
				minY, maxY = math.Min(minY, y), math.Max(maxY, y)
			}
		}
	}
	// Pad both axes so a single year or a flat margin still spans a range.
	padY := (maxY - minY) * 0.1
	if padY == 0 {
		padY = 1
	}

	var ticks []chart.Tick
	for y := int(math.Floor(minX)); y <= int(math.Ceil(maxX)); y++ {
		ticks = append(ticks, chart.Tick{Value: float64(y), Label: strconv.Itoa(y)})
	}

	graph := chart.Chart{
		Title:  chartTitle(ticker),
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 60, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:  "Fiscal Year",
			Range: &chart.ContinuousRange{Min: minX - 0.5, Max: maxX + 0.5},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:  "Margin (%)",
			Range: &chart.ContinuousRange{Min: minY - padY, Max: maxY + padY},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.1f%%", f)
				}
				return ""
			},
		},
	}

	for i, s := range series {
		color := chart.GetDefaultColor(i)
		graph.Series = append(graph.Series, chart.ContinuousSeries{
			Name:    s.name,
			XValues: s.xs,
			YValues: s.ys,
			Style: chart.Style{
				StrokeColor: color,
				StrokeWidth: 2,
				DotColor:    color,
				DotWidth:    3,
			},
		})
	}
	if len(series) == 0 {
		// go-chart refuses to render without a visible series.
		graph.Series = append(graph.Series, chart.ContinuousSeries{
			XValues: []float64{minX, maxX},
			YValues: []float64{0, 0},
			Style:   chart.Style{StrokeColor: drawing.ColorTransparent, StrokeWidth: 1},
		})
	} else {
		graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("rendering margin chart: %w", err)
	}
	return buf.Bytes(), nil
}

// MarginChartDataURI renders the margin chart and embeds it as a
// data:image/png;base64 URI.
func MarginChartDataURI(ticker string, rows []models.FiscalYearRatios) (string, error) {
	png, err := MarginChartPNG(ticker, rows)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
