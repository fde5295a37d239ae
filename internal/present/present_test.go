package present

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mauv0809/simfin-analysis/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func num(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(v))
}

func sampleRows() []models.FiscalYearRatios {
	published := time.Date(2022, time.February, 3, 0, 0, 0, 0, time.UTC)
	return []models.FiscalYearRatios{
		{
			FiscalYear:      2020,
			FiscalPeriod:    "FY",
			Revenue:         num("386064000000"),
			GrossMargin:     num("39.57"),
			OperatingMargin: num("5.93"),
			NetMargin:       num("5.53"),
			PERatio:         num("78.55"),
			CAGR:            num("0"),
			CAGRPct:         num("0"),
		},
		{
			FiscalYear:      2021,
			FiscalPeriod:    "FY",
			PublishDate:     &published,
			Revenue:         num("469822000000"),
			GrossMargin:     num("42.03"),
			OperatingMargin: num("5.3"),
			NetMargin:       num("7.1"),
			CAGR:            num("0.04"),
			CAGRPct:         num("4.05"),
		},
	}
}

func TestRecords(t *testing.T) {
	recs := Records(sampleRows())
	require.Len(t, recs, 2)

	assert.Equal(t, 2020, recs[0].FiscalYear)
	assert.Nil(t, recs[0].PublishDate)
	assert.Nil(t, recs[0].EPS)
	require.NotNil(t, recs[0].GrossMargin)
	assert.InDelta(t, 39.57, *recs[0].GrossMargin, 1e-9)

	require.NotNil(t, recs[1].PublishDate)
	assert.Equal(t, "2022-02-03", *recs[1].PublishDate)
}

func TestRecordsJSONUsesNulls(t *testing.T) {
	b, err := json.Marshal(Records(sampleRows()[:1]))
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Len(t, decoded, 1)

	assert.Contains(t, decoded[0], "eps")
	assert.Nil(t, decoded[0]["eps"])
	assert.Nil(t, decoded[0]["publish_date"])
	assert.Equal(t, 78.55, decoded[0]["pe_ratio"])
}

func TestRecordsEmpty(t *testing.T) {
	b, err := json.Marshal(Records(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(b))
}

func TestMarginChartPNG(t *testing.T) {
	png, err := MarginChartPNG("AMZN", sampleRows())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngSignature))
}

func TestMarginChartPNGSingleYear(t *testing.T) {
	png, err := MarginChartPNG("AMZN", sampleRows()[:1])
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngSignature))
}

func TestMarginChartSkipsMissingMargins(t *testing.T) {
	rows := sampleRows()
	rows[0].OperatingMargin = decimal.NullDecimal{}
	rows[1].NetMargin = decimal.NullDecimal{}

	series := margins(rows)
	require.Len(t, series, 3)
	assert.Equal(t, []float64{2020, 2021}, series[0].xs)
	assert.Equal(t, []float64{2021}, series[1].xs)
	assert.Equal(t, []float64{2020}, series[2].xs)

	_, err := MarginChartPNG("AMZN", rows)
	assert.NoError(t, err)
}

func TestMarginChartNothingToPlot(t *testing.T) {
	_, err := MarginChartPNG("AMZN", nil)
	assert.ErrorIs(t, err, ErrNothingToPlot)

	_, err = MarginChartDataURI("AMZN", []models.FiscalYearRatios{})
	assert.ErrorIs(t, err, ErrNothingToPlot)

	var buf bytes.Buffer
	assert.ErrorIs(t, MarginChartHTML(&buf, "AMZN", nil), ErrNothingToPlot)
}

func TestMarginChartWithoutMarginsDrawsAxes(t *testing.T) {
	rows := []models.FiscalYearRatios{{FiscalYear: 2020, FiscalPeriod: "FY"}, {FiscalYear: 2021, FiscalPeriod: "FY"}}

	uri, err := MarginChartDataURI("AMZN", rows)
	require.NoError(t, err)
	png, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngSignature))

	var buf bytes.Buffer
	require.NoError(t, MarginChartHTML(&buf, "AMZN", rows[:1]))
	assert.Contains(t, buf.String(), "Profit Margins for AMZN by Fiscal Year")
}

func TestMarginChartDataURI(t *testing.T) {
	uri, err := MarginChartDataURI("AMZN", sampleRows())
	require.NoError(t, err)

	const prefix = "data:image/png;base64,"
	require.True(t, strings.HasPrefix(uri, prefix))

	png, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngSignature))
}

func TestPeriodOffset(t *testing.T) {
	assert.Equal(t, 0.0, periodOffset("FY"))
	assert.Equal(t, 0.0, periodOffset("Q1"))
	assert.Equal(t, 0.5, periodOffset("Q3"))
}

func TestMarginChartHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, MarginChartHTML(&buf, "AMZN", sampleRows()))

	page := buf.String()
	assert.Contains(t, page, "Profit Margins for AMZN by Fiscal Year")
	assert.Contains(t, page, "Gross Margin")
	assert.Contains(t, page, "Net Margin")
	assert.Contains(t, page, "2021")
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	WriteTable(&buf, sampleRows(), false)

	out := buf.String()
	assert.Contains(t, out, "GROSS %")
	assert.Contains(t, out, "39.57")
	assert.Contains(t, out, "2022-02-03")
	assert.Contains(t, out, "78.55")
	assert.Contains(t, out, "-")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleRows()))

	var decoded []Record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, 2021, decoded[1].FiscalYear)
}

func TestWriteBalanceTable(t *testing.T) {
	rows := []models.BalanceRow{{
		FiscalYear:   2021,
		FiscalPeriod: "FY",
		Cash:         num("96049000000"),
		TotalAssets:  num("420549000000"),
		TotalEquity:  num("138245000000"),
	}}

	var buf bytes.Buffer
	WriteBalanceTable(&buf, rows)

	out := buf.String()
	assert.Contains(t, out, "ASSETS")
	assert.Contains(t, out, "96049.0")
	assert.Contains(t, out, "420549.0")
	assert.Contains(t, out, "amounts in millions")
	assert.Contains(t, out, "-")
}
