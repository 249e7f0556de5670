package engine

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	b := scenarioBook(t)
	_, err := b.Value(map[string]decimal.Decimal{"AAPL": d("160"), "GOOGL": d("2100")})
	require.NoError(t, err)

	report := Summarize(b, d("25000"))

	assert.True(t, report.Cash.Equal(d("14350")))
	assert.True(t, report.MarketValue.Equal(d("11300")))
	assert.True(t, report.TotalValue.Equal(d("25650")))
	assert.True(t, report.CostBasis.Equal(d("10650")))
	assert.True(t, report.UnrealizedGain.Equal(d("650")))
	assert.True(t, report.BuyVolume.Equal(d("11500")))
	assert.True(t, report.SellProceeds.Equal(d("850")))
	assert.Equal(t, 2, report.OpenPositions)
	assert.Equal(t, 3, report.Transactions)
	require.True(t, report.HasReturn)
	assert.True(t, report.Return.Equal(d("0.026")))

	var buf bytes.Buffer
	report.Print(&buf)
	out := buf.String()
	assert.Contains(t, out, "Total Value:           25650.00")
	assert.Contains(t, out, "Return:                2.60%")
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "GOOGL")
}

func TestSummarize_NoInitialInvestment(t *testing.T) {
	b := newTestBook(t, "10")
	report := Summarize(b, decimal.Zero)
	assert.False(t, report.HasReturn)

	var buf bytes.Buffer
	report.Print(&buf)
	assert.NotContains(t, buf.String(), "Return:")
	assert.Contains(t, buf.String(), "(none)")
}
