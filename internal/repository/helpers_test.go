package repository

import (
	"fintrack/internal/engine"
	"fintrack/types"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2023, 11, 21, 9, 30, 0, 123456789, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// testBook builds a book with two open positions, one closed position and
// marked market values.
func testBook(t *testing.T) *engine.Book {
	t.Helper()
	b := engine.NewBook(nil)
	require.NoError(t, b.Deposit(d("25000")))

	trades := []struct {
		symbol string
		action types.Action
		shares int64
		price  string
	}{
		{"AAPL", types.ActionBuy, 10, "150.125"},
		{"GOOGL", types.ActionBuy, 5, "2000"},
		{"MSFT", types.ActionBuy, 3, "310.50"},
		{"AAPL", types.ActionSell, 5, "170"},
		{"MSFT", types.ActionSell, 3, "300"},
	}
	for i, tr := range trades {
		_, err := b.RecordTransaction(day.Add(time.Duration(i)*time.Hour), tr.symbol, tr.action, tr.shares, d(tr.price))
		require.NoError(t, err)
	}

	_, err := b.Value(map[string]decimal.Decimal{"AAPL": d("160.01"), "GOOGL": d("2100")})
	require.NoError(t, err)
	return b
}

// requireSameView compares two views field by field. Decimals and times are
// compared by value since a round trip may change their representation.
func requireSameView(t *testing.T, want, got types.BookView) {
	t.Helper()
	assert.Truef(t, want.Cash.Equal(got.Cash), "cash got %s want %s", got.Cash, want.Cash)

	require.Len(t, got.Positions, len(want.Positions))
	for i := range want.Positions {
		w, g := want.Positions[i], got.Positions[i]
		assert.Equal(t, w.Symbol, g.Symbol)
		assert.Equal(t, w.Shares, g.Shares, "%s shares", w.Symbol)
		assert.Truef(t, w.CostBasis.Equal(g.CostBasis), "%s cost basis got %s want %s", w.Symbol, g.CostBasis, w.CostBasis)
		assert.Truef(t, w.MarketValue.Equal(g.MarketValue), "%s market value got %s want %s", w.Symbol, g.MarketValue, w.MarketValue)
	}

	require.Len(t, got.Transactions, len(want.Transactions))
	for i := range want.Transactions {
		w, g := want.Transactions[i], got.Transactions[i]
		assert.Equal(t, w.ID, g.ID, "transaction %d id", i)
		assert.Truef(t, w.Timestamp.Equal(g.Timestamp), "transaction %d timestamp got %s want %s", i, g.Timestamp, w.Timestamp)
		assert.Equal(t, w.Symbol, g.Symbol, "transaction %d symbol", i)
		assert.Equal(t, w.Action, g.Action, "transaction %d action", i)
		assert.Equal(t, w.Shares, g.Shares, "transaction %d shares", i)
		assert.Truef(t, w.Price.Equal(g.Price), "transaction %d price got %s want %s", i, g.Price, w.Price)
	}
}
