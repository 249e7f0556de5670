package engine

import (
	"fintrack/types"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_Append(t *testing.T) {
	tests := []struct {
		name    string
		tx      types.Transaction
		wantErr error
	}{
		{"valid buy", types.NewTransaction(day, "AAPL", types.ActionBuy, 10, d("150")), nil},
		{"valid sell at zero", types.NewTransaction(day, "AAPL", types.ActionSell, 1, decimal.Zero), nil},
		{"zero shares", types.NewTransaction(day, "AAPL", types.ActionBuy, 0, d("150")), ErrInvalidArgument},
		{"negative shares", types.NewTransaction(day, "AAPL", types.ActionSell, -3, d("150")), ErrInvalidArgument},
		{"negative price", types.NewTransaction(day, "AAPL", types.ActionBuy, 1, d("-0.01")), ErrInvalidArgument},
		{"bad action", types.NewTransaction(day, "AAPL", types.Action("SHORT"), 1, d("1")), ErrInvalidArgument},
		{"no symbol", types.NewTransaction(day, "", types.ActionBuy, 1, d("1")), ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger()
			err := l.Append(tt.tx)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, 0, l.Len())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, l.Len())
		})
	}
}

func TestLedger_AllIsRestartable(t *testing.T) {
	l := NewLedger()
	want := []types.Transaction{
		types.NewTransaction(day.AddDate(0, 1, 0), "MSFT", types.ActionBuy, 2, d("300")),
		types.NewTransaction(day, "AAPL", types.ActionBuy, 1, d("150")),
		types.NewTransaction(day, "AAPL", types.ActionSell, 1, d("155")),
	}
	for _, tx := range want {
		require.NoError(t, l.Append(tx))
	}

	seq := l.All()
	for pass := 0; pass < 2; pass++ {
		var got []types.Transaction
		for tx := range seq {
			got = append(got, tx)
		}
		assert.Equal(t, want, got, "pass %d", pass)
	}

	// Early exit must not break the next iteration.
	for range seq {
		break
	}
	n := 0
	for range l.All() {
		n++
	}
	assert.Equal(t, 3, n)
}

func TestLedger_AllIsStableAcrossAppends(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Append(types.NewTransaction(day, "AAPL", types.ActionBuy, 1, d("1"))))
	seq := l.All()
	require.NoError(t, l.Append(types.NewTransaction(day, "AAPL", types.ActionBuy, 1, d("1"))))

	n := 0
	for range seq {
		n++
	}
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, l.Len())
}
