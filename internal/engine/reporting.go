package engine

import (
	"fintrack/types"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Report struct {
	Cash        decimal.Decimal
	MarketValue decimal.Decimal
	TotalValue  decimal.Decimal

	CostBasis      decimal.Decimal
	UnrealizedGain decimal.Decimal

	// Return is only set when the initial investment is not zero.
	InitialInvestment decimal.Decimal
	Return            decimal.Decimal
	HasReturn         bool

	OpenPositions int
	Transactions  int
	BuyVolume     decimal.Decimal
	SellProceeds  decimal.Decimal

	Positions []types.Position
}

// Summarize builds a report from a consistent snapshot of the book, using the
// stored market values.
func Summarize(b *Book, initialInvestment decimal.Decimal) *Report {
	view := b.Snapshot()

	report := &Report{
		Cash:              view.Cash,
		InitialInvestment: initialInvestment,
		OpenPositions:     len(view.Positions),
		Transactions:      len(view.Transactions),
		Positions:         view.Positions,
	}
	for _, pos := range view.Positions {
		report.MarketValue = report.MarketValue.Add(pos.MarketValue)
		report.CostBasis = report.CostBasis.Add(pos.CostBasis)
	}
	report.TotalValue = report.Cash.Add(report.MarketValue)
	report.UnrealizedGain = report.MarketValue.Sub(report.CostBasis)

	for _, tx := range view.Transactions {
		switch tx.Action {
		case types.ActionBuy:
			report.BuyVolume = report.BuyVolume.Add(tx.Amount())
		case types.ActionSell:
			report.SellProceeds = report.SellProceeds.Add(tx.Amount())
		}
	}

	if !initialInvestment.IsZero() {
		report.Return = report.TotalValue.Sub(initialInvestment).Div(initialInvestment)
		report.HasReturn = true
	}
	return report
}

func (r *Report) Print(w io.Writer) {
	fmt.Fprintln(w, "===== Portfolio Report =====")
	fmt.Fprintf(w, "Cash:                  %s\n", r.Cash.StringFixed(2))
	fmt.Fprintf(w, "Market Value:          %s\n", r.MarketValue.StringFixed(2))
	fmt.Fprintf(w, "Total Value:           %s\n", r.TotalValue.StringFixed(2))

	fmt.Fprintln(w, "\n-- Positions --")
	if len(r.Positions) == 0 {
		fmt.Fprintln(w, "(none)")
	}
	for _, pos := range r.Positions {
		fmt.Fprintf(w, "%-8s %8d sh  basis %12s  value %12s\n",
			pos.Symbol, pos.Shares, pos.CostBasis.StringFixed(2), pos.MarketValue.StringFixed(2))
	}

	fmt.Fprintln(w, "\n-- Activity --")
	fmt.Fprintf(w, "Transactions:          %d\n", r.Transactions)
	fmt.Fprintf(w, "Buy Volume:            %s\n", r.BuyVolume.StringFixed(2))
	fmt.Fprintf(w, "Sell Proceeds:         %s\n", r.SellProceeds.StringFixed(2))

	fmt.Fprintln(w, "\n-- Performance --")
	fmt.Fprintf(w, "Cost Basis:            %s\n", r.CostBasis.StringFixed(2))
	fmt.Fprintf(w, "Unrealized Gain:       %s\n", r.UnrealizedGain.StringFixed(2))
	if r.HasReturn {
		fmt.Fprintf(w, "Initial Investment:    %s\n", r.InitialInvestment.StringFixed(2))
		fmt.Fprintf(w, "Return:                %s%%\n", r.Return.Mul(hundred).StringFixed(2))
	}

	fmt.Fprintln(w, "============================")
}
