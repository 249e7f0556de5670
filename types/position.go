package types

import "github.com/shopspring/decimal"

type Position struct {
	Symbol      string
	Shares      int64
	CostBasis   decimal.Decimal
	MarketValue decimal.Decimal
}

// UnrealizedGain is the stored market value minus the cumulative cost basis.
func (p Position) UnrealizedGain() decimal.Decimal {
	return p.MarketValue.Sub(p.CostBasis)
}
