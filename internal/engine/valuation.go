package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Value returns cash plus the market value of every open position.
//
// With a nil price map the stored market values are summed and nothing is
// modified. Otherwise every held symbol must have a price: the stored market
// values are re-marked at shares x price and the fresh total is returned.
// When a price is missing no position is touched.
func (b *Book) Value(prices map[string]decimal.Decimal) (decimal.Decimal, error) {
	var (
		total decimal.Decimal
		err   error
	)
	if prices == nil {
		b.mu.RLock()
		total = b.storedValue()
		b.mu.RUnlock()
	} else {
		b.mu.Lock()
		total, err = b.markToMarket(prices)
		b.mu.Unlock()
	}
	if err != nil {
		return decimal.Zero, b.reject("value", err)
	}
	b.observer.Valued(total)
	return total, nil
}

// CalculateReturn is (Value(nil) - initialInvestment) / initialInvestment.
// It uses the stored market values, see Value.
func (b *Book) CalculateReturn(initialInvestment decimal.Decimal) (decimal.Decimal, error) {
	if initialInvestment.IsZero() {
		return decimal.Zero, b.reject("return", fmt.Errorf("%w: initial investment must not be zero", ErrInvalidArgument))
	}
	b.mu.RLock()
	value := b.storedValue()
	b.mu.RUnlock()
	return value.Sub(initialInvestment).Div(initialInvestment), nil
}

func (b *Book) storedValue() decimal.Decimal {
	total := b.cash
	for _, pos := range b.positions {
		total = total.Add(pos.MarketValue)
	}
	return total
}

// markToMarket must be called with the write lock held.
func (b *Book) markToMarket(prices map[string]decimal.Decimal) (decimal.Decimal, error) {
	var missing []string
	for symbol := range b.positions {
		price, ok := prices[symbol]
		if !ok {
			missing = append(missing, symbol)
			continue
		}
		if price.IsNegative() {
			return decimal.Zero, fmt.Errorf("%w: negative price %s for %s", ErrInvalidArgument, price, symbol)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return decimal.Zero, fmt.Errorf("%w: %s", ErrMissingPrice, strings.Join(missing, ", "))
	}

	total := b.cash
	for symbol, pos := range b.positions {
		pos.MarketValue = prices[symbol].Mul(decimal.NewFromInt(pos.Shares))
		total = total.Add(pos.MarketValue)
	}
	return total, nil
}
