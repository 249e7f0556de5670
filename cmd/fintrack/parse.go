package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// parseAmount parses a decimal amount given on the command line.
func parseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return amount, nil
}

// parsePrices parses SYMBOL=PRICE arguments. Symbols are upper-cased the
// same way buy and sell record them.
func parsePrices(args []string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(args))
	for _, arg := range args {
		symbol, value, ok := strings.Cut(arg, "=")
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if !ok || symbol == "" {
			return nil, fmt.Errorf("invalid price %q, want SYMBOL=PRICE", arg)
		}
		if _, dup := prices[symbol]; dup {
			return nil, fmt.Errorf("duplicate price for %s", symbol)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid price for %s: %q", symbol, value)
		}
		prices[symbol] = price
	}
	return prices, nil
}

// parseTime accepts a date (2006-01-02, midnight UTC) or an RFC 3339
// timestamp. An empty string is now.
func parseTime(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}
