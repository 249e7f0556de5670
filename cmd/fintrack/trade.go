package main

import (
	"context"
	"flag"
	"fintrack/types"
	"fmt"
	"strings"
	"time"

	"github.com/google/subcommands"
)

// tradeFlags are shared by buy and sell.
type tradeFlags struct {
	date   string
	symbol string
	shares int64
	price  string
}

func (t *tradeFlags) set(f *flag.FlagSet) {
	f.StringVar(&t.date, "d", "", "Transaction date (YYYY-MM-DD or RFC 3339), defaults to now")
	f.StringVar(&t.symbol, "s", "", "Ticker symbol")
	f.Int64Var(&t.shares, "q", 0, "Number of shares")
	f.StringVar(&t.price, "p", "", "Price per share")
}

func (t *tradeFlags) record(ctx context.Context, a *app, f *flag.FlagSet, action types.Action) subcommands.ExitStatus {
	if t.symbol == "" || t.shares <= 0 || t.price == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	ts, err := parseTime(t.date, time.Now().UTC())
	if err != nil {
		return a.fail(err)
	}
	price, err := parseAmount(t.price)
	if err != nil {
		return a.fail(err)
	}

	book, err := a.loadBook(ctx)
	if err != nil {
		return a.fail(err)
	}
	tx, err := book.RecordTransaction(ts, strings.ToUpper(t.symbol), action, t.shares, price)
	if err != nil {
		return a.fail(err)
	}
	if err := a.saveBook(ctx, book); err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "%s %d %s @ %s (%s), cash %s\n",
		tx.Action, tx.Shares, tx.Symbol, tx.Price.StringFixed(2), tx.Amount().StringFixed(2), book.Cash().StringFixed(2))
	return subcommands.ExitSuccess
}

// --- Buy Command ---

type buyCmd struct {
	tradeFlags
}

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "purchase shares to open or add to a position" }
func (*buyCmd) Usage() string {
	return `buy [-d <date>] -s <symbol> -q <shares> -p <price>

  Purchases shares. The total cost is debited from cash and added to the
  position's cost basis.
`
}
func (c *buyCmd) SetFlags(f *flag.FlagSet) { c.set(f) }

func (c *buyCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return c.record(ctx, appFrom(args), f, types.ActionBuy)
}

// --- Sell Command ---

type sellCmd struct {
	tradeFlags
}

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "sell shares to trim or close a position" }
func (*sellCmd) Usage() string {
	return `sell [-d <date>] -s <symbol> -q <shares> -p <price>

  Sells shares of an open position. The proceeds are credited to cash and
  subtracted from the position's cost basis.
`
}
func (c *sellCmd) SetFlags(f *flag.FlagSet) { c.set(f) }

func (c *sellCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return c.record(ctx, appFrom(args), f, types.ActionSell)
}
