package main

import (
	"context"
	"flag"
	"fintrack/internal/engine"
	"fintrack/types"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// --- Value Command ---

type valueCmd struct{}

func (*valueCmd) Name() string     { return "value" }
func (*valueCmd) Synopsis() string { return "display the total value of the book" }
func (*valueCmd) Usage() string {
	return `value [SYMBOL=PRICE ...]

  Without prices, displays cash plus the stored market values and changes
  nothing. With prices, every open position is re-marked at shares x price
  and the book is saved. A price must be given for every open position.
`
}
func (*valueCmd) SetFlags(*flag.FlagSet) {}

func (c *valueCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	var prices map[string]decimal.Decimal
	if f.NArg() > 0 {
		var err error
		if prices, err = parsePrices(f.Args()); err != nil {
			return a.fail(err)
		}
	}

	book, err := a.loadBook(ctx)
	if err != nil {
		return a.fail(err)
	}
	total, err := book.Value(prices)
	if err != nil {
		return a.fail(err)
	}
	if prices != nil {
		if err := a.saveBook(ctx, book); err != nil {
			return a.fail(err)
		}
	}
	fmt.Fprintf(a.out, "Total Value: %s\n", total.StringFixed(2))
	return subcommands.ExitSuccess
}

// --- Return Command ---

type returnCmd struct{}

func (*returnCmd) Name() string     { return "return" }
func (*returnCmd) Synopsis() string { return "display the return against an initial investment" }
func (*returnCmd) Usage() string {
	return `return <initial investment>

  Displays (value - initial) / initial using the stored market values.
`
}
func (*returnCmd) SetFlags(*flag.FlagSet) {}

func (c *returnCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	initial, err := parseAmount(f.Arg(0))
	if err != nil {
		return a.fail(err)
	}

	book, err := a.loadBook(ctx)
	if err != nil {
		return a.fail(err)
	}
	ret, err := book.CalculateReturn(initial)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Return: %s%%\n", ret.Mul(decimal.NewFromInt(100)).StringFixed(2))
	return subcommands.ExitSuccess
}

// --- Positions Command ---

type positionsCmd struct{}

func (*positionsCmd) Name() string     { return "positions" }
func (*positionsCmd) Synopsis() string { return "list open positions" }
func (*positionsCmd) Usage() string {
	return `positions

  Lists open positions sorted by symbol with their cost basis and stored
  market value.
`
}
func (*positionsCmd) SetFlags(*flag.FlagSet) {}

func (c *positionsCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	book, err := a.loadBook(ctx)
	if err != nil {
		return a.fail(err)
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Symbol\tShares\tCost Basis\tMarket Value\tGain\t")
	for _, pos := range book.Positions() {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t\n",
			pos.Symbol, pos.Shares, pos.CostBasis.StringFixed(2), pos.MarketValue.StringFixed(2), pos.UnrealizedGain().StringFixed(2))
	}
	tw.Flush()
	return subcommands.ExitSuccess
}

// --- Log Command ---

type logCmd struct {
	tail int
}

func (*logCmd) Name() string     { return "log" }
func (*logCmd) Synopsis() string { return "list recorded transactions in insertion order" }
func (*logCmd) Usage() string {
	return `log [-tail <n>]

  Lists the transaction log in the order transactions were recorded.
`
}
func (c *logCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.tail, "tail", 0, "Show only the last N transactions.")
}

func (c *logCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if c.tail < 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	book, err := a.loadBook(ctx)
	if err != nil {
		return a.fail(err)
	}

	skip := 0
	if n := book.TransactionCount(); c.tail > 0 && c.tail < n {
		skip = n - c.tail
	}
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tDate\tAction\tSymbol\tShares\tPrice\tAmount\tID")
	i := 0
	for tx := range book.Transactions() {
		if i >= skip {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
				i, tx.Timestamp.Format(time.DateOnly), tx.Action, tx.Symbol, tx.Shares,
				tx.Price.StringFixed(2), tx.Amount().StringFixed(2), tx.ID)
		}
		i++
	}
	tw.Flush()
	return subcommands.ExitSuccess
}

// --- Summary Command ---

type summaryCmd struct {
	initial string
	demo    bool
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display a portfolio report" }
func (*summaryCmd) Usage() string {
	return `summary [-i <initial investment>] [-demo]

  Displays cash, positions, activity and, when an initial investment is
  given, the return. With -demo the report is built from a sample book
  and the configured store is not touched.
`
}
func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.initial, "i", "", "Initial investment used to compute the return.")
	f.BoolVar(&c.demo, "demo", false, "Report on a sample book instead of the configured one.")
}

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	initial := decimal.Zero
	if c.initial != "" {
		var err error
		if initial, err = parseAmount(c.initial); err != nil {
			return a.fail(err)
		}
	}

	var (
		book *engine.Book
		err  error
	)
	if c.demo {
		book, err = demoBook(a.bookConfig())
		if c.initial == "" {
			initial = demoDeposit
		}
	} else {
		book, err = a.loadBook(ctx)
	}
	if err != nil {
		return a.fail(err)
	}

	engine.Summarize(book, initial).Print(a.out)
	return subcommands.ExitSuccess
}

var demoDeposit = decimal.NewFromInt(25000)

// demoBook deposits 25000, trades AAPL and GOOGL over two months and marks
// the book at AAPL 160, GOOGL 2100, for a total value of 25650.
func demoBook(cfg *engine.BookConfig) (*engine.Book, error) {
	book := engine.NewBook(cfg)
	if err := book.Deposit(demoDeposit); err != nil {
		return nil, err
	}

	trades := []struct {
		date   time.Time
		symbol string
		action types.Action
		shares int64
		price  int64
	}{
		{time.Date(2023, 11, 21, 0, 0, 0, 0, time.UTC), "AAPL", types.ActionBuy, 10, 150},
		{time.Date(2023, 12, 15, 0, 0, 0, 0, time.UTC), "GOOGL", types.ActionBuy, 5, 2000},
		{time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), "AAPL", types.ActionSell, 5, 170},
	}
	for _, t := range trades {
		if _, err := book.RecordTransaction(t.date, t.symbol, t.action, t.shares, decimal.NewFromInt(t.price)); err != nil {
			return nil, err
		}
	}

	_, err := book.Value(map[string]decimal.Decimal{
		"AAPL":  decimal.NewFromInt(160),
		"GOOGL": decimal.NewFromInt(2100),
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}
