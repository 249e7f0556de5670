package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

// --- Deposit Command ---

type depositCmd struct{}

func (*depositCmd) Name() string     { return "deposit" }
func (*depositCmd) Synopsis() string { return "add cash to the book" }
func (*depositCmd) Usage() string {
	return `deposit <amount>

  Adds cash to the book. The amount must be positive.
`
}
func (*depositCmd) SetFlags(*flag.FlagSet) {}

func (c *depositCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	amount, err := parseAmount(f.Arg(0))
	if err != nil {
		return a.fail(err)
	}

	book, err := a.loadBook(ctx)
	if err != nil {
		return a.fail(err)
	}
	if err := book.Deposit(amount); err != nil {
		return a.fail(err)
	}
	if err := a.saveBook(ctx, book); err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Deposited %s, cash %s\n", amount.StringFixed(2), book.Cash().StringFixed(2))
	return subcommands.ExitSuccess
}

// --- Withdraw Command ---

type withdrawCmd struct{}

func (*withdrawCmd) Name() string     { return "withdraw" }
func (*withdrawCmd) Synopsis() string { return "take cash out of the book" }
func (*withdrawCmd) Usage() string {
	return `withdraw <amount>

  Removes cash from the book. The amount must be positive and not exceed
  the available cash.
`
}
func (*withdrawCmd) SetFlags(*flag.FlagSet) {}

func (c *withdrawCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	amount, err := parseAmount(f.Arg(0))
	if err != nil {
		return a.fail(err)
	}

	book, err := a.loadBook(ctx)
	if err != nil {
		return a.fail(err)
	}
	if err := book.Withdraw(amount); err != nil {
		return a.fail(err)
	}
	if err := a.saveBook(ctx, book); err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Withdrew %s, cash %s\n", amount.StringFixed(2), book.Cash().StringFixed(2))
	return subcommands.ExitSuccess
}
