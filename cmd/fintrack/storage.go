package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fintrack/internal/config"
	"fintrack/internal/engine"
	"fintrack/internal/repository"
	"fintrack/types"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
)

// --- Verify Command ---

type verifyCmd struct {
	quiet bool
}

func (*verifyCmd) Name() string     { return "verify" }
func (*verifyCmd) Synopsis() string { return "replay the ledger and check both encodings" }
func (*verifyCmd) Usage() string {
	return `verify [-quiet]

  Replays the transaction log from zero and checks it reproduces every open
  position, then encodes the book as a snapshot and as tables and checks
  both decode to the same book.
`
}
func (c *verifyCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.quiet, "quiet", false, "Do not display the progress bar.")
}

func (c *verifyCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	book, err := a.loadBook(ctx)
	if err != nil {
		return a.fail(err)
	}
	view := book.Snapshot()

	var bar *progressbar.ProgressBar
	if !c.quiet && len(view.Transactions) > 0 {
		bar = initProgressBar(len(view.Transactions), a.errOut)
	}
	replayed, _, err := engine.Replay(ticking(view.Transactions, bar))
	if bar != nil {
		bar.Finish()
		fmt.Fprintln(a.errOut)
	}
	if err != nil {
		return a.fail(err)
	}
	if err := samePositions(view.Positions, replayed); err != nil {
		return a.fail(err)
	}

	if err := verifyEncodings(book); err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "OK: %d transactions, %d open positions, cash %s\n",
		len(view.Transactions), len(view.Positions), view.Cash.StringFixed(2))
	return subcommands.ExitSuccess
}

func initProgressBar(maxTicks int, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(maxTicks,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Replaying ledger..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

// ticking yields txs and advances bar, which may be nil, once per element.
func ticking(txs []types.Transaction, bar *progressbar.ProgressBar) iter.Seq[types.Transaction] {
	return func(yield func(types.Transaction) bool) {
		for _, tx := range txs {
			if bar != nil {
				bar.Add(1)
			}
			if !yield(tx) {
				return
			}
		}
	}
}

func samePositions(stored []types.Position, replayed map[string]types.Position) error {
	if len(stored) != len(replayed) {
		return fmt.Errorf("%w: %d positions stored, ledger gives %d", engine.ErrCorruptState, len(stored), len(replayed))
	}
	for _, pos := range stored {
		want, ok := replayed[pos.Symbol]
		if !ok || want.Shares != pos.Shares || !want.CostBasis.Equal(pos.CostBasis) {
			return fmt.Errorf("%w: position %s does not match the ledger", engine.ErrCorruptState, pos.Symbol)
		}
	}
	return nil
}

// verifyEncodings checks that decode(encode(book)) has the same cash,
// positions and transaction count for both encodings.
func verifyEncodings(book *engine.Book) error {
	want := book.Snapshot()

	var buf bytes.Buffer
	if err := repository.EncodeSnapshot(&buf, want); err != nil {
		return err
	}
	fromSnapshot, err := repository.DecodeSnapshot(&buf)
	if err != nil {
		return err
	}
	if err := sameView(want, fromSnapshot); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	dir, err := os.MkdirTemp("", "fintrack-verify-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)
	if err := repository.EncodeTabular(dir, want); err != nil {
		return err
	}
	fromTables, err := repository.DecodeTabular(dir)
	if err != nil {
		return err
	}
	if err := sameView(want, fromTables); err != nil {
		return fmt.Errorf("tables: %w", err)
	}
	return nil
}

func sameView(want, got types.BookView) error {
	restored, err := engine.RestoreBook(nil, got)
	if err != nil {
		return err
	}
	if !restored.Cash().Equal(want.Cash) {
		return fmt.Errorf("%w: cash %s, want %s", engine.ErrCorruptState, restored.Cash(), want.Cash)
	}
	if restored.TransactionCount() != len(want.Transactions) {
		return fmt.Errorf("%w: %d transactions, want %d", engine.ErrCorruptState, restored.TransactionCount(), len(want.Transactions))
	}
	i := 0
	for tx := range restored.Transactions() {
		if tx.ID != want.Transactions[i].ID {
			return fmt.Errorf("%w: transaction %d is %s, want %s", engine.ErrCorruptState, i, tx.ID, want.Transactions[i].ID)
		}
		i++
	}
	for _, pos := range want.Positions {
		got, ok := restored.Position(pos.Symbol)
		if !ok || !got.MarketValue.Equal(pos.MarketValue) {
			return fmt.Errorf("%w: position %s differs", engine.ErrCorruptState, pos.Symbol)
		}
	}
	return nil
}

// --- Convert Command ---

type convertCmd struct {
	kind string
	dir  string
	name string
}

func (*convertCmd) Name() string     { return "convert" }
func (*convertCmd) Synopsis() string { return "copy the book to another store" }
func (*convertCmd) Usage() string {
	return `convert -to <snapshot|tabular|postgres> [-dir <dir>] [-name <book>]

  Loads the configured book and saves it to another store. The postgres
  store uses store.database from the config.
`
}
func (c *convertCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "to", "", "Target store kind.")
	f.StringVar(&c.dir, "dir", "", "Target directory for snapshot and tabular stores.")
	f.StringVar(&c.name, "name", "", "Target book name, defaults to the current one.")
}

func (c *convertCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	target := a.cfg.Store
	target.Kind = c.kind
	if c.dir != "" {
		target.Dir = c.dir
	}
	name := c.name
	if name == "" {
		name = a.cfg.Book.Name
	}
	if c.kind == "" || (c.kind != config.StorePostgres && target.Dir == "") {
		f.Usage()
		return subcommands.ExitUsageError
	}

	book, err := a.loadBook(ctx)
	if err != nil {
		return a.fail(err)
	}

	store, closers, err := openStore(ctx, target, config.CacheConfig{}, a.logger)
	if err != nil {
		return a.fail(err)
	}
	defer func() {
		for _, fn := range closers {
			fn()
		}
	}()
	if err := store.Save(ctx, name, book); err != nil {
		if errors.Is(err, repository.ErrInvalidName) {
			f.Usage()
			return subcommands.ExitUsageError
		}
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Copied %s (%d transactions) to %s store as %s\n",
		a.cfg.Book.Name, book.TransactionCount(), c.kind, name)
	return subcommands.ExitSuccess
}
