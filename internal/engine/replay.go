package engine

import (
	"fintrack/types"
	"fmt"
	"iter"
	"slices"

	"github.com/shopspring/decimal"
)

// Replay folds txs over an empty book without checking cash. It returns the
// resulting open positions and the net cash moved by the trades (sell
// proceeds minus buy costs).
func Replay(txs iter.Seq[types.Transaction]) (map[string]types.Position, decimal.Decimal, error) {
	positions := make(map[string]*types.Position)
	flow := decimal.Zero
	i := 0
	for tx := range txs {
		if err := validateTransaction(tx); err != nil {
			return nil, decimal.Zero, fmt.Errorf("transaction %d (%s): %w", i, tx.ID, err)
		}
		next, err := nextPosition(positions[tx.Symbol], tx)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("transaction %d (%s): %w", i, tx.ID, err)
		}
		if next == nil {
			delete(positions, tx.Symbol)
		} else {
			positions[tx.Symbol] = next
		}
		if tx.Action == types.ActionBuy {
			flow = flow.Sub(tx.Amount())
		} else {
			flow = flow.Add(tx.Amount())
		}
		i++
	}

	out := make(map[string]types.Position, len(positions))
	for symbol, pos := range positions {
		out[symbol] = *pos
	}
	return out, flow, nil
}

// RestoreBook rebuilds a book from a persisted view.
//
// The view's transaction log is replayed from zero and must reproduce the
// shares and cost basis of every stored position, with no position missing or
// extra. Stored market values are kept as they are, they depend on the last
// prices seen rather than on the log. Any mismatch is ErrCorruptState.
func RestoreBook(cfg *BookConfig, view types.BookView) (*Book, error) {
	if view.Cash.IsNegative() {
		return nil, fmt.Errorf("%w: negative cash %s", ErrCorruptState, view.Cash)
	}
	replayed, _, err := Replay(slices.Values(view.Transactions))
	if err != nil {
		return nil, fmt.Errorf("%w: replay: %w", ErrCorruptState, err)
	}

	book := NewBook(cfg)
	for _, pos := range view.Positions {
		if _, dup := book.positions[pos.Symbol]; dup {
			return nil, fmt.Errorf("%w: duplicate position %s", ErrCorruptState, pos.Symbol)
		}
		want, ok := replayed[pos.Symbol]
		if !ok {
			return nil, fmt.Errorf("%w: position %s not produced by the ledger", ErrCorruptState, pos.Symbol)
		}
		if pos.Shares != want.Shares {
			return nil, fmt.Errorf("%w: position %s has %d shares, ledger gives %d", ErrCorruptState, pos.Symbol, pos.Shares, want.Shares)
		}
		if !pos.CostBasis.Equal(want.CostBasis) {
			return nil, fmt.Errorf("%w: position %s has cost basis %s, ledger gives %s", ErrCorruptState, pos.Symbol, pos.CostBasis, want.CostBasis)
		}
		p := pos
		book.positions[pos.Symbol] = &p
	}
	if len(book.positions) != len(replayed) {
		for symbol := range replayed {
			if _, ok := book.positions[symbol]; !ok {
				return nil, fmt.Errorf("%w: ledger holds %s but no position is stored", ErrCorruptState, symbol)
			}
		}
	}

	for _, tx := range view.Transactions {
		if err := book.ledger.Append(tx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptState, err)
		}
	}
	book.cash = view.Cash
	return book, nil
}
