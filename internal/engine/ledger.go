package engine

import (
	"fintrack/types"
	"fmt"
	"iter"
	"strings"
)

// Ledger is an append-only list of transactions.
//
// Records are kept in insertion order, which is not necessarily timestamp
// order: the ledger is never sorted or compacted. A Ledger is not safe for
// concurrent use on its own; Book serializes access to it.
type Ledger struct {
	records []types.Transaction
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		records: make([]types.Transaction, 0),
	}
}

// Append adds tx at the end of the ledger.
func (l *Ledger) Append(tx types.Transaction) error {
	if err := validateTransaction(tx); err != nil {
		return err
	}
	l.records = append(l.records, tx)
	return nil
}

// All returns an iterator over the records present when All is called, in
// insertion order. The iterator can be ranged over any number of times.
func (l *Ledger) All() iter.Seq[types.Transaction] {
	records := l.records
	return func(yield func(types.Transaction) bool) {
		for _, tx := range records {
			if !yield(tx) {
				return
			}
		}
	}
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	return len(l.records)
}

func validateTransaction(tx types.Transaction) error {
	if strings.TrimSpace(tx.Symbol) == "" {
		return fmt.Errorf("%w: empty symbol", ErrInvalidArgument)
	}
	if !tx.Action.Valid() {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidArgument, tx.Action)
	}
	if tx.Shares <= 0 {
		return fmt.Errorf("%w: shares must be positive, got %d", ErrInvalidArgument, tx.Shares)
	}
	if tx.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative, got %s", ErrInvalidArgument, tx.Price)
	}
	return nil
}
