package engine

import (
	"fintrack/types"
	"fmt"
	"iter"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Book holds the cash balance and open positions derived from its ledger.
//
// Mutations take the write lock for their whole read-modify-write, so a
// reader never sees cash and positions out of step.
type Book struct {
	mu        sync.RWMutex
	cash      decimal.Decimal
	positions map[string]*types.Position
	ledger    *Ledger

	logger   *slog.Logger
	observer Observer
}

func NewBook(cfg *BookConfig) *Book {
	logger, observer := cfg.resolve()
	return &Book{
		cash:      decimal.Zero,
		positions: make(map[string]*types.Position),
		ledger:    NewLedger(),
		logger:    logger,
		observer:  observer,
	}
}

func (b *Book) Deposit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return b.reject("deposit", fmt.Errorf("%w: deposit amount must be positive, got %s", ErrInvalidArgument, amount))
	}
	b.mu.Lock()
	b.cash = b.cash.Add(amount)
	b.mu.Unlock()

	b.logger.Debug("cash deposited", "amount", amount)
	b.observer.CashFlow(CashFlowDeposit, amount)
	return nil
}

func (b *Book) Withdraw(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return b.reject("withdraw", fmt.Errorf("%w: %w: withdrawal amount must be positive, got %s", ErrInsufficientFunds, ErrInvalidArgument, amount))
	}
	b.mu.Lock()
	if amount.GreaterThan(b.cash) {
		cash := b.cash
		b.mu.Unlock()
		return b.reject("withdraw", fmt.Errorf("%w: withdraw %s with cash %s", ErrInsufficientFunds, amount, cash))
	}
	b.cash = b.cash.Sub(amount)
	b.mu.Unlock()

	b.logger.Debug("cash withdrawn", "amount", amount)
	b.observer.CashFlow(CashFlowWithdraw, amount)
	return nil
}

// RecordTransaction validates a trade against the current state and, when it
// is accepted, appends it to the ledger and updates cash and the position.
// On error nothing is modified.
func (b *Book) RecordTransaction(timestamp time.Time, symbol string, action types.Action, shares int64, price decimal.Decimal) (types.Transaction, error) {
	tx := types.NewTransaction(timestamp, symbol, action, shares, price)

	b.mu.Lock()
	err := b.apply(tx)
	b.mu.Unlock()
	if err != nil {
		return types.Transaction{}, b.reject(opName(action), err)
	}

	b.logger.Debug("transaction recorded",
		"id", tx.ID,
		"symbol", tx.Symbol,
		"action", tx.Action,
		"shares", tx.Shares,
		"price", tx.Price,
	)
	b.observer.Recorded(tx)
	return tx, nil
}

// apply must be called with the write lock held.
func (b *Book) apply(tx types.Transaction) error {
	if err := validateTransaction(tx); err != nil {
		return err
	}
	next, err := nextPosition(b.positions[tx.Symbol], tx)
	if err != nil {
		return err
	}

	amount := tx.Amount()
	newCash := b.cash.Add(amount)
	if tx.Action == types.ActionBuy {
		if amount.GreaterThan(b.cash) {
			return fmt.Errorf("%w: buy %d %s at %s costs %s with cash %s",
				ErrInsufficientFunds, tx.Shares, tx.Symbol, tx.Price, amount, b.cash)
		}
		newCash = b.cash.Sub(amount)
	}

	if err := b.ledger.Append(tx); err != nil {
		return err
	}
	b.cash = newCash
	if next == nil {
		delete(b.positions, tx.Symbol)
	} else {
		b.positions[tx.Symbol] = next
	}
	return nil
}

// nextPosition returns the position that results from applying tx to pos.
// pos is nil when the symbol is not held and is never modified. A nil result
// means the position is closed.
func nextPosition(pos *types.Position, tx types.Transaction) (*types.Position, error) {
	amount := tx.Amount()
	switch tx.Action {
	case types.ActionBuy:
		if pos == nil {
			return &types.Position{
				Symbol:      tx.Symbol,
				Shares:      tx.Shares,
				CostBasis:   amount,
				MarketValue: amount,
			}, nil
		}
		next := *pos
		next.Shares += tx.Shares
		next.CostBasis = next.CostBasis.Add(amount)
		next.MarketValue = tx.Price.Mul(decimal.NewFromInt(next.Shares))
		return &next, nil

	case types.ActionSell:
		if pos == nil {
			return nil, fmt.Errorf("%w: sell %s", ErrNoSuchPosition, tx.Symbol)
		}
		if tx.Shares > pos.Shares {
			return nil, fmt.Errorf("%w: sell %d %s with %d held", ErrInsufficientShares, tx.Shares, tx.Symbol, pos.Shares)
		}
		next := *pos
		next.Shares -= tx.Shares
		if next.Shares == 0 {
			return nil, nil
		}
		next.CostBasis = next.CostBasis.Sub(amount)
		next.MarketValue = tx.Price.Mul(decimal.NewFromInt(next.Shares))
		return &next, nil
	}
	return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidArgument, tx.Action)
}

func (b *Book) Cash() decimal.Decimal {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cash
}

// Position returns a copy of the open position for symbol.
func (b *Book) Position(symbol string) (types.Position, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	pos, ok := b.positions[symbol]
	if !ok {
		return types.Position{}, false
	}
	return *pos, true
}

// Positions returns copies of the open positions sorted by symbol.
func (b *Book) Positions() []types.Position {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sortedPositions()
}

// Transactions iterates over the ledger as of the call.
func (b *Book) Transactions() iter.Seq[types.Transaction] {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ledger.All()
}

func (b *Book) TransactionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ledger.Len()
}

// Snapshot returns a detached copy of the whole book state.
func (b *Book) Snapshot() types.BookView {
	b.mu.RLock()
	defer b.mu.RUnlock()

	txs := make([]types.Transaction, 0, b.ledger.Len())
	for tx := range b.ledger.All() {
		txs = append(txs, tx)
	}
	return types.BookView{
		Cash:         b.cash,
		Positions:    b.sortedPositions(),
		Transactions: txs,
	}
}

func (b *Book) sortedPositions() []types.Position {
	out := make([]types.Position, 0, len(b.positions))
	for _, pos := range b.positions {
		out = append(out, *pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (b *Book) reject(op string, err error) error {
	b.logger.Info("operation rejected", "op", op, "err", err)
	b.observer.Rejected(op, err)
	return err
}

func opName(action types.Action) string {
	switch action {
	case types.ActionBuy:
		return "buy"
	case types.ActionSell:
		return "sell"
	default:
		return "record"
	}
}
