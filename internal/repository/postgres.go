package repository

import (
	"context"
	"errors"
	"fintrack/internal/engine"
	"fintrack/types"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// schema creates the tables used by PostgresStore. Timestamps are kept as
// RFC 3339 text because timestamptz drops nanoseconds.
const schema = `
CREATE TABLE IF NOT EXISTS books (
	name       TEXT PRIMARY KEY,
	version    INTEGER NOT NULL,
	cash       NUMERIC NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS book_transactions (
	book   TEXT NOT NULL REFERENCES books (name) ON DELETE CASCADE,
	seq    INTEGER NOT NULL,
	id     TEXT NOT NULL,
	ts     TEXT NOT NULL,
	symbol TEXT NOT NULL,
	action TEXT NOT NULL,
	shares BIGINT NOT NULL,
	price  NUMERIC NOT NULL,
	PRIMARY KEY (book, seq)
);

CREATE TABLE IF NOT EXISTS book_positions (
	book         TEXT NOT NULL REFERENCES books (name) ON DELETE CASCADE,
	symbol       TEXT NOT NULL,
	shares       BIGINT NOT NULL,
	cost_basis   NUMERIC NOT NULL,
	market_value NUMERIC NOT NULL,
	PRIMARY KEY (book, symbol)
);
`

// PostgresStore keeps books in three tables, one row per book, per
// transaction and per open position. The pool must have the shopspring
// decimal codec registered, see Connect.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Save replaces the stored state of name in a single transaction.
func (s *PostgresStore) Save(ctx context.Context, name string, book *engine.Book) error {
	if err := validateName(name); err != nil {
		return err
	}
	view := book.Snapshot()

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO books (name, version, cash, updated_at)
			 VALUES ($1, $2, $3, now())
			 ON CONFLICT (name) DO UPDATE
			 SET version = EXCLUDED.version, cash = EXCLUDED.cash, updated_at = EXCLUDED.updated_at`,
			name, SchemaVersion, view.Cash)
		if err != nil {
			return fmt.Errorf("upsert book %s: %w", name, err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM book_transactions WHERE book = $1`, name); err != nil {
			return fmt.Errorf("clear transactions: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM book_positions WHERE book = $1`, name); err != nil {
			return fmt.Errorf("clear positions: %w", err)
		}

		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"book_transactions"},
			[]string{"book", "seq", "id", "ts", "symbol", "action", "shares", "price"},
			pgx.CopyFromSlice(len(view.Transactions), func(i int) ([]any, error) {
				row := newTransactionRow(i, view.Transactions[i])
				return []any{name, row.Seq, row.ID, row.Timestamp, row.Symbol, row.Action, row.Shares, row.Price}, nil
			}))
		if err != nil {
			return fmt.Errorf("copy transactions: %w", err)
		}

		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"book_positions"},
			[]string{"book", "symbol", "shares", "cost_basis", "market_value"},
			pgx.CopyFromSlice(len(view.Positions), func(i int) ([]any, error) {
				pos := view.Positions[i]
				return []any{name, pos.Symbol, pos.Shares, pos.CostBasis, pos.MarketValue}, nil
			}))
		if err != nil {
			return fmt.Errorf("copy positions: %w", err)
		}
		return nil
	})
}

// Load reads name inside a read-only repeatable-read transaction so the
// three tables are seen at the same point in time.
func (s *PostgresStore) Load(ctx context.Context, name string, cfg *engine.BookConfig) (*engine.Book, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	var view types.BookView
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	err := pgx.BeginTxFunc(ctx, s.pool, opts, func(tx pgx.Tx) error {
		var version int
		err := tx.QueryRow(ctx, `SELECT version, cash FROM books WHERE name = $1`, name).
			Scan(&version, &view.Cash)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrBookNotFound, name)
		}
		if err != nil {
			return fmt.Errorf("get book %s: %w", name, err)
		}
		if version != SchemaVersion {
			return fmt.Errorf("%w: book %s has version %d, want %d", engine.ErrCorruptState, name, version, SchemaVersion)
		}

		rows, err := tx.Query(ctx,
			`SELECT seq, id, ts, symbol, action, shares, price
			 FROM book_transactions WHERE book = $1 ORDER BY seq`, name)
		if err != nil {
			return fmt.Errorf("query transactions: %w", err)
		}
		txRows, err := pgx.CollectRows(rows, pgx.RowToStructByPos[transactionRow])
		if err != nil {
			return fmt.Errorf("scan transactions: %w", err)
		}
		view.Transactions = make([]types.Transaction, 0, len(txRows))
		for i, row := range txRows {
			t, err := row.transaction(i)
			if err != nil {
				return fmt.Errorf("%w: book %s transaction %d: %w", engine.ErrCorruptState, name, i, err)
			}
			view.Transactions = append(view.Transactions, t)
		}

		rows, err = tx.Query(ctx,
			`SELECT symbol, shares, cost_basis, market_value
			 FROM book_positions WHERE book = $1 ORDER BY symbol`, name)
		if err != nil {
			return fmt.Errorf("query positions: %w", err)
		}
		view.Positions, err = pgx.CollectRows(rows, pgx.RowToStructByPos[types.Position])
		if err != nil {
			return fmt.Errorf("scan positions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return engine.RestoreBook(cfg, view)
}

// transactionRow is a book_transactions row without the book column.
type transactionRow struct {
	Seq       int
	ID        string
	Timestamp string
	Symbol    string
	Action    string
	Shares    int64
	Price     decimal.Decimal
}

func newTransactionRow(seq int, tx types.Transaction) transactionRow {
	return transactionRow{
		Seq:       seq,
		ID:        tx.ID.String(),
		Timestamp: tx.Timestamp.Format(time.RFC3339Nano),
		Symbol:    tx.Symbol,
		Action:    string(tx.Action),
		Shares:    tx.Shares,
		Price:     tx.Price,
	}
}

// transaction converts the row back, checking that it sits at position want
// of the log.
func (r transactionRow) transaction(want int) (types.Transaction, error) {
	if r.Seq != want {
		return types.Transaction{}, fmt.Errorf("seq %d out of order, want %d", r.Seq, want)
	}
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return types.Transaction{}, fmt.Errorf("id: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, r.Timestamp)
	if err != nil {
		return types.Transaction{}, fmt.Errorf("timestamp: %w", err)
	}
	action, err := types.ParseAction(r.Action)
	if err != nil {
		return types.Transaction{}, err
	}
	return types.Transaction{
		ID:        id,
		Timestamp: ts,
		Symbol:    r.Symbol,
		Action:    action,
		Shares:    r.Shares,
		Price:     r.Price,
	}, nil
}
