package repository

import (
	"bytes"
	"encoding/json"
	"fintrack/internal/engine"
	"fintrack/types"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// snapshotDoc is the single-file encoding. Decimals are JSON strings so no
// precision is lost, timestamps are RFC 3339 with nanoseconds.
type snapshotDoc struct {
	Version      int                   `json:"version"`
	Cash         decimal.Decimal       `json:"cash"`
	Positions    []snapshotPosition    `json:"positions"`
	Transactions []snapshotTransaction `json:"transactions"`
}

type snapshotPosition struct {
	Symbol      string          `json:"symbol"`
	Shares      int64           `json:"shares"`
	CostBasis   decimal.Decimal `json:"costBasis"`
	MarketValue decimal.Decimal `json:"marketValue"`
}

type snapshotTransaction struct {
	ID        uuid.UUID       `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Symbol    string          `json:"symbol"`
	Action    types.Action    `json:"action"`
	Shares    int64           `json:"shares"`
	Price     decimal.Decimal `json:"price"`
}

// EncodeSnapshot writes view as an indented JSON document.
func EncodeSnapshot(w io.Writer, view types.BookView) error {
	doc := snapshotDoc{
		Version:      SchemaVersion,
		Cash:         view.Cash,
		Positions:    make([]snapshotPosition, 0, len(view.Positions)),
		Transactions: make([]snapshotTransaction, 0, len(view.Transactions)),
	}
	for _, pos := range view.Positions {
		doc.Positions = append(doc.Positions, snapshotPosition(pos))
	}
	for _, tx := range view.Transactions {
		doc.Transactions = append(doc.Transactions, snapshotTransaction(tx))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// DecodeSnapshot reads a document written by EncodeSnapshot. Malformed input
// and unknown versions are engine.ErrCorruptState.
func DecodeSnapshot(r io.Reader) (types.BookView, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var doc snapshotDoc
	if err := dec.Decode(&doc); err != nil {
		return types.BookView{}, fmt.Errorf("%w: decode snapshot: %w", engine.ErrCorruptState, err)
	}
	if doc.Version != SchemaVersion {
		return types.BookView{}, fmt.Errorf("%w: snapshot version %d, want %d", engine.ErrCorruptState, doc.Version, SchemaVersion)
	}

	view := types.BookView{
		Cash:         doc.Cash,
		Positions:    make([]types.Position, 0, len(doc.Positions)),
		Transactions: make([]types.Transaction, 0, len(doc.Transactions)),
	}
	for _, pos := range doc.Positions {
		view.Positions = append(view.Positions, types.Position(pos))
	}
	for i, tx := range doc.Transactions {
		if tx.ID == uuid.Nil {
			return types.BookView{}, fmt.Errorf("%w: transaction %d has no id", engine.ErrCorruptState, i)
		}
		view.Transactions = append(view.Transactions, types.Transaction(tx))
	}
	return view, nil
}

func marshalBook(book *engine.Book) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeSnapshot(&buf, book.Snapshot()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func unmarshalBook(data []byte, cfg *engine.BookConfig) (*engine.Book, error) {
	view, err := DecodeSnapshot(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return engine.RestoreBook(cfg, view)
}
