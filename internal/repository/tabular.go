package repository

import (
	"encoding/csv"
	"errors"
	"fintrack/internal/engine"
	"fintrack/types"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// File names of the tabular encoding inside a book directory.
const (
	TransactionsFile = "transactions.csv"
	PositionsFile    = "positions.csv"
	CashFile         = "cash.txt"
)

var (
	transactionsHeader = []string{"seq", "id", "timestamp", "symbol", "action", "shares", "price"}
	positionsHeader    = []string{"symbol", "shares", "cost_basis", "market_value"}
)

// EncodeTabular writes view as three files in dir, creating dir if needed.
// All three files are written in full before any of them replaces its old
// version, so a failed encode leaves the previous book intact. The renames
// themselves are not one atomic step: a crash between them can pair a new
// ledger with the old cash.txt.
func EncodeTabular(dir string, view types.BookView) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create book dir: %w", err)
	}
	return writeFilesAtomic(dir, []tableFile{
		{name: TransactionsFile, write: func(w io.Writer) error {
			return writeTransactionsCSV(w, view.Transactions)
		}},
		{name: PositionsFile, write: func(w io.Writer) error {
			return writePositionsCSV(w, view.Positions)
		}},
		{name: CashFile, write: func(w io.Writer) error {
			return writeCash(w, view.Cash)
		}},
	})
}

// DecodeTabular reads the three files written by EncodeTabular. A missing
// directory is ErrBookNotFound, a missing file inside it is corrupt state.
func DecodeTabular(dir string) (types.BookView, error) {
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return types.BookView{}, fmt.Errorf("%w: %s", ErrBookNotFound, dir)
		}
		return types.BookView{}, fmt.Errorf("stat book dir: %w", err)
	}

	var view types.BookView
	err := readFile(filepath.Join(dir, TransactionsFile), func(r io.Reader) (err error) {
		view.Transactions, err = readTransactionsCSV(r)
		return err
	})
	if err != nil {
		return types.BookView{}, err
	}
	err = readFile(filepath.Join(dir, PositionsFile), func(r io.Reader) (err error) {
		view.Positions, err = readPositionsCSV(r)
		return err
	})
	if err != nil {
		return types.BookView{}, err
	}
	err = readFile(filepath.Join(dir, CashFile), func(r io.Reader) (err error) {
		view.Cash, err = readCash(r)
		return err
	})
	if err != nil {
		return types.BookView{}, err
	}
	return view, nil
}

// writeTransactionsCSV writes the ledger in order, one row per transaction.
func writeTransactionsCSV(w io.Writer, txs []types.Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(transactionsHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, tx := range txs {
		row := newTransactionRow(i, tx)
		record := []string{
			strconv.Itoa(row.Seq),
			row.ID,
			row.Timestamp,
			row.Symbol,
			row.Action,
			strconv.FormatInt(row.Shares, 10),
			row.Price.String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func writePositionsCSV(w io.Writer, positions []types.Position) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(positionsHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, pos := range positions {
		record := []string{
			pos.Symbol,
			strconv.FormatInt(pos.Shares, 10),
			pos.CostBasis.String(),
			pos.MarketValue.String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func writeCash(w io.Writer, cash decimal.Decimal) error {
	if _, err := fmt.Fprintln(w, cash.String()); err != nil {
		return fmt.Errorf("write cash: %w", err)
	}
	return nil
}

func readTransactionsCSV(r io.Reader) ([]types.Transaction, error) {
	rows, err := readCSV(r, transactionsHeader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", TransactionsFile, err)
	}
	txs := make([]types.Transaction, 0, len(rows))
	for i, row := range rows {
		tx, err := parseTransactionRow(i, row)
		if err != nil {
			return nil, fmt.Errorf("%w: %s row %d: %w", engine.ErrCorruptState, TransactionsFile, i+1, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func parseTransactionRow(want int, row []string) (types.Transaction, error) {
	seq, err := strconv.Atoi(row[0])
	if err != nil {
		return types.Transaction{}, fmt.Errorf("seq: %w", err)
	}
	shares, err := strconv.ParseInt(row[5], 10, 64)
	if err != nil {
		return types.Transaction{}, fmt.Errorf("shares: %w", err)
	}
	price, err := decimal.NewFromString(row[6])
	if err != nil {
		return types.Transaction{}, fmt.Errorf("price: %w", err)
	}
	return transactionRow{
		Seq:       seq,
		ID:        row[1],
		Timestamp: row[2],
		Symbol:    row[3],
		Action:    row[4],
		Shares:    shares,
		Price:     price,
	}.transaction(want)
}

func readPositionsCSV(r io.Reader) ([]types.Position, error) {
	rows, err := readCSV(r, positionsHeader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", PositionsFile, err)
	}
	positions := make([]types.Position, 0, len(rows))
	for i, row := range rows {
		shares, err := strconv.ParseInt(row[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s row %d: shares: %w", engine.ErrCorruptState, PositionsFile, i+1, err)
		}
		costBasis, err := decimal.NewFromString(row[2])
		if err != nil {
			return nil, fmt.Errorf("%w: %s row %d: cost basis: %w", engine.ErrCorruptState, PositionsFile, i+1, err)
		}
		marketValue, err := decimal.NewFromString(row[3])
		if err != nil {
			return nil, fmt.Errorf("%w: %s row %d: market value: %w", engine.ErrCorruptState, PositionsFile, i+1, err)
		}
		positions = append(positions, types.Position{
			Symbol:      row[0],
			Shares:      shares,
			CostBasis:   costBasis,
			MarketValue: marketValue,
		})
	}
	return positions, nil
}

func readCash(r io.Reader) (decimal.Decimal, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return decimal.Zero, fmt.Errorf("read cash: %w", err)
	}
	cash, err := decimal.NewFromString(strings.TrimSpace(string(data)))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %w", engine.ErrCorruptState, CashFile, err)
	}
	return cash, nil
}

// readCSV checks the header row and returns the data rows.
func readCSV(r io.Reader, header []string) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(header)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", engine.ErrCorruptState, err)
	}
	if len(rows) == 0 || !slices.Equal(rows[0], header) {
		return nil, fmt.Errorf("%w: header must be %s", engine.ErrCorruptState, strings.Join(header, ","))
	}
	return rows[1:], nil
}

func readFile(path string, read func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: missing %s", engine.ErrCorruptState, filepath.Base(path))
		}
		return fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	return read(f)
}

type tableFile struct {
	name  string
	write func(io.Writer) error
}

// writeFileAtomic writes to a temporary file in the same directory and renames
// it over path once write succeeded.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	return writeFilesAtomic(filepath.Dir(path), []tableFile{{name: filepath.Base(path), write: write}})
}

// writeFilesAtomic stages every file as a temporary sibling and renames them
// into place, in order, only once all of them were written.
func writeFilesAtomic(dir string, files []tableFile) error {
	staged := make([]string, 0, len(files))
	defer func() {
		for _, tmp := range staged {
			os.Remove(tmp)
		}
	}()

	for _, file := range files {
		tmp, err := stageFile(dir, file)
		if tmp != "" {
			staged = append(staged, tmp)
		}
		if err != nil {
			return err
		}
	}
	for i, file := range files {
		if err := os.Rename(staged[i], filepath.Join(dir, file.name)); err != nil {
			return fmt.Errorf("rename %s: %w", file.name, err)
		}
	}
	return nil
}

func stageFile(dir string, file tableFile) (string, error) {
	f, err := os.CreateTemp(dir, "."+file.name+".*")
	if err != nil {
		return "", fmt.Errorf("create %s: %w", file.name, err)
	}
	tmp := f.Name()
	if err := file.write(f); err != nil {
		f.Close()
		return tmp, err
	}
	if err := f.Close(); err != nil {
		return tmp, fmt.Errorf("close %s: %w", file.name, err)
	}
	return tmp, nil
}
