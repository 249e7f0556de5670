package repository

import (
	"errors"
	"fintrack/internal/engine"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTabular_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "book")
	want := testBook(t).Snapshot()

	require.NoError(t, EncodeTabular(dir, want))
	for _, name := range []string{TransactionsFile, PositionsFile, CashFile} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	got, err := DecodeTabular(dir)
	require.NoError(t, err)
	requireSameView(t, want, got)
}

func TestTabular_Layout(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, EncodeTabular(dir, testBook(t).Snapshot()))

	txs, err := os.ReadFile(filepath.Join(dir, TransactionsFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(txs)), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "seq,id,timestamp,symbol,action,shares,price", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "0,"))
	assert.True(t, strings.HasSuffix(lines[1], ",AAPL,BUY,10,150.125"), lines[1])
	assert.Contains(t, lines[1], "2023-11-21T09:30:00.123456789Z")

	positions, err := os.ReadFile(filepath.Join(dir, PositionsFile))
	require.NoError(t, err)
	assert.Equal(t, "symbol,shares,cost_basis,market_value\nAAPL,5,651.25,800.05\nGOOGL,5,10000,10500\n", string(positions))

	cash, err := os.ReadFile(filepath.Join(dir, CashFile))
	require.NoError(t, err)
	assert.Equal(t, "14317.25\n", string(cash))
}

func TestTabular_EmptyBook(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, EncodeTabular(dir, engine.NewBook(nil).Snapshot()))

	got, err := DecodeTabular(dir)
	require.NoError(t, err)
	assert.True(t, got.Cash.IsZero())
	assert.Empty(t, got.Positions)
	assert.Empty(t, got.Transactions)
}

func TestDecodeTabular_MissingDir(t *testing.T) {
	_, err := DecodeTabular(filepath.Join(t.TempDir(), "nope"))
	require.ErrorIs(t, err, ErrBookNotFound)
}

func TestDecodeTabular_Corrupt(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		mutate func(content string) string
	}{
		{
			name:   "missing cash",
			file:   CashFile,
			mutate: nil,
		},
		{
			name:   "bad cash",
			file:   CashFile,
			mutate: func(string) string { return "lots\n" },
		},
		{
			name:   "wrong header",
			file:   PositionsFile,
			mutate: func(c string) string { return strings.Replace(c, "cost_basis", "basis", 1) },
		},
		{
			name:   "short row",
			file:   PositionsFile,
			mutate: func(c string) string { return c + "TSLA,1\n" },
		},
		{
			name: "seq out of order",
			file: TransactionsFile,
			mutate: func(c string) string {
				lines := strings.Split(c, "\n")
				lines[1], lines[2] = lines[2], lines[1]
				return strings.Join(lines, "\n")
			},
		},
		{
			name:   "bad action",
			file:   TransactionsFile,
			mutate: func(c string) string { return strings.Replace(c, ",BUY,", ",HOLD,", 1) },
		},
		{
			name:   "bad price",
			file:   TransactionsFile,
			mutate: func(c string) string { return strings.Replace(c, "150.125", "15O.125", 1) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, EncodeTabular(dir, testBook(t).Snapshot()))

			path := filepath.Join(dir, tt.file)
			if tt.mutate == nil {
				require.NoError(t, os.Remove(path))
			} else {
				content, err := os.ReadFile(path)
				require.NoError(t, err)
				require.NoError(t, os.WriteFile(path, []byte(tt.mutate(string(content))), 0o644))
			}

			_, err := DecodeTabular(dir)
			require.ErrorIs(t, err, engine.ErrCorruptState)
		})
	}
}

func TestTabular_AgreesWithSnapshot(t *testing.T) {
	b := testBook(t)
	dir := t.TempDir()
	require.NoError(t, EncodeTabular(dir, b.Snapshot()))

	fromTables, err := DecodeTabular(dir)
	require.NoError(t, err)
	restored, err := engine.RestoreBook(nil, fromTables)
	require.NoError(t, err)

	data, err := marshalBook(restored)
	require.NoError(t, err)
	fromSnapshot, err := unmarshalBook(data, nil)
	require.NoError(t, err)
	requireSameView(t, b.Snapshot(), fromSnapshot.Snapshot())
}

func TestWriteFilesAtomic_FailedWriteKeepsOldFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("old a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("old b"), 0o644))

	errWrite := errors.New("disk full")
	err := writeFilesAtomic(dir, []tableFile{
		{name: "a.csv", write: func(w io.Writer) error {
			_, err := io.WriteString(w, "new a")
			return err
		}},
		{name: "b.txt", write: func(io.Writer) error { return errWrite }},
	})
	require.ErrorIs(t, err, errWrite)

	for name, want := range map[string]string{"a.csv": "old a", "b.txt": "old b"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Equal(t, want, string(data), name)
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestTabularStore_NoTempFilesLeft(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "book")
	require.NoError(t, EncodeTabular(dir, testBook(t).Snapshot()))
	require.NoError(t, EncodeTabular(dir, testBook(t).Snapshot()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{TransactionsFile, PositionsFile, CashFile}, names)
}
