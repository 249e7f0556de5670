package main

import (
	"bytes"
	"context"
	"flag"
	"fintrack/internal/config"
	"fintrack/internal/metrics"
	"fintrack/internal/repository"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	*app
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	var out, errOut bytes.Buffer
	cfg := config.Default()
	cfg.Store.Dir = t.TempDir()
	a := &app{
		cfg:     cfg,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		out:     &out,
		errOut:  &errOut,
		store:   repository.NewMemoryStore(),
		metrics: metrics.NewCollector(),
	}
	return &testApp{app: a, out: &out, errOut: &errOut}
}

// run parses args with cmd's flags and executes it, returning the exit
// status. Output is left in ta.out and ta.errOut.
func (ta *testApp) run(t *testing.T, cmd subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	ta.out.Reset()
	ta.errOut.Reset()
	f := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	f.SetOutput(io.Discard)
	cmd.SetFlags(f)
	require.NoError(t, f.Parse(args))
	return cmd.Execute(context.Background(), f, ta.app)
}

func (ta *testApp) mustRun(t *testing.T, cmd subcommands.Command, args ...string) string {
	t.Helper()
	status := ta.run(t, cmd, args...)
	require.Equal(t, subcommands.ExitSuccess, status, "stderr: %s", ta.errOut.String())
	return ta.out.String()
}

func TestCommands_Scenario(t *testing.T) {
	ta := newTestApp(t)

	assert.Equal(t, "Deposited 25000.00, cash 25000.00\n", ta.mustRun(t, &depositCmd{}, "25000"))
	assert.Contains(t, ta.mustRun(t, &buyCmd{}, "-d", "2023-11-21", "-s", "aapl", "-q", "10", "-p", "150"), "cash 23500.00")
	assert.Contains(t, ta.mustRun(t, &buyCmd{}, "-d", "2023-12-15", "-s", "GOOGL", "-q", "5", "-p", "2000"), "cash 13500.00")
	assert.Contains(t, ta.mustRun(t, &sellCmd{}, "-d", "2024-01-10", "-s", "AAPL", "-q", "5", "-p", "170"), "cash 14350.00")

	assert.Equal(t, "Total Value: 25650.00\n", ta.mustRun(t, &valueCmd{}, "AAPL=160", "GOOGL=2100"))
	assert.Equal(t, "Total Value: 25650.00\n", ta.mustRun(t, &valueCmd{}))
	assert.Equal(t, "Return: 2.60%\n", ta.mustRun(t, &returnCmd{}, "25000"))

	positions := ta.mustRun(t, &positionsCmd{})
	lines := strings.Split(strings.TrimSpace(positions), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "AAPL")
	assert.Contains(t, lines[1], "650.00")
	assert.Contains(t, lines[1], "800.00")
	assert.Contains(t, lines[2], "GOOGL")

	log := ta.mustRun(t, &logCmd{})
	lines = strings.Split(strings.TrimSpace(log), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "2023-11-21")
	assert.Contains(t, lines[3], "SELL")

	tail := ta.mustRun(t, &logCmd{}, "-tail", "1")
	assert.Len(t, strings.Split(strings.TrimSpace(tail), "\n"), 2)

	summary := ta.mustRun(t, &summaryCmd{}, "-i", "25000")
	assert.Contains(t, summary, "Total Value:           25650.00")
	assert.Contains(t, summary, "Return:                2.60%")

	assert.Contains(t, ta.mustRun(t, &verifyCmd{}, "-quiet"), "OK: 3 transactions, 2 open positions, cash 14350.00")
}

func TestCommands_Rejections(t *testing.T) {
	ta := newTestApp(t)
	ta.mustRun(t, &depositCmd{}, "1000")

	tests := []struct {
		name    string
		cmd     subcommands.Command
		args    []string
		status  subcommands.ExitStatus
		wantErr string
	}{
		{name: "insufficient funds", cmd: &buyCmd{}, args: []string{"-s", "AAPL", "-q", "10", "-p", "150"}, status: subcommands.ExitFailure, wantErr: "insufficient funds"},
		{name: "no position", cmd: &sellCmd{}, args: []string{"-s", "AAPL", "-q", "1", "-p", "150"}, status: subcommands.ExitFailure, wantErr: "no such position"},
		{name: "overdraw", cmd: &withdrawCmd{}, args: []string{"1000.01"}, status: subcommands.ExitFailure, wantErr: "insufficient funds"},
		{name: "missing price", cmd: &buyCmd{}, args: []string{"-s", "AAPL", "-q", "1"}, status: subcommands.ExitUsageError},
		{name: "no amount", cmd: &depositCmd{}, status: subcommands.ExitUsageError},
		{name: "bad amount", cmd: &depositCmd{}, args: []string{"ten"}, status: subcommands.ExitFailure, wantErr: "invalid amount"},
		{name: "zero return base", cmd: &returnCmd{}, args: []string{"0"}, status: subcommands.ExitFailure, wantErr: "invalid argument"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := ta.run(t, tt.cmd, tt.args...)
			assert.Equal(t, tt.status, status)
			if tt.wantErr != "" {
				assert.Contains(t, ta.errOut.String(), tt.wantErr)
			}
		})
	}

	// Nothing above changed the saved book.
	assert.Equal(t, "Total Value: 1000.00\n", ta.mustRun(t, &valueCmd{}))
}

func TestCommands_ValueMissingPrice(t *testing.T) {
	ta := newTestApp(t)
	ta.mustRun(t, &depositCmd{}, "10000")
	ta.mustRun(t, &buyCmd{}, "-s", "AAPL", "-q", "10", "-p", "150")
	ta.mustRun(t, &buyCmd{}, "-s", "MSFT", "-q", "10", "-p", "300")

	assert.Equal(t, subcommands.ExitFailure, ta.run(t, &valueCmd{}, "AAPL=200"))
	assert.Contains(t, ta.errOut.String(), "MSFT")
	assert.Equal(t, "Total Value: 10000.00\n", ta.mustRun(t, &valueCmd{}))
}

func TestCommands_ValueLowerCaseSymbols(t *testing.T) {
	ta := newTestApp(t)
	ta.mustRun(t, &depositCmd{}, "1000")
	ta.mustRun(t, &buyCmd{}, "-s", "aapl", "-q", "1", "-p", "100")

	assert.Equal(t, "Total Value: 1010.00\n", ta.mustRun(t, &valueCmd{}, "aapl=110"))
}

func TestCommands_SummaryDemo(t *testing.T) {
	ta := newTestApp(t)
	summary := ta.mustRun(t, &summaryCmd{}, "-demo")
	assert.Contains(t, summary, "Cash:                  14350.00")
	assert.Contains(t, summary, "Total Value:           25650.00")
	assert.Contains(t, summary, "Return:                2.60%")

	// The configured book is untouched.
	assert.Equal(t, "Total Value: 0.00\n", ta.mustRun(t, &valueCmd{}))
}

func TestCommands_Convert(t *testing.T) {
	ta := newTestApp(t)
	book, err := demoBook(ta.bookConfig())
	require.NoError(t, err)
	require.NoError(t, ta.saveBook(context.Background(), book))

	dir := t.TempDir()
	assert.Contains(t, ta.mustRun(t, &convertCmd{}, "-to", "tabular", "-dir", dir, "-name", "copy"), "3 transactions")
	for _, name := range []string{repository.TransactionsFile, repository.PositionsFile, repository.CashFile} {
		assert.FileExists(t, filepath.Join(dir, "copy", name))
	}

	loaded, err := repository.NewTabularStore(dir).Load(context.Background(), "copy", nil)
	require.NoError(t, err)
	assert.True(t, loaded.Cash().Equal(book.Cash()))

	assert.Equal(t, subcommands.ExitUsageError, ta.run(t, &convertCmd{}))
}

func TestCommands_VerifyWithProgressBar(t *testing.T) {
	ta := newTestApp(t)
	book, err := demoBook(ta.bookConfig())
	require.NoError(t, err)
	require.NoError(t, ta.saveBook(context.Background(), book))

	assert.Contains(t, ta.mustRun(t, &verifyCmd{}), "OK: 3 transactions")
	assert.Contains(t, ta.errOut.String(), "Replaying ledger...")
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, closers, err := openStore(ctx, config.StoreConfig{Kind: config.StoreSnapshot, Dir: t.TempDir()}, config.CacheConfig{}, logger)
	require.NoError(t, err)
	assert.Empty(t, closers)
	assert.IsType(t, &repository.FileStore{}, store)

	store, closers, err = openStore(ctx, config.StoreConfig{Kind: config.StoreTabular, Dir: t.TempDir()}, config.CacheConfig{RedisURL: "redis://localhost:6379/0", TTL: 1}, logger)
	require.NoError(t, err)
	require.Len(t, closers, 1)
	closers[0]()
	assert.IsType(t, &repository.CachedStore{}, store)

	_, _, err = openStore(ctx, config.StoreConfig{Kind: "s3"}, config.CacheConfig{}, logger)
	assert.Error(t, err)

	_, _, err = openStore(ctx, config.StoreConfig{Kind: config.StoreSnapshot, Dir: t.TempDir()}, config.CacheConfig{RedisURL: "://bad"}, logger)
	assert.Error(t, err)
}

func TestApp_MetricsTextfile(t *testing.T) {
	ta := newTestApp(t)
	path := filepath.Join(t.TempDir(), "fintrack.prom")
	ta.cfg.Metrics.Textfile = path

	ta.mustRun(t, &depositCmd{}, "100")
	ta.close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `fintrack_cash_flows_total{kind="deposit"} 100`)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", "book", "main")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	_, err = newLogger(config.LogConfig{Level: "loud"}, &buf)
	assert.Error(t, err)
}
