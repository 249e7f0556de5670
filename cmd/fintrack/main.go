// Command fintrack keeps a cash account and a book of stock positions.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path"

	"github.com/google/subcommands"
)

const defaultConfigFile = "fintrack.yaml"

var (
	configPath = flag.String("config", "", "Path to the YAML config file (defaults to "+defaultConfigFile+" when present)")
	bookName   = flag.String("book", "", "Book to operate on, overrides book.name from the config")
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	register(commander)

	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(int(subcommands.ExitUsageError))
	}
	if *bookName != "" {
		cfg.Book.Name = *bookName
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(int(subcommands.ExitUsageError))
		}
	}

	a, err := newApp(cfg, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(int(subcommands.ExitUsageError))
	}
	slog.SetDefault(a.logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	status := commander.Execute(ctx, a)
	stop()
	a.close()
	os.Exit(int(status))
}

// register adds the fintrack commands to c.
func register(c *subcommands.Commander) {
	c.Register(&depositCmd{}, "cash")
	c.Register(&withdrawCmd{}, "cash")

	c.Register(&buyCmd{}, "transactions")
	c.Register(&sellCmd{}, "transactions")

	c.Register(&valueCmd{}, "reports")
	c.Register(&returnCmd{}, "reports")
	c.Register(&positionsCmd{}, "reports")
	c.Register(&logCmd{}, "reports")
	c.Register(&summaryCmd{}, "reports")

	c.Register(&verifyCmd{}, "storage")
	c.Register(&convertCmd{}, "storage")
}
