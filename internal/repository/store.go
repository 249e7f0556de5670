// Package repository persists books. Every store keeps the cash balance, the
// open positions and the full transaction log, and every Load goes through
// engine.RestoreBook so that a log which does not reproduce the stored
// positions is rejected with engine.ErrCorruptState.
package repository

import (
	"context"
	"errors"
	"fintrack/internal/engine"
	"fmt"
	"strings"
)

// SchemaVersion is written by every encoding and checked on decode.
const SchemaVersion = 1

// Global error declarations.
var (
	ErrBookNotFound = errors.New("book not found")
	ErrInvalidName  = errors.New("invalid book name")
)

type Store interface {
	// Save persists the current state of book under name, replacing any
	// previous state.
	Save(ctx context.Context, name string, book *engine.Book) error

	// Load restores the book saved under name. cfg configures the returned
	// book and may be nil.
	Load(ctx context.Context, name string, cfg *engine.BookConfig) (*engine.Book, error)
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
