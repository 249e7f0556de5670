package repository

import (
	"bytes"
	"context"
	"errors"
	"fintrack/internal/engine"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileStore keeps one snapshot file per book, <dir>/<name>.json.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *FileStore) Save(_ context.Context, name string, book *engine.Book) error {
	if err := validateName(name); err != nil {
		return err
	}
	data, err := marshalBook(book)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	return writeFileAtomic(s.path(name), func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

func (s *FileStore) Load(_ context.Context, name string, cfg *engine.BookConfig) (*engine.Book, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrBookNotFound, name)
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return unmarshalBook(bytes.TrimSpace(data), cfg)
}

// TabularStore keeps each book as a directory of three tables,
// <dir>/<name>/{transactions.csv,positions.csv,cash.txt}. A Save is not
// crash-atomic across the three files, see EncodeTabular.
type TabularStore struct {
	dir string
}

func NewTabularStore(dir string) *TabularStore {
	return &TabularStore{dir: dir}
}

func (s *TabularStore) Save(_ context.Context, name string, book *engine.Book) error {
	if err := validateName(name); err != nil {
		return err
	}
	return EncodeTabular(filepath.Join(s.dir, name), book.Snapshot())
}

func (s *TabularStore) Load(_ context.Context, name string, cfg *engine.BookConfig) (*engine.Book, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	view, err := DecodeTabular(filepath.Join(s.dir, name))
	if err != nil {
		return nil, err
	}
	return engine.RestoreBook(cfg, view)
}
