package repository

import (
	"context"
	"fintrack/internal/engine"
	"fmt"
	"sync"
)

// MemoryStore keeps snapshot encodings in memory. Used for testing and
// development.
type MemoryStore struct {
	mu    sync.RWMutex
	books map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		books: make(map[string][]byte),
	}
}

func (s *MemoryStore) Save(_ context.Context, name string, book *engine.Book) error {
	if err := validateName(name); err != nil {
		return err
	}
	data, err := marshalBook(book)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[name] = data
	return nil
}

func (s *MemoryStore) Load(_ context.Context, name string, cfg *engine.BookConfig) (*engine.Book, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	s.mu.RLock()
	data, ok := s.books[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBookNotFound, name)
	}
	return unmarshalBook(data, cfg)
}
