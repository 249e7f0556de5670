package repository

import (
	"context"
	"errors"
	"fintrack/internal/engine"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedStore wraps a primary Store with a Redis read-through cache of
// snapshot encodings. Writes go to the primary store and invalidate the
// cache; reads check Redis first then fall back to the primary. Redis
// failures are logged and never fail an operation.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
}

// NewCachedStore creates a cached wrapper around a primary store. logger may
// be nil.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
		logger:  logger,
	}
}

func (s *CachedStore) Save(ctx context.Context, name string, book *engine.Book) error {
	if err := s.primary.Save(ctx, name, book); err != nil {
		return err
	}
	// Invalidate cache; next read will re-populate.
	if err := s.rdb.Del(ctx, bookKey(name)).Err(); err != nil {
		s.logger.Warn("cache invalidate failed", "book", name, "error", err)
	}
	return nil
}

func (s *CachedStore) Load(ctx context.Context, name string, cfg *engine.BookConfig) (*engine.Book, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	data, err := s.rdb.Get(ctx, bookKey(name)).Bytes()
	switch {
	case err == nil:
		book, err := unmarshalBook(data, cfg)
		if err == nil {
			s.logger.Debug("cache hit", "book", name)
			return book, nil
		}
		s.logger.Warn("dropping unreadable cache entry", "book", name, "error", err)
		s.rdb.Del(ctx, bookKey(name))
	case errors.Is(err, redis.Nil):
		s.logger.Debug("cache miss", "book", name)
	default:
		s.logger.Warn("cache read failed", "book", name, "error", err)
	}

	// Cache miss: read from primary.
	book, err := s.primary.Load(ctx, name, cfg)
	if err != nil {
		return nil, err
	}
	s.cacheBook(ctx, name, book)
	return book, nil
}

func (s *CachedStore) cacheBook(ctx context.Context, name string, book *engine.Book) {
	data, err := marshalBook(book)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, bookKey(name), data, s.ttl).Err(); err != nil {
		s.logger.Warn("cache write failed", "book", name, "error", err)
	}
}

func bookKey(name string) string { return fmt.Sprintf("fintrack:book:%s", name) }
