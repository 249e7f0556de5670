package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Book.Name == "" {
		return errors.New("book.name is required")
	}
	if strings.ContainsAny(c.Book.Name, `/\`) {
		return fmt.Errorf("book.name must not contain path separators, got %q", c.Book.Name)
	}

	switch c.Store.Kind {
	case StoreSnapshot, StoreTabular:
		if c.Store.Dir == "" {
			return fmt.Errorf("store.dir is required for %s store", c.Store.Kind)
		}
	case StorePostgres:
		if err := c.Store.Database.validate("store.database"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("store.kind must be one of %s, %s, %s, got %q", StoreSnapshot, StoreTabular, StorePostgres, c.Store.Kind)
	}

	if c.Cache.RedisURL != "" && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %v", c.Cache.TTL)
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Port < 1 || db.Port > 65535 {
		return fmt.Errorf("%s.port must be between 1 and 65535, got %d", prefix, db.Port)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) must be <= max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
