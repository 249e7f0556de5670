package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultBookName  = "default"
	DefaultStoreKind = StoreSnapshot
	DefaultStoreDir  = "data"
	DefaultDBPort    = 5432
	DefaultDBSSLMode = "prefer"
	DefaultMaxConns  = 4
	DefaultCacheTTL  = 30 * time.Second
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Book.Name == "" {
		c.Book.Name = DefaultBookName
	}

	if c.Store.Kind == "" {
		c.Store.Kind = DefaultStoreKind
	}
	if c.Store.Dir == "" && c.Store.Kind != StorePostgres {
		c.Store.Dir = DefaultStoreDir
	}
	if c.Store.Kind == StorePostgres {
		applyDBDefaults(&c.Store.Database)
	}

	if c.Cache.RedisURL != "" && c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultCacheTTL
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
}
