// Package config loads the YAML configuration of the fintrack tools.
package config

import "time"

// Store kinds.
const (
	StoreSnapshot = "snapshot"
	StoreTabular  = "tabular"
	StorePostgres = "postgres"
)

// Config is the root configuration.
type Config struct {
	Book    BookConfig    `yaml:"book"`
	Store   StoreConfig   `yaml:"store"`
	Cache   CacheConfig   `yaml:"cache"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// BookConfig selects the book the tools operate on.
type BookConfig struct {
	Name string `yaml:"name"`
}

// StoreConfig selects where books are persisted. Dir is used by the snapshot
// and tabular stores, Database by the postgres store.
type StoreConfig struct {
	Kind     string   `yaml:"kind"`
	Dir      string   `yaml:"dir"`
	Database DBConfig `yaml:"database"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// CacheConfig enables the Redis read-through cache when RedisURL is set.
type CacheConfig struct {
	RedisURL string        `yaml:"redis_url"`
	TTL      time.Duration `yaml:"ttl"`
}

// LogConfig holds slog settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// MetricsConfig holds Prometheus settings. When Textfile is set the tools
// write their metrics there for the node_exporter textfile collector.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}
