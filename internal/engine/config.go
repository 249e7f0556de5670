package engine

import (
	"log/slog"
)

type BookConfig struct {
	logger   *slog.Logger
	observer Observer
}

// NewBookConfig builds the configuration of a book. Both arguments may be nil.
func NewBookConfig(logger *slog.Logger, observer Observer) *BookConfig {
	return &BookConfig{
		logger:   logger,
		observer: observer,
	}
}

func (c *BookConfig) resolve() (*slog.Logger, Observer) {
	logger, observer := slog.Default(), Observer(nopObserver{})
	if c == nil {
		return logger, observer
	}
	if c.logger != nil {
		logger = c.logger
	}
	if c.observer != nil {
		observer = c.observer
	}
	return logger, observer
}
