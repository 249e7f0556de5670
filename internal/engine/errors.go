package engine

import "errors"

// Global error declarations. Operations wrap these with detail, match them with errors.Is.
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrNoSuchPosition     = errors.New("no such position")
	ErrMissingPrice       = errors.New("missing price")
	ErrCorruptState       = errors.New("corrupt state")
)
