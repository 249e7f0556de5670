package types

import (
	"fmt"
	"strings"
)

type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

func (a Action) Valid() bool {
	return a == ActionBuy || a == ActionSell
}

// ParseAction accepts the action names case-insensitively ("buy", "Sell", ...).
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToUpper(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("unknown action %q", s)
	}
	return a, nil
}
