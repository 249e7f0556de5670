package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is a single recorded trade. It is never modified once it is
// part of a ledger.
type Transaction struct {
	ID        uuid.UUID
	Timestamp time.Time
	Symbol    string
	Action    Action
	Shares    int64
	Price     decimal.Decimal
}

func NewTransaction(
	timestamp time.Time,
	symbol string,
	action Action,
	shares int64,
	price decimal.Decimal,
) Transaction {
	return Transaction{
		ID:        uuid.New(),
		Timestamp: timestamp,
		Symbol:    symbol,
		Action:    action,
		Shares:    shares,
		Price:     price,
	}
}

// Amount is the cash moved by the transaction, shares x price.
func (t Transaction) Amount() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Shares))
}
