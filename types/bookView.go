package types

import (
	"github.com/shopspring/decimal"
)

// BookView is a detached copy of a book's state. Positions are sorted by
// symbol, transactions are in ledger order.
type BookView struct {
	Cash         decimal.Decimal
	Positions    []Position
	Transactions []Transaction
}
