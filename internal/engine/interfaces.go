package engine

import (
	"fintrack/types"

	"github.com/shopspring/decimal"
)

type CashFlowKind string

const (
	CashFlowDeposit  CashFlowKind = "deposit"
	CashFlowWithdraw CashFlowKind = "withdraw"
)

// Observer is notified after a book operation has committed or been rejected.
// Calls happen outside the book lock.
type Observer interface {
	Recorded(tx types.Transaction)
	CashFlow(kind CashFlowKind, amount decimal.Decimal)
	Rejected(op string, err error)
	Valued(total decimal.Decimal)
}

type nopObserver struct{}

func (nopObserver) Recorded(types.Transaction)            {}
func (nopObserver) CashFlow(CashFlowKind, decimal.Decimal) {}
func (nopObserver) Rejected(string, error)                 {}
func (nopObserver) Valued(decimal.Decimal)                 {}
