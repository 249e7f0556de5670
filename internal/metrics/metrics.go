// Package metrics provides Prometheus instrumentation for books.
package metrics

import (
	"errors"
	"fintrack/internal/engine"
	"fintrack/types"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// Collector records book activity on its own registry. It implements
// engine.Observer.
type Collector struct {
	reg *prometheus.Registry

	// TransactionsTotal counts committed transactions, partitioned by action.
	TransactionsTotal *prometheus.CounterVec

	// TradeAmountTotal sums shares x price of committed transactions.
	TradeAmountTotal *prometheus.CounterVec

	// RejectionsTotal counts rejected operations by operation and reason.
	RejectionsTotal *prometheus.CounterVec

	// CashFlowsTotal sums deposited and withdrawn amounts.
	CashFlowsTotal *prometheus.CounterVec

	// BookValue is the last computed total value.
	BookValue prometheus.Gauge
}

var _ engine.Observer = (*Collector)(nil)

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		reg: reg,
		TransactionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fintrack_transactions_total",
			Help: "Total number of transactions recorded",
		}, []string{"action"}),
		TradeAmountTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fintrack_trade_amount_total",
			Help: "Cumulative traded amount (shares x price)",
		}, []string{"action"}),
		RejectionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fintrack_rejections_total",
			Help: "Operations rejected by the book",
		}, []string{"op", "reason"}),
		CashFlowsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fintrack_cash_flows_total",
			Help: "Cumulative deposited and withdrawn cash",
		}, []string{"kind"}),
		BookValue: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fintrack_book_value",
			Help: "Total value (cash plus market value) at the last valuation",
		}),
	}
}

// Registry exposes the registry, e.g. for promhttp.HandlerFor.
func (c *Collector) Registry() *prometheus.Registry {
	return c.reg
}

// WriteTextfile writes all metrics to path in the text exposition format,
// for the node_exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.reg)
}

func (c *Collector) Recorded(tx types.Transaction) {
	action := string(tx.Action)
	c.TransactionsTotal.WithLabelValues(action).Inc()
	c.TradeAmountTotal.WithLabelValues(action).Add(tx.Amount().InexactFloat64())
}

func (c *Collector) CashFlow(kind engine.CashFlowKind, amount decimal.Decimal) {
	c.CashFlowsTotal.WithLabelValues(string(kind)).Add(amount.InexactFloat64())
}

func (c *Collector) Rejected(op string, err error) {
	c.RejectionsTotal.WithLabelValues(op, Reason(err)).Inc()
}

func (c *Collector) Valued(total decimal.Decimal) {
	c.BookValue.Set(total.InexactFloat64())
}

// Reason maps an engine error to a low-cardinality label value.
func Reason(err error) string {
	switch {
	case errors.Is(err, engine.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, engine.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, engine.ErrInsufficientShares):
		return "insufficient_shares"
	case errors.Is(err, engine.ErrNoSuchPosition):
		return "no_such_position"
	case errors.Is(err, engine.ErrMissingPrice):
		return "missing_price"
	case errors.Is(err, engine.ErrCorruptState):
		return "corrupt_state"
	default:
		return "other"
	}
}
