package exchange

import (
	"context"

	"github.com/cockroachdb/apd/v3"

	"raposa/pkg/core"
)

// Exchange is the unified trading interface a connector implements.
// Implementations cover market data retrieval, account management,
// order execution, and funding history.
type Exchange interface {
	Name() string
	Version() string
	Close() error

	FetchMarkets(ctx context.Context, opts ...Option) ([]core.Market, error)
	FetchCurrencies(ctx context.Context, opts ...Option) ([]core.Currency, error)
	FetchTicker(ctx context.Context, symbol string, opts ...Option) (*core.Ticker, error)
	FetchTickers(ctx context.Context, opts ...Option) ([]core.Ticker, error)
	FetchOrderBook(ctx context.Context, symbol string, opts ...Option) (*core.OrderBook, error)
	FetchCandles(ctx context.Context, symbol string, opts ...Option) ([]core.Candle, error)
	FetchTrades(ctx context.Context, symbol string, opts ...Option) ([]core.Trade, error)

	FetchBalance(ctx context.Context, opts ...Option) ([]core.Balance, error)

	CreateOrder(ctx context.Context, req *OrderRequest, opts ...Option) (*core.Order, error)
	CancelOrder(ctx context.Context, orderID string, opts ...Option) (*core.Order, error)
	CancelAllOrders(ctx context.Context, symbol string, opts ...Option) ([]core.CancelResult, error)
	EditOrder(ctx context.Context, orderID string, req *OrderRequest, opts ...Option) (*core.Order, error)
	FetchOrder(ctx context.Context, orderID string, opts ...Option) (*core.Order, error)
	FetchOrders(ctx context.Context, symbol string, opts ...Option) ([]core.Order, error)
	FetchOpenOrders(ctx context.Context, symbol string, opts ...Option) ([]core.Order, error)
	FetchClosedOrders(ctx context.Context, symbol string, opts ...Option) ([]core.Order, error)
	FetchMyTrades(ctx context.Context, symbol string, opts ...Option) ([]core.Trade, error)

	FetchDepositAddress(ctx context.Context, currency string, opts ...Option) (*core.DepositAddress, error)
	FetchDeposits(ctx context.Context, opts ...Option) ([]core.Transaction, error)
	FetchWithdrawals(ctx context.Context, opts ...Option) ([]core.Transaction, error)
	FetchTransactions(ctx context.Context, opts ...Option) ([]core.Transaction, error)
	Withdraw(ctx context.Context, req *WithdrawRequest, opts ...Option) (*core.Transaction, error)
}

// OrderRequest contains the parameters required to place a new order.
type OrderRequest struct {
	// Symbol is the canonical pair, e.g. "BTC/BRL".
	Symbol string
	Side   core.OrderSide
	Type   core.OrderType
	// Price is required for limit and stop orders.
	Price apd.Decimal
	// Quantity is the order size in base currency.
	Quantity apd.Decimal
	// Amount is the quote-currency amount for instant orders.
	Amount apd.Decimal
	// StopPrice triggers stop orders.
	StopPrice apd.Decimal
	// ClientOrderID is an optional caller-assigned identifier.
	ClientOrderID string
	// Remark is an optional free-form note attached to the order.
	Remark string
	// PostOnly rejects the order instead of crossing the book.
	PostOnly bool
}

// WithdrawRequest contains the parameters required to request a withdrawal.
type WithdrawRequest struct {
	// Currency is the uppercase currency code, e.g. "BTC".
	Currency string
	Amount   apd.Decimal
	Address  string
	// Tag is the destination tag or memo, when the network uses one.
	Tag string
	// NetworkCode selects the blockchain network.
	NetworkCode string
}
