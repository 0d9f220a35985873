package core

// Operation identifies a REST call the connector can perform.
// The set is closed: every operation carries its method, path template,
// and visibility as compile-time data in the endpoint table.
type Operation int

// Operation constants define all supported exchange operations.
const (
	// OpListMarkets retrieves all trading pairs.
	OpListMarkets Operation = iota
	// OpListCurrencies retrieves all listed assets.
	OpListCurrencies
	// OpTicker24h retrieves the 24-hour ticker for one market.
	OpTicker24h
	// OpAllTickers24h retrieves 24-hour tickers for every market.
	OpAllTickers24h
	// OpOrderBook retrieves an order book snapshot.
	OpOrderBook
	// OpCandles retrieves OHLCV candlesticks.
	OpCandles
	// OpPublicTrades retrieves the public trade history of a market.
	OpPublicTrades
	// OpAccounts retrieves account balances.
	OpAccounts
	// OpListOrders retrieves orders filtered by state.
	OpListOrders
	// OpListOrdersAll retrieves orders without a state filter.
	OpListOrdersAll
	// OpGetOrder retrieves a single order by its identifier.
	OpGetOrder
	// OpCreateOrder submits a new order.
	OpCreateOrder
	// OpCancelOrder cancels one or more orders.
	OpCancelOrder
	// OpCancelReplace atomically cancels an order and creates another.
	OpCancelReplace
	// OpMyTrades retrieves the account's trade history.
	OpMyTrades
	// OpDepositAddress retrieves a deposit address for a currency.
	OpDepositAddress
	// OpListDeposits retrieves deposit history.
	OpListDeposits
	// OpListWithdrawals retrieves withdrawal history.
	OpListWithdrawals
	// OpCreateWithdrawal submits a withdrawal request.
	OpCreateWithdrawal
)

// String returns the string representation of the operation.
func (o Operation) String() string {
	return [...]string{
		"LIST_MARKETS",
		"LIST_CURRENCIES",
		"TICKER_24H",
		"ALL_TICKERS_24H",
		"ORDER_BOOK",
		"CANDLES",
		"PUBLIC_TRADES",
		"ACCOUNTS",
		"LIST_ORDERS",
		"LIST_ORDERS_ALL",
		"GET_ORDER",
		"CREATE_ORDER",
		"CANCEL_ORDER",
		"CANCEL_REPLACE",
		"MY_TRADES",
		"DEPOSIT_ADDRESS",
		"LIST_DEPOSITS",
		"LIST_WITHDRAWALS",
		"CREATE_WITHDRAWAL",
	}[o]
}
