package core

import (
	"time"

	"github.com/cockroachdb/apd/v3"
)

// OrderSide represents the direction of an order (buy or sell).
type OrderSide int

// Order side constants define the direction of a trade.
const (
	// SideBuy indicates an order to purchase an asset.
	SideBuy OrderSide = iota
	// SideSell indicates an order to sell an asset.
	SideSell
)

// String returns the canonical lowercase form ("buy" or "sell").
func (s OrderSide) String() string {
	return [...]string{"buy", "sell"}[s]
}

// Wire returns the uppercase form the exchange API expects.
func (s OrderSide) Wire() string {
	return [...]string{"BUY", "SELL"}[s]
}

// MarshalJSON implements json.Marshaler for OrderSide.
func (s OrderSide) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for OrderSide.
// It accepts both uppercase and lowercase forms.
func (s *OrderSide) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"buy"`, `"BUY"`:
		*s = SideBuy
	case `"sell"`, `"SELL"`:
		*s = SideSell
	}
	return nil
}

// OrderType represents the type of order to place on the exchange.
type OrderType int

// Order type constants define how an order is executed.
const (
	// TypeMarket executes immediately at the best available price.
	TypeMarket OrderType = iota
	// TypeLimit executes at a specified price or better.
	TypeLimit
	// TypeStopMarket triggers a market order when price reaches the stop price.
	TypeStopMarket
	// TypeInstant spends a quote-currency amount at the best available price.
	TypeInstant
)

// String returns the canonical lowercase form of the order type.
func (t OrderType) String() string {
	return [...]string{"market", "limit", "stop_market", "instant"}[t]
}

// Wire returns the uppercase form the exchange API expects.
func (t OrderType) Wire() string {
	return [...]string{"MARKET", "LIMIT", "STOP_MARKET", "INSTANT"}[t]
}

// MarshalJSON implements json.Marshaler for OrderType.
func (t OrderType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for OrderType.
// It accepts both uppercase and lowercase forms.
func (t *OrderType) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"market"`, `"MARKET"`:
		*t = TypeMarket
	case `"limit"`, `"LIMIT"`:
		*t = TypeLimit
	case `"stop_market"`, `"STOP_MARKET"`:
		*t = TypeStopMarket
	case `"instant"`, `"INSTANT"`:
		*t = TypeInstant
	}
	return nil
}

// TransactionType distinguishes deposits from withdrawals.
type TransactionType int

const (
	// TransactionDeposit is an inbound transfer to the exchange account.
	TransactionDeposit TransactionType = iota
	// TransactionWithdrawal is an outbound transfer from the exchange account.
	TransactionWithdrawal
)

// String returns the canonical lowercase form ("deposit" or "withdrawal").
func (t TransactionType) String() string {
	return [...]string{"deposit", "withdrawal"}[t]
}

// MarshalJSON implements json.Marshaler for TransactionType.
func (t TransactionType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// Market describes a trading pair listed on the exchange.
// It is an immutable value record produced by normalization.
type Market struct {
	// ID is the exchange-native market symbol (e.g. "btcbrl").
	ID string `json:"id"`
	// Symbol is the canonical pair identifier, always "BASE/QUOTE" uppercase.
	Symbol string `json:"symbol"`
	// Base is the uppercase base currency code.
	Base string `json:"base"`
	// Quote is the uppercase quote currency code.
	Quote string `json:"quote"`
	// PricePrecision is the number of decimal digits in the price increment.
	PricePrecision int32 `json:"price_precision"`
	// AmountPrecision is the number of decimal digits in the quantity increment.
	AmountPrecision int32 `json:"amount_precision"`
	// MinAmount is the smallest order quantity the exchange accepts.
	MinAmount apd.Decimal `json:"min_amount"`
	// MinPrice is the smallest order price the exchange accepts.
	MinPrice apd.Decimal `json:"min_price"`
	// Active reports whether the market is open for trading.
	Active bool `json:"active"`
	// Raw is the original exchange payload, retained for traceability.
	Raw any `json:"raw,omitempty"`
}

// Currency describes an asset listed on the exchange.
type Currency struct {
	// ID is the exchange-native currency symbol (e.g. "btc").
	ID string `json:"id"`
	// Code is the uppercase currency code.
	Code string `json:"code"`
	// Name is the human-readable asset name.
	Name string `json:"name"`
	// Type is the asset class reported by the exchange (e.g. "CRYPTO", "FIAT").
	Type string `json:"type"`
	// Precision is the number of decimal digits the asset supports.
	Precision int32 `json:"precision"`
	// WithdrawFee is the flat withdrawal fee; nil when the exchange reports none.
	WithdrawFee *apd.Decimal `json:"withdraw_fee,omitempty"`
	// MinDeposit is the minimum deposit amount; nil when unreported.
	MinDeposit *apd.Decimal `json:"min_deposit,omitempty"`
	// MinWithdraw is the minimum withdrawal amount; nil when unreported.
	MinWithdraw *apd.Decimal `json:"min_withdraw,omitempty"`
	// WithdrawEnabled reports whether withdrawals are currently allowed.
	WithdrawEnabled bool `json:"withdraw_enabled"`
	// Raw is the original exchange payload.
	Raw any `json:"raw,omitempty"`
}

// PriceVolume is a price paired with the volume available at that price.
type PriceVolume struct {
	Price  apd.Decimal `json:"price"`
	Volume apd.Decimal `json:"volume"`
}

// Ticker is a 24-hour rolling market statistics snapshot.
type Ticker struct {
	// Symbol is the canonical pair identifier.
	Symbol string `json:"symbol"`
	// Timestamp is the time of the most recent trade.
	Timestamp time.Time `json:"timestamp"`
	// Bid is the best buy quote; nil when the book side is empty.
	Bid *PriceVolume `json:"bid,omitempty"`
	// Ask is the best sell quote; nil when the book side is empty.
	Ask *PriceVolume `json:"ask,omitempty"`
	// Last is the price of the most recent trade.
	Last apd.Decimal `json:"last"`
	// Open is the price 24 hours ago.
	Open apd.Decimal `json:"open"`
	// High is the highest price in the last 24 hours.
	High apd.Decimal `json:"high"`
	// Low is the lowest price in the last 24 hours.
	Low apd.Decimal `json:"low"`
	// Change is the absolute price change over 24 hours.
	Change apd.Decimal `json:"change"`
	// ChangePercent is the relative price change over 24 hours.
	ChangePercent apd.Decimal `json:"change_percent"`
	// BaseVolume is the 24-hour traded volume in base currency.
	BaseVolume apd.Decimal `json:"base_volume"`
	// TradesCount is the number of trades in the last 24 hours.
	TradesCount int64 `json:"trades_count"`
	// Raw is the original exchange payload.
	Raw any `json:"raw,omitempty"`
}

// BookLevel is a single price level of the order book.
type BookLevel struct {
	Price  apd.Decimal `json:"price"`
	Amount apd.Decimal `json:"amount"`
}

// OrderBook is a point-in-time snapshot of a market's order book.
// The exchange-supplied ordering is preserved as-is: bids descending
// by price, asks ascending by price.
type OrderBook struct {
	Symbol     string      `json:"symbol"`
	SequenceID int64       `json:"sequence_id"`
	Timestamp  time.Time   `json:"timestamp"`
	Bids       []BookLevel `json:"bids"`
	Asks       []BookLevel `json:"asks"`
}

// Order is the canonical view of an exchange order.
type Order struct {
	// ID is the exchange-assigned order identifier.
	ID string `json:"id"`
	// SN is the exchange-assigned serial number.
	SN string `json:"sn"`
	// ClientOrderID is the client-assigned identifier, if any.
	ClientOrderID string `json:"client_order_id"`
	// Symbol is the canonical pair identifier.
	Symbol string `json:"symbol"`
	// Type is the lowercase order type ("limit", "market", "stop_market", "instant").
	Type string `json:"type"`
	// Side is the lowercase order side ("buy" or "sell").
	Side string `json:"side"`
	// Status is the raw exchange state string, passed through unmapped.
	Status string `json:"status"`
	// Price is the limit price; a zero decimal when the exchange reports null
	// (market orders).
	Price apd.Decimal `json:"price"`
	// AveragePrice is the volume-weighted execution price.
	AveragePrice apd.Decimal `json:"average_price"`
	// Amount is the total order quantity in base currency.
	Amount apd.Decimal `json:"amount"`
	// Filled is the executed quantity in base currency.
	Filled apd.Decimal `json:"filled"`
	// FundsReceived is the quote-currency amount received so far.
	FundsReceived apd.Decimal `json:"funds_received"`
	// TradesCount is the number of fills the order produced.
	TradesCount int64 `json:"trades_count"`
	// Timestamp is when the order was created.
	Timestamp time.Time `json:"timestamp"`
	// Raw is the original exchange payload.
	Raw any `json:"raw,omitempty"`
}

// CancelResult identifies an order affected by a cancel request.
// Cancel endpoints return identifiers only, not full order records.
type CancelResult struct {
	ID string `json:"id"`
	SN string `json:"sn"`
}

// Balance is the account balance for a single currency.
type Balance struct {
	// Currency is the uppercase currency code.
	Currency string `json:"currency"`
	// Free is the balance available for trading.
	Free apd.Decimal `json:"free"`
	// Used is the balance locked in open orders.
	Used apd.Decimal `json:"used"`
	// Total is the sum of free and used.
	Total apd.Decimal `json:"total"`
}

// Trade is a single executed trade.
type Trade struct {
	// ID is the exchange-assigned trade identifier.
	ID string `json:"id"`
	// SN is the exchange-assigned serial number (private trades only).
	SN string `json:"sn,omitempty"`
	// OrderID links the trade to its parent order (private trades only).
	OrderID string `json:"order_id,omitempty"`
	// Symbol is the canonical pair identifier.
	Symbol string `json:"symbol"`
	// Side is the lowercase trade side; taker side for public trades.
	Side string `json:"side"`
	// Price is the execution price.
	Price apd.Decimal `json:"price"`
	// Amount is the executed quantity in base currency.
	Amount apd.Decimal `json:"amount"`
	// Cost is price times amount, in quote currency.
	Cost apd.Decimal `json:"cost"`
	// Fee is the trading fee charged.
	Fee apd.Decimal `json:"fee"`
	// FeeCurrency is the uppercase code of the fee currency.
	FeeCurrency string `json:"fee_currency"`
	// Timestamp is when the trade executed.
	Timestamp time.Time `json:"timestamp"`
	// Raw is the original exchange payload.
	Raw any `json:"raw,omitempty"`
}

// Transaction is a deposit or withdrawal record.
type Transaction struct {
	// SN is the exchange-assigned serial number identifying the transaction.
	SN string `json:"sn"`
	// Type reports whether this is a deposit or a withdrawal.
	Type TransactionType `json:"type"`
	// Amount is the transferred amount net of fees.
	Amount apd.Decimal `json:"amount"`
	// Fee is the fee charged by the exchange.
	Fee apd.Decimal `json:"fee"`
	// Status is the raw exchange state string, passed through unmapped.
	Status string `json:"status"`
	// Currency is the uppercase currency code.
	Currency string `json:"currency"`
	// TxID is the on-chain transaction identifier, when available.
	TxID string `json:"txid,omitempty"`
	// Address is the receiving or destination address; empty for fiat.
	Address string `json:"address,omitempty"`
	// Tag is the destination tag or memo; empty when unused.
	Tag string `json:"tag,omitempty"`
	// Network is the blockchain network code, when reported.
	Network string `json:"network,omitempty"`
	// Timestamp is when the transaction was created.
	Timestamp time.Time `json:"timestamp"`
	// Raw is the original exchange payload.
	Raw any `json:"raw,omitempty"`
}

// DepositAddress is a crypto deposit address for a currency.
type DepositAddress struct {
	Currency    string `json:"currency"`
	Address     string `json:"address"`
	Tag         string `json:"tag,omitempty"`
	NetworkCode string `json:"network_code,omitempty"`
	NetworkName string `json:"network_name,omitempty"`
	Raw         any    `json:"raw,omitempty"`
}

// Candle is a single OHLCV data point.
type Candle struct {
	OpenTime    time.Time   `json:"open_time"`
	Open        apd.Decimal `json:"open"`
	High        apd.Decimal `json:"high"`
	Low         apd.Decimal `json:"low"`
	Close       apd.Decimal `json:"close"`
	CloseTime   time.Time   `json:"close_time"`
	Volume      apd.Decimal `json:"volume"`
	QuoteVolume apd.Decimal `json:"quote_volume"`
	TradesCount int64       `json:"trades_count"`
}
