package foxbit

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/apd/v3"

	"raposa/pkg/core"
)

// flexString decodes JSON fields the API serves inconsistently as
// either strings or numbers (ids, counters). null decodes to "".
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	if len(data) >= 2 && data[0] == '"' {
		var s string
		if err := sonic.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(data)
	return nil
}

func (f flexString) String() string { return string(f) }

type rawCurrency struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Precision   int32  `json:"precision"`
	DepositInfo *struct {
		MinToConfirm flexString `json:"min_to_confirm"`
		MinAmount    flexString `json:"min_amount"`
	} `json:"deposit_info"`
	WithdrawInfo *struct {
		Enabled   bool       `json:"enabled"`
		MinAmount flexString `json:"min_amount"`
		Fee       flexString `json:"fee"`
	} `json:"withdraw_info"`
	Category *struct {
		Code string `json:"code"`
		Name string `json:"name"`
	} `json:"category"`
}

type rawMarket struct {
	Symbol            string      `json:"symbol"`
	QuantityMin       flexString  `json:"quantity_min"`
	QuantityIncrement flexString  `json:"quantity_increment"`
	PriceMin          flexString  `json:"price_min"`
	PriceIncrement    flexString  `json:"price_increment"`
	Base              rawCurrency `json:"base"`
	Quote             rawCurrency `json:"quote"`
}

type rawQuote struct {
	Price  flexString `json:"price"`
	Volume flexString `json:"volume"`
}

type rawTicker struct {
	MarketSymbol string `json:"market_symbol"`
	LastTrade    struct {
		Price  flexString `json:"price"`
		Volume flexString `json:"volume"`
		Date   string     `json:"date"`
	} `json:"last_trade"`
	Rolling24h struct {
		PriceChange        flexString `json:"price_change"`
		PriceChangePercent flexString `json:"price_change_percent"`
		Volume             flexString `json:"volume"`
		TradesCount        flexString `json:"trades_count"`
		Open               flexString `json:"open"`
		High               flexString `json:"high"`
		Low                flexString `json:"low"`
	} `json:"rolling_24h"`
	Best *struct {
		Ask *rawQuote `json:"ask"`
		Bid *rawQuote `json:"bid"`
	} `json:"best"`
}

type rawOrderBook struct {
	SequenceID int64          `json:"sequence_id"`
	Timestamp  int64          `json:"timestamp"`
	Bids       [][]flexString `json:"bids"`
	Asks       [][]flexString `json:"asks"`
}

type rawOrder struct {
	ID               flexString `json:"id"`
	SN               string     `json:"sn"`
	ClientOrderID    flexString `json:"client_order_id"`
	MarketSymbol     string     `json:"market_symbol"`
	Side             string     `json:"side"`
	Type             string     `json:"type"`
	State            string     `json:"state"`
	Price            flexString `json:"price"`
	PriceAvg         flexString `json:"price_avg"`
	Quantity         flexString `json:"quantity"`
	QuantityExecuted flexString `json:"quantity_executed"`
	CreatedAt        string     `json:"created_at"`
	TradesCount      flexString `json:"trades_count"`
	Remark           string     `json:"remark"`
	FundsReceived    flexString `json:"funds_received"`
}

type rawCancelResult struct {
	SN string     `json:"sn"`
	ID flexString `json:"id"`
}

type rawAccount struct {
	CurrencySymbol   string     `json:"currency_symbol"`
	Balance          flexString `json:"balance"`
	BalanceAvailable flexString `json:"balance_available"`
	BalanceLocked    flexString `json:"balance_locked"`
}

type rawTrade struct {
	ID                flexString `json:"id"`
	SN                string     `json:"sn"`
	OrderID           flexString `json:"order_id"`
	MarketSymbol      string     `json:"market_symbol"`
	Side              string     `json:"side"`
	TakerSide         string     `json:"taker_side"`
	Price             flexString `json:"price"`
	Quantity          flexString `json:"quantity"`
	Volume            flexString `json:"volume"`
	Fee               flexString `json:"fee"`
	FeeCurrencySymbol string     `json:"fee_currency_symbol"`
	CreatedAt         string     `json:"created_at"`
}

type rawTransaction struct {
	SN                 string     `json:"sn"`
	State              string     `json:"state"`
	CurrencySymbol     string     `json:"currency_symbol"`
	Amount             flexString `json:"amount"`
	Fee                flexString `json:"fee"`
	CreatedAt          string     `json:"created_at"`
	NetworkCode        string     `json:"network_code"`
	DestinationAddress string     `json:"destination_address"`
	DestinationTag     flexString `json:"destination_tag"`
	DetailsCrypto      *struct {
		TransactionID      string `json:"transaction_id"`
		ReceivingAddress   string `json:"receiving_address"`
		DestinationAddress string `json:"destination_address"`
	} `json:"details_crypto"`
}

type rawDepositAddress struct {
	CurrencySymbol string     `json:"currency_symbol"`
	Address        string     `json:"address"`
	Tag            flexString `json:"tag"`
	Network        *struct {
		Name string `json:"name"`
		Code string `json:"code"`
	} `json:"network"`
}

// Normalizer converts raw API payloads into canonical records. It is
// stateless; every method is pure and safe for concurrent use.
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

var decimalCtx = apd.BaseContext.WithPrecision(38)

// parseDecimal parses an exchange numeric string into dest. Empty or
// absent values produce a zero decimal, never an error.
func parseDecimal(dest *apd.Decimal, s string) error {
	if s == "" {
		dest.SetInt64(0)
		return nil
	}
	if _, _, err := dest.SetString(s); err != nil {
		return fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return nil
}

// parseOptDecimal parses a nullable numeric string, nil for absent.
func parseOptDecimal(s string) (*apd.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	var d apd.Decimal
	if err := parseDecimal(&d, s); err != nil {
		return nil, err
	}
	return &d, nil
}

func parseISOTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func parseCount(s flexString) int64 {
	n, _ := strconv.ParseInt(string(s), 10, 64)
	return n
}

// precisionFromIncrement derives the number of significant decimal
// digits of a step size. Trailing zeros do not count: "0.00010000"
// yields 4.
func precisionFromIncrement(s string) int32 {
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return 0
	}
	frac := strings.TrimRight(s[dot+1:], "0")
	return int32(len(frac))
}

// quoteSuffixes lists quote currencies used to split a concatenated
// market id when no market metadata is at hand. Longest match wins.
var quoteSuffixes = []string{"USDT", "USDC", "BRL", "BTC", "ETH"}

// parseSymbol splits a concatenated market id like "btcbrl" into a
// canonical "BTC/BRL" pair. Unknown quotes fall back to the uppercased
// id, which keeps the record usable for display.
func parseSymbol(marketID string) string {
	id := strings.ToUpper(marketID)
	for _, quote := range quoteSuffixes {
		if len(id) > len(quote) && strings.HasSuffix(id, quote) {
			return id[:len(id)-len(quote)] + "/" + quote
		}
	}
	return id
}

// marketID converts a canonical "BTC/BRL" pair into the exchange's
// concatenated lowercase id "btcbrl".
func marketID(symbol string) string {
	return strings.ToLower(strings.ReplaceAll(symbol, "/", ""))
}

// currencyID converts a canonical currency code into the exchange's
// lowercase id.
func currencyID(code string) string {
	return strings.ToLower(code)
}

func (n *Normalizer) NormalizeMarket(raw rawMarket) (core.Market, error) {
	base := strings.ToUpper(raw.Base.Symbol)
	quote := strings.ToUpper(raw.Quote.Symbol)

	m := core.Market{
		ID:              raw.Symbol,
		Symbol:          base + "/" + quote,
		Base:            base,
		Quote:           quote,
		PricePrecision:  precisionFromIncrement(raw.PriceIncrement.String()),
		AmountPrecision: precisionFromIncrement(raw.QuantityIncrement.String()),
		Active:          true,
		Raw:             raw,
	}
	if err := parseDecimal(&m.MinAmount, raw.QuantityMin.String()); err != nil {
		return core.Market{}, err
	}
	if err := parseDecimal(&m.MinPrice, raw.PriceMin.String()); err != nil {
		return core.Market{}, err
	}
	return m, nil
}

func (n *Normalizer) NormalizeMarkets(raws []rawMarket) ([]core.Market, error) {
	markets := make([]core.Market, 0, len(raws))
	for _, raw := range raws {
		m, err := n.NormalizeMarket(raw)
		if err != nil {
			return nil, err
		}
		markets = append(markets, m)
	}
	return markets, nil
}

func (n *Normalizer) NormalizeCurrency(raw rawCurrency) (core.Currency, error) {
	c := core.Currency{
		ID:        raw.Symbol,
		Code:      strings.ToUpper(raw.Symbol),
		Name:      raw.Name,
		Type:      raw.Type,
		Precision: raw.Precision,
		Raw:       raw,
	}
	var err error
	if raw.WithdrawInfo != nil {
		c.WithdrawEnabled = raw.WithdrawInfo.Enabled
		if c.WithdrawFee, err = parseOptDecimal(raw.WithdrawInfo.Fee.String()); err != nil {
			return core.Currency{}, err
		}
		if c.MinWithdraw, err = parseOptDecimal(raw.WithdrawInfo.MinAmount.String()); err != nil {
			return core.Currency{}, err
		}
	}
	if raw.DepositInfo != nil {
		if c.MinDeposit, err = parseOptDecimal(raw.DepositInfo.MinAmount.String()); err != nil {
			return core.Currency{}, err
		}
	}
	return c, nil
}

func (n *Normalizer) NormalizeCurrencies(raws []rawCurrency) ([]core.Currency, error) {
	currencies := make([]core.Currency, 0, len(raws))
	for _, raw := range raws {
		c, err := n.NormalizeCurrency(raw)
		if err != nil {
			return nil, err
		}
		currencies = append(currencies, c)
	}
	return currencies, nil
}

// NormalizeTicker converts a 24h ticker payload. symbolHint overrides
// symbol synthesis when the caller already knows the canonical pair.
func (n *Normalizer) NormalizeTicker(raw rawTicker, symbolHint string) (*core.Ticker, error) {
	symbol := symbolHint
	if symbol == "" {
		symbol = parseSymbol(raw.MarketSymbol)
	}

	t := &core.Ticker{
		Symbol:      symbol,
		Timestamp:   parseISOTime(raw.LastTrade.Date),
		TradesCount: parseCount(raw.Rolling24h.TradesCount),
		Raw:         raw,
	}

	for _, p := range []struct {
		dest *apd.Decimal
		src  flexString
	}{
		{&t.Last, raw.LastTrade.Price},
		{&t.Open, raw.Rolling24h.Open},
		{&t.High, raw.Rolling24h.High},
		{&t.Low, raw.Rolling24h.Low},
		{&t.Change, raw.Rolling24h.PriceChange},
		{&t.ChangePercent, raw.Rolling24h.PriceChangePercent},
		{&t.BaseVolume, raw.Rolling24h.Volume},
	} {
		if err := parseDecimal(p.dest, p.src.String()); err != nil {
			return nil, err
		}
	}

	if raw.Best != nil {
		var err error
		if t.Bid, err = normalizeQuote(raw.Best.Bid); err != nil {
			return nil, err
		}
		if t.Ask, err = normalizeQuote(raw.Best.Ask); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func normalizeQuote(raw *rawQuote) (*core.PriceVolume, error) {
	if raw == nil {
		return nil, nil
	}
	pv := &core.PriceVolume{}
	if err := parseDecimal(&pv.Price, raw.Price.String()); err != nil {
		return nil, err
	}
	if err := parseDecimal(&pv.Volume, raw.Volume.String()); err != nil {
		return nil, err
	}
	return pv, nil
}

func (n *Normalizer) NormalizeTickers(raws []rawTicker) ([]core.Ticker, error) {
	tickers := make([]core.Ticker, 0, len(raws))
	for _, raw := range raws {
		t, err := n.NormalizeTicker(raw, "")
		if err != nil {
			return nil, err
		}
		tickers = append(tickers, *t)
	}
	return tickers, nil
}

// NormalizeOrderBook converts a depth snapshot. Level ordering is
// preserved exactly as received.
func (n *Normalizer) NormalizeOrderBook(raw rawOrderBook, symbol string) (*core.OrderBook, error) {
	bids, err := normalizeLevels(raw.Bids)
	if err != nil {
		return nil, err
	}
	asks, err := normalizeLevels(raw.Asks)
	if err != nil {
		return nil, err
	}
	return &core.OrderBook{
		Symbol:     symbol,
		SequenceID: raw.SequenceID,
		Timestamp:  time.UnixMilli(raw.Timestamp).UTC(),
		Bids:       bids,
		Asks:       asks,
	}, nil
}

func normalizeLevels(raws [][]flexString) ([]core.BookLevel, error) {
	levels := make([]core.BookLevel, 0, len(raws))
	for _, raw := range raws {
		if len(raw) < 2 {
			return nil, fmt.Errorf("malformed book level: %v", raw)
		}
		var level core.BookLevel
		if err := parseDecimal(&level.Price, raw[0].String()); err != nil {
			return nil, err
		}
		if err := parseDecimal(&level.Amount, raw[1].String()); err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}
	return levels, nil
}

// NormalizeOrder converts an order payload. The total amount is the
// remaining quantity plus the executed quantity, the way the API
// reports partially filled orders.
func (n *Normalizer) NormalizeOrder(raw rawOrder, symbolHint string) (*core.Order, error) {
	symbol := symbolHint
	if symbol == "" && raw.MarketSymbol != "" {
		symbol = parseSymbol(raw.MarketSymbol)
	}

	o := &core.Order{
		ID:            raw.ID.String(),
		SN:            raw.SN,
		ClientOrderID: raw.ClientOrderID.String(),
		Symbol:        symbol,
		Type:          strings.ToLower(raw.Type),
		Side:          strings.ToLower(raw.Side),
		Status:        raw.State,
		TradesCount:   parseCount(raw.TradesCount),
		Timestamp:     parseISOTime(raw.CreatedAt),
		Raw:           raw,
	}

	var remaining, filled apd.Decimal
	if err := parseDecimal(&remaining, raw.Quantity.String()); err != nil {
		return nil, err
	}
	if err := parseDecimal(&filled, raw.QuantityExecuted.String()); err != nil {
		return nil, err
	}
	o.Filled = filled
	if _, err := decimalCtx.Add(&o.Amount, &remaining, &filled); err != nil {
		return nil, err
	}

	if err := parseDecimal(&o.Price, raw.Price.String()); err != nil {
		return nil, err
	}
	if err := parseDecimal(&o.AveragePrice, raw.PriceAvg.String()); err != nil {
		return nil, err
	}
	if err := parseDecimal(&o.FundsReceived, raw.FundsReceived.String()); err != nil {
		return nil, err
	}
	return o, nil
}

func (n *Normalizer) NormalizeOrders(raws []rawOrder, symbolHint string) ([]core.Order, error) {
	orders := make([]core.Order, 0, len(raws))
	for _, raw := range raws {
		o, err := n.NormalizeOrder(raw, symbolHint)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, nil
}

func (n *Normalizer) NormalizeCancelResults(raws []rawCancelResult) []core.CancelResult {
	results := make([]core.CancelResult, 0, len(raws))
	for _, raw := range raws {
		results = append(results, core.CancelResult{ID: raw.ID.String(), SN: raw.SN})
	}
	return results
}

// NormalizeBalances converts account records. A missing balance_locked
// defaults the used amount to zero.
func (n *Normalizer) NormalizeBalances(raws []rawAccount) ([]core.Balance, error) {
	balances := make([]core.Balance, 0, len(raws))
	for _, raw := range raws {
		b := core.Balance{
			Currency: strings.ToUpper(raw.CurrencySymbol),
		}
		if err := parseDecimal(&b.Free, raw.BalanceAvailable.String()); err != nil {
			return nil, err
		}
		if err := parseDecimal(&b.Used, raw.BalanceLocked.String()); err != nil {
			return nil, err
		}
		if err := parseDecimal(&b.Total, raw.Balance.String()); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, nil
}

// NormalizeTrade converts a trade payload. Public trades report their
// size as volume and their side as taker_side; private trades use
// quantity and side.
func (n *Normalizer) NormalizeTrade(raw rawTrade, symbolHint string) (*core.Trade, error) {
	symbol := symbolHint
	if symbol == "" && raw.MarketSymbol != "" {
		symbol = parseSymbol(raw.MarketSymbol)
	}

	side := raw.TakerSide
	if side == "" {
		side = raw.Side
	}

	t := &core.Trade{
		ID:          raw.ID.String(),
		SN:          raw.SN,
		OrderID:     raw.OrderID.String(),
		Symbol:      symbol,
		Side:        strings.ToLower(side),
		FeeCurrency: strings.ToUpper(raw.FeeCurrencySymbol),
		Timestamp:   parseISOTime(raw.CreatedAt),
		Raw:         raw,
	}

	amountStr := raw.Volume.String()
	if amountStr == "" {
		amountStr = raw.Quantity.String()
	}
	if err := parseDecimal(&t.Amount, amountStr); err != nil {
		return nil, err
	}
	if err := parseDecimal(&t.Price, raw.Price.String()); err != nil {
		return nil, err
	}
	if err := parseDecimal(&t.Fee, raw.Fee.String()); err != nil {
		return nil, err
	}
	if _, err := decimalCtx.Mul(&t.Cost, &t.Price, &t.Amount); err != nil {
		return nil, err
	}
	return t, nil
}

func (n *Normalizer) NormalizeTrades(raws []rawTrade, symbolHint string) ([]core.Trade, error) {
	trades := make([]core.Trade, 0, len(raws))
	for _, raw := range raws {
		t, err := n.NormalizeTrade(raw, symbolHint)
		if err != nil {
			return nil, err
		}
		trades = append(trades, *t)
	}
	return trades, nil
}

// NormalizeTransaction converts a deposit or withdrawal record. The
// direction comes from the serial number prefix ('W' marks
// withdrawals); fallback covers payloads without one. The amount is
// reported net of the fee.
func (n *Normalizer) NormalizeTransaction(raw rawTransaction, fallback core.TransactionType) (*core.Transaction, error) {
	txType := fallback
	if raw.SN != "" {
		if strings.HasPrefix(raw.SN, "W") {
			txType = core.TransactionWithdrawal
		} else {
			txType = core.TransactionDeposit
		}
	}

	tx := &core.Transaction{
		SN:        raw.SN,
		Type:      txType,
		Status:    raw.State,
		Currency:  strings.ToUpper(raw.CurrencySymbol),
		Address:   raw.DestinationAddress,
		Tag:       raw.DestinationTag.String(),
		Network:   raw.NetworkCode,
		Timestamp: parseISOTime(raw.CreatedAt),
		Raw:       raw,
	}
	if raw.DetailsCrypto != nil {
		tx.TxID = raw.DetailsCrypto.TransactionID
		if raw.DetailsCrypto.ReceivingAddress != "" {
			tx.Address = raw.DetailsCrypto.ReceivingAddress
		} else if raw.DetailsCrypto.DestinationAddress != "" {
			tx.Address = raw.DetailsCrypto.DestinationAddress
		}
	}

	var gross apd.Decimal
	if err := parseDecimal(&gross, raw.Amount.String()); err != nil {
		return nil, err
	}
	if err := parseDecimal(&tx.Fee, raw.Fee.String()); err != nil {
		return nil, err
	}
	if _, err := decimalCtx.Sub(&tx.Amount, &gross, &tx.Fee); err != nil {
		return nil, err
	}
	return tx, nil
}

func (n *Normalizer) NormalizeTransactions(raws []rawTransaction, fallback core.TransactionType) ([]core.Transaction, error) {
	txs := make([]core.Transaction, 0, len(raws))
	for _, raw := range raws {
		tx, err := n.NormalizeTransaction(raw, fallback)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *tx)
	}
	return txs, nil
}

func (n *Normalizer) NormalizeDepositAddress(raw rawDepositAddress, currency string) *core.DepositAddress {
	addr := &core.DepositAddress{
		Currency: strings.ToUpper(currency),
		Address:  raw.Address,
		Tag:      raw.Tag.String(),
		Raw:      raw,
	}
	if addr.Currency == "" {
		addr.Currency = strings.ToUpper(raw.CurrencySymbol)
	}
	if raw.Network != nil {
		addr.NetworkCode = strings.ToUpper(raw.Network.Code)
		addr.NetworkName = raw.Network.Name
	}
	return addr
}

// NormalizeCandle converts one candlestick array: open time, OHLC,
// close time, base volume, quote volume, trade count.
func (n *Normalizer) NormalizeCandle(raw []flexString) (core.Candle, error) {
	if len(raw) < 9 {
		return core.Candle{}, fmt.Errorf("malformed candle: %d fields", len(raw))
	}

	openMs, err := strconv.ParseInt(raw[0].String(), 10, 64)
	if err != nil {
		return core.Candle{}, fmt.Errorf("parse candle open time: %w", err)
	}
	closeMs, err := strconv.ParseInt(raw[5].String(), 10, 64)
	if err != nil {
		return core.Candle{}, fmt.Errorf("parse candle close time: %w", err)
	}

	c := core.Candle{
		OpenTime:    time.UnixMilli(openMs).UTC(),
		CloseTime:   time.UnixMilli(closeMs).UTC(),
		TradesCount: parseCount(raw[8]),
	}
	for _, p := range []struct {
		dest *apd.Decimal
		src  flexString
	}{
		{&c.Open, raw[1]},
		{&c.High, raw[2]},
		{&c.Low, raw[3]},
		{&c.Close, raw[4]},
		{&c.Volume, raw[6]},
		{&c.QuoteVolume, raw[7]},
	} {
		if err := parseDecimal(p.dest, p.src.String()); err != nil {
			return core.Candle{}, err
		}
	}
	return c, nil
}

func (n *Normalizer) NormalizeCandles(raws [][]flexString) ([]core.Candle, error) {
	candles := make([]core.Candle, 0, len(raws))
	for _, raw := range raws {
		c, err := n.NormalizeCandle(raw)
		if err != nil {
			return nil, err
		}
		candles = append(candles, c)
	}
	return candles, nil
}
