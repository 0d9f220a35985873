package foxbit

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"raposa/internal/circuitbreaker"
	httpClient "raposa/internal/http"
	"raposa/internal/keyring"
	"raposa/internal/ratelimit"
	"raposa/pkg/core"
	"raposa/pkg/exchange"
)

// Pagination and depth defaults matching the API's documented caps.
const (
	defaultPageSize = 50
	maxPageSize     = 100
	defaultDepth    = 20
	defaultInterval = "1h"
	defaultLimit    = 100
	maxCandleLimit  = 500
)

// timeLayout is the ISO 8601 millisecond form the API expects for
// history window bounds.
const timeLayout = "2006-01-02T15:04:05.000Z"

// FoxbitExchange implements the Exchange interface against the Foxbit
// REST v3 API. Every operation is one synchronous round trip; order
// creation, cancellation, and replacement re-fetch the affected order
// because those endpoints return identifiers only.
type FoxbitExchange struct {
	config         *core.Config
	keyRing        *keyring.KeyRing
	httpClient     *httpClient.Client
	rateLimiter    *ratelimit.Limiter
	circuitBreaker *circuitbreaker.Breaker
	logger         zerolog.Logger
	normalizer     *Normalizer
	protocol       *Protocol
}

// Option is a functional option for configuring the FoxbitExchange.
type Option func(*Options)

// Options holds construction options for the FoxbitExchange.
type Options struct {
	KeyRing *keyring.KeyRing
	Logger  zerolog.Logger
}

// WithKeyRing returns an option that sets the API key ring for key rotation.
func WithKeyRing(kr *keyring.KeyRing) Option {
	return func(o *Options) {
		o.KeyRing = kr
	}
}

// WithLogger returns an option that sets the logger for the exchange.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// New creates a FoxbitExchange with the given configuration and
// options. It wires the HTTP client, rate limiter, and circuit breaker
// from the config.
func New(config *core.Config, opts ...Option) (*FoxbitExchange, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	options := &Options{
		Logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(options)
	}

	client, err := httpClient.NewClient(&httpClient.Config{
		BaseURL:      config.BaseURL(),
		Timeout:      config.Timeout,
		MaxRetries:   config.MaxRetries,
		RetryWaitMin: config.RetryWaitMin,
		RetryWaitMax: config.RetryWaitMax,
	}, options.Logger)
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	var rl *ratelimit.Limiter
	if config.RateLimitRequests > 0 {
		rl = ratelimit.New(config.RateLimitRequests, config.RateLimitPeriod)
	}

	var cb *circuitbreaker.Breaker
	if config.CircuitBreakerEnabled {
		cb = circuitbreaker.New(circuitbreaker.Config{
			FailThreshold:    config.CircuitBreakerFailThreshold,
			SuccessThreshold: config.CircuitBreakerSuccessThreshold,
			Timeout:          config.CircuitBreakerTimeout,
		})
	}

	return &FoxbitExchange{
		config:         config,
		keyRing:        options.KeyRing,
		httpClient:     client,
		rateLimiter:    rl,
		circuitBreaker: cb,
		logger:         options.Logger,
		normalizer:     NewNormalizer(),
		protocol:       NewProtocol(config.PathPrefix()),
	}, nil
}

// Name returns the exchange identifier "foxbit".
func (e *FoxbitExchange) Name() string {
	return "foxbit"
}

// Version returns the REST API version.
func (e *FoxbitExchange) Version() string {
	return e.config.Version
}

// Close releases resources used by the exchange, including the HTTP client.
func (e *FoxbitExchange) Close() error {
	if e.httpClient != nil {
		return e.httpClient.Close()
	}
	return nil
}

// call performs one complete round trip: build, sign when required,
// transmit, and parse.
func (e *FoxbitExchange) call(ctx context.Context, op core.Operation, params core.Params) (any, error) {
	req, err := e.protocol.BuildRequest(ctx, op, params)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	if req.RequireAuth {
		if err := e.sign(req); err != nil {
			return nil, err
		}
	}

	if e.rateLimiter != nil {
		if err := e.rateLimiter.WaitN(ctx, req.Weight); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	if e.circuitBreaker != nil && !e.circuitBreaker.Allow() {
		return nil, fmt.Errorf("circuit breaker open")
	}

	resp, err := e.httpClient.Do(ctx, req.Method, req.FullPath(), req.Body, req.Headers)

	if e.circuitBreaker != nil {
		upstreamOK := err == nil && resp.StatusCode() < 500
		e.circuitBreaker.Record(upstreamOK)
	}
	if err != nil {
		if e.keyRing != nil && req.RequireAuth {
			e.keyRing.OnError()
		}
		return nil, core.NewExchangeError(e.Name(), core.ErrorTypeNetwork, 0, err.Error())
	}

	result, err := e.protocol.ParseResponse(op, resp.StatusCode(), resp.Bytes())
	if err != nil {
		if e.keyRing != nil && core.IsAuthenticationError(err) {
			e.keyRing.OnError()
		}
		return nil, err
	}
	return result, nil
}

func (e *FoxbitExchange) sign(req *core.Request) error {
	var creds core.Credentials
	switch {
	case e.keyRing != nil:
		key := e.keyRing.Current()
		if key == nil {
			return core.ErrNoAPIKey
		}
		creds = core.Credentials{APIKey: key.Key, SecretKey: key.Secret}
		e.keyRing.MarkUsed()
	case e.config.HasCredentials():
		creds = *e.config.Credentials
	default:
		return core.ErrNoCredentials
	}

	if err := e.protocol.SignRequest(req, creds); err != nil {
		return fmt.Errorf("sign request: %w", err)
	}
	return nil
}

// timeWindow adds the optional start_time and end_time bounds set via
// WithTimeRange. Unset bounds stay out of the query entirely.
func timeWindow(params core.Params, opts *exchange.Options) {
	if !opts.StartTime.IsZero() {
		params["start_time"] = opts.StartTime.UTC().Format(timeLayout)
	}
	if !opts.EndTime.IsZero() {
		params["end_time"] = opts.EndTime.UTC().Format(timeLayout)
	}
}

func pageSize(opts *exchange.Options) int {
	size := opts.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return size
}

// FetchMarkets retrieves every trading pair listed on the exchange.
func (e *FoxbitExchange) FetchMarkets(ctx context.Context, opts ...exchange.Option) ([]core.Market, error) {
	result, err := e.call(ctx, core.OpListMarkets, nil)
	if err != nil {
		return nil, err
	}

	markets, ok := result.([]core.Market)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	return markets, nil
}

// FetchCurrencies retrieves every asset listed on the exchange.
func (e *FoxbitExchange) FetchCurrencies(ctx context.Context, opts ...exchange.Option) ([]core.Currency, error) {
	result, err := e.call(ctx, core.OpListCurrencies, nil)
	if err != nil {
		return nil, err
	}

	currencies, ok := result.([]core.Currency)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	return currencies, nil
}

// FetchTicker retrieves the 24-hour ticker for one market.
func (e *FoxbitExchange) FetchTicker(ctx context.Context, symbol string, opts ...exchange.Option) (*core.Ticker, error) {
	result, err := e.call(ctx, core.OpTicker24h, core.Params{
		"market_symbol": marketID(symbol),
	})
	if err != nil {
		return nil, err
	}

	ticker, ok := result.(*core.Ticker)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	ticker.Symbol = symbol
	return ticker, nil
}

// FetchTickers retrieves 24-hour tickers for every market. Markets are
// fetched first so each ticker carries its exact canonical symbol.
func (e *FoxbitExchange) FetchTickers(ctx context.Context, opts ...exchange.Option) ([]core.Ticker, error) {
	markets, err := e.FetchMarkets(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch markets: %w", err)
	}
	symbolsByID := make(map[string]string, len(markets))
	for _, m := range markets {
		symbolsByID[m.ID] = m.Symbol
	}

	result, err := e.call(ctx, core.OpAllTickers24h, nil)
	if err != nil {
		return nil, err
	}

	tickers, ok := result.([]core.Ticker)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	for i := range tickers {
		raw, isRaw := tickers[i].Raw.(rawTicker)
		if !isRaw {
			continue
		}
		if symbol, found := symbolsByID[raw.MarketSymbol]; found {
			tickers[i].Symbol = symbol
		}
	}
	return tickers, nil
}

// FetchOrderBook retrieves an order book snapshot for the symbol.
func (e *FoxbitExchange) FetchOrderBook(ctx context.Context, symbol string, opts ...exchange.Option) (*core.OrderBook, error) {
	options := exchange.ApplyOptions(opts...)

	depth := options.Depth
	if depth <= 0 {
		depth = defaultDepth
	}

	result, err := e.call(ctx, core.OpOrderBook, core.Params{
		"market_symbol": marketID(symbol),
		"depth":         depth,
	})
	if err != nil {
		return nil, err
	}

	book, ok := result.(*core.OrderBook)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	book.Symbol = symbol
	return book, nil
}

// FetchCandles retrieves OHLCV candlesticks for the symbol.
func (e *FoxbitExchange) FetchCandles(ctx context.Context, symbol string, opts ...exchange.Option) ([]core.Candle, error) {
	options := exchange.ApplyOptions(opts...)

	interval := options.Interval
	if interval == "" {
		interval = defaultInterval
	}
	limit := options.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxCandleLimit {
		limit = maxCandleLimit
	}

	result, err := e.call(ctx, core.OpCandles, core.Params{
		"market_symbol": marketID(symbol),
		"interval":      interval,
		"limit":         limit,
	})
	if err != nil {
		return nil, err
	}

	candles, ok := result.([]core.Candle)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	return candles, nil
}

// FetchTrades retrieves the public trade history of the symbol.
func (e *FoxbitExchange) FetchTrades(ctx context.Context, symbol string, opts ...exchange.Option) ([]core.Trade, error) {
	options := exchange.ApplyOptions(opts...)

	result, err := e.call(ctx, core.OpPublicTrades, core.Params{
		"market_symbol": marketID(symbol),
		"page_size":     pageSize(options),
	})
	if err != nil {
		return nil, err
	}

	trades, ok := result.([]core.Trade)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	for i := range trades {
		trades[i].Symbol = symbol
	}
	return trades, nil
}

// FetchBalance retrieves account balances for all currencies.
func (e *FoxbitExchange) FetchBalance(ctx context.Context, opts ...exchange.Option) ([]core.Balance, error) {
	result, err := e.call(ctx, core.OpAccounts, nil)
	if err != nil {
		return nil, err
	}

	balances, ok := result.([]core.Balance)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	return balances, nil
}

// orderParams converts an order request into wire parameters. Which
// size fields apply depends on the order type: limit and market orders
// take a base quantity, stop orders add a trigger price, and instant
// orders spend a quote amount.
func orderParams(req *exchange.OrderRequest) core.Params {
	params := core.Params{
		"market_symbol": marketID(req.Symbol),
		"side":          req.Side.Wire(),
		"type":          req.Type.Wire(),
	}

	switch req.Type {
	case core.TypeLimit:
		params["quantity"] = req.Quantity.String()
		params["price"] = req.Price.String()
	case core.TypeMarket:
		params["quantity"] = req.Quantity.String()
	case core.TypeStopMarket:
		params["quantity"] = req.Quantity.String()
		params["stop_price"] = req.StopPrice.String()
	case core.TypeInstant:
		params["amount"] = req.Amount.String()
	}

	if req.ClientOrderID != "" {
		params["client_order_id"] = req.ClientOrderID
	}
	if req.Remark != "" {
		params["remark"] = req.Remark
	}
	if req.PostOnly {
		params["post_only"] = true
	}
	return params
}

// CreateOrder submits a new order and re-fetches it by the returned
// id, since the create endpoint only returns identifiers.
func (e *FoxbitExchange) CreateOrder(ctx context.Context, req *exchange.OrderRequest, opts ...exchange.Option) (*core.Order, error) {
	result, err := e.call(ctx, core.OpCreateOrder, orderParams(req))
	if err != nil {
		return nil, err
	}

	created, ok := result.(*core.Order)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}

	order, err := e.FetchOrder(ctx, created.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch created order %s: %w", created.ID, err)
	}
	order.Symbol = req.Symbol
	return order, nil
}

// CancelOrder cancels one order by id and re-fetches it, since the
// cancel endpoint returns identifiers only.
func (e *FoxbitExchange) CancelOrder(ctx context.Context, orderID string, opts ...exchange.Option) (*core.Order, error) {
	result, err := e.call(ctx, core.OpCancelOrder, core.Params{
		"id":          orderID,
		"cancel_type": "ID",
	})
	if err != nil {
		return nil, err
	}

	results, ok := result.([]core.CancelResult)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	if len(results) == 0 {
		return nil, core.NewExchangeError(e.Name(), core.ErrorTypeOrderNotFound, 0,
			fmt.Sprintf("order %s not found", orderID))
	}

	return e.FetchOrder(ctx, results[0].ID)
}

// CancelAllOrders cancels every open order, or every open order of one
// market when symbol is non-empty. It returns the affected identifiers.
func (e *FoxbitExchange) CancelAllOrders(ctx context.Context, symbol string, opts ...exchange.Option) ([]core.CancelResult, error) {
	params := core.Params{"cancel_type": "ALL"}
	if symbol != "" {
		params["cancel_type"] = "MARKET"
		params["market_symbol"] = marketID(symbol)
	}

	result, err := e.call(ctx, core.OpCancelOrder, params)
	if err != nil {
		return nil, err
	}

	results, ok := result.([]core.CancelResult)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	return results, nil
}

// EditOrder atomically cancels an order and creates a replacement,
// then fetches the replacement.
func (e *FoxbitExchange) EditOrder(ctx context.Context, orderID string, req *exchange.OrderRequest, opts ...exchange.Option) (*core.Order, error) {
	params := orderParams(req)
	params["cancel_id"] = orderID

	result, err := e.call(ctx, core.OpCancelReplace, params)
	if err != nil {
		return nil, err
	}

	created, ok := result.(*core.Order)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}

	order, err := e.FetchOrder(ctx, created.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch replacement order %s: %w", created.ID, err)
	}
	order.Symbol = req.Symbol
	return order, nil
}

// FetchOrder retrieves a single order by its exchange id.
func (e *FoxbitExchange) FetchOrder(ctx context.Context, orderID string, opts ...exchange.Option) (*core.Order, error) {
	result, err := e.call(ctx, core.OpGetOrder, core.Params{"order_id": orderID})
	if err != nil {
		return nil, err
	}

	order, ok := result.(*core.Order)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	return order, nil
}

// FetchOrders retrieves orders of one market, optionally filtered by
// state via WithState.
func (e *FoxbitExchange) FetchOrders(ctx context.Context, symbol string, opts ...exchange.Option) ([]core.Order, error) {
	options := exchange.ApplyOptions(opts...)

	op := core.OpListOrdersAll
	params := core.Params{
		"market_symbol": marketID(symbol),
		"page_size":     pageSize(options),
	}
	if options.State != "" {
		op = core.OpListOrders
		params["state"] = options.State
	}

	result, err := e.call(ctx, op, params)
	if err != nil {
		return nil, err
	}

	orders, ok := result.([]core.Order)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	for i := range orders {
		orders[i].Symbol = symbol
	}
	return orders, nil
}

// FetchOpenOrders retrieves the market's orders still on the book.
func (e *FoxbitExchange) FetchOpenOrders(ctx context.Context, symbol string, opts ...exchange.Option) ([]core.Order, error) {
	return e.FetchOrders(ctx, symbol, append(opts, exchange.WithState("ACTIVE"))...)
}

// FetchClosedOrders retrieves the market's fully executed orders.
func (e *FoxbitExchange) FetchClosedOrders(ctx context.Context, symbol string, opts ...exchange.Option) ([]core.Order, error) {
	return e.FetchOrders(ctx, symbol, append(opts, exchange.WithState("FILLED"))...)
}

// FetchMyTrades retrieves the account's trade history for one market.
func (e *FoxbitExchange) FetchMyTrades(ctx context.Context, symbol string, opts ...exchange.Option) ([]core.Trade, error) {
	options := exchange.ApplyOptions(opts...)

	result, err := e.call(ctx, core.OpMyTrades, core.Params{
		"market_symbol": marketID(symbol),
		"page_size":     pageSize(options),
	})
	if err != nil {
		return nil, err
	}

	trades, ok := result.([]core.Trade)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	for i := range trades {
		trades[i].Symbol = symbol
	}
	return trades, nil
}

// FetchDepositAddress retrieves a deposit address for the currency.
// WithNetworkCode selects the blockchain network for multi-network
// assets; without it the exchange picks its default network.
func (e *FoxbitExchange) FetchDepositAddress(ctx context.Context, currency string, opts ...exchange.Option) (*core.DepositAddress, error) {
	options := exchange.ApplyOptions(opts...)

	params := core.Params{"currency_symbol": currencyID(currency)}
	if options.NetworkCode != "" {
		params["network_code"] = options.NetworkCode
	}

	result, err := e.call(ctx, core.OpDepositAddress, params)
	if err != nil {
		return nil, err
	}

	addr, ok := result.(*core.DepositAddress)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	if addr.Currency == "" {
		addr.Currency = currency
	}
	return addr, nil
}

// FetchDeposits retrieves the account's deposit history, optionally
// bounded via WithTimeRange.
func (e *FoxbitExchange) FetchDeposits(ctx context.Context, opts ...exchange.Option) ([]core.Transaction, error) {
	options := exchange.ApplyOptions(opts...)

	params := core.Params{"page_size": pageSize(options)}
	timeWindow(params, options)

	result, err := e.call(ctx, core.OpListDeposits, params)
	if err != nil {
		return nil, err
	}

	txs, ok := result.([]core.Transaction)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	return txs, nil
}

// FetchWithdrawals retrieves the account's withdrawal history,
// optionally bounded via WithTimeRange.
func (e *FoxbitExchange) FetchWithdrawals(ctx context.Context, opts ...exchange.Option) ([]core.Transaction, error) {
	options := exchange.ApplyOptions(opts...)

	params := core.Params{"page_size": pageSize(options)}
	timeWindow(params, options)

	result, err := e.call(ctx, core.OpListWithdrawals, params)
	if err != nil {
		return nil, err
	}

	txs, ok := result.([]core.Transaction)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	return txs, nil
}

// FetchTransactions retrieves the merged deposit and withdrawal
// history, sorted by creation time ascending.
func (e *FoxbitExchange) FetchTransactions(ctx context.Context, opts ...exchange.Option) ([]core.Transaction, error) {
	withdrawals, err := e.FetchWithdrawals(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("fetch withdrawals: %w", err)
	}
	deposits, err := e.FetchDeposits(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("fetch deposits: %w", err)
	}

	txs := make([]core.Transaction, 0, len(withdrawals)+len(deposits))
	txs = append(txs, withdrawals...)
	txs = append(txs, deposits...)
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Timestamp.Before(txs[j].Timestamp)
	})
	return txs, nil
}

// Withdraw requests a withdrawal to an external address.
func (e *FoxbitExchange) Withdraw(ctx context.Context, req *exchange.WithdrawRequest, opts ...exchange.Option) (*core.Transaction, error) {
	params := core.Params{
		"currency_symbol":     currencyID(req.Currency),
		"amount":              req.Amount.String(),
		"destination_address": req.Address,
	}
	if req.Tag != "" {
		params["destination_tag"] = req.Tag
	}
	if req.NetworkCode != "" {
		params["network_code"] = req.NetworkCode
	}

	result, err := e.call(ctx, core.OpCreateWithdrawal, params)
	if err != nil {
		return nil, err
	}

	tx, ok := result.(*core.Transaction)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	if tx.Currency == "" {
		tx.Currency = req.Currency
	}
	return tx, nil
}

// Register creates a FoxbitExchange and registers it with the
// container. This is a convenience function for dependency injection
// setup.
func Register(container *exchange.Container, config *core.Config, opts ...Option) error {
	ex, err := New(config, opts...)
	if err != nil {
		return fmt.Errorf("create foxbit exchange: %w", err)
	}
	container.Register("foxbit", ex)
	return nil
}
