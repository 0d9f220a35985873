package core

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// Endpoint is the compile-time description of a REST call: its HTTP
// method, path template, visibility, response envelope, and rate limit
// weight. Path templates contain {name} placeholders and may carry a
// literal query suffix with its own placeholders. A query placeholder
// written {name?} is optional; its whole key=value pair is dropped
// when the parameter is absent.
type Endpoint struct {
	// Method is the HTTP method in uppercase.
	Method string
	// Path is the path template relative to the API version prefix.
	Path string
	// Private marks endpoints that require request signing.
	Private bool
	// Enveloped marks endpoints that wrap their payload as {"data": ...}.
	// Envelope detection is per endpoint, never by payload shape.
	Enveloped bool
	// Weight is the rate limit cost of one call.
	Weight int
}

// endpoints is the closed registry mapping every operation to its REST
// call. Weights follow the exchange's published request costs.
var endpoints = map[Operation]Endpoint{
	OpListMarkets:      {Method: http.MethodGet, Path: "markets", Enveloped: true, Weight: 5},
	OpListCurrencies:   {Method: http.MethodGet, Path: "currencies", Enveloped: true, Weight: 5},
	OpTicker24h:        {Method: http.MethodGet, Path: "markets/{market_symbol}/ticker/24hr", Enveloped: true, Weight: 15},
	OpAllTickers24h:    {Method: http.MethodGet, Path: "markets/ticker/24hr", Enveloped: true, Weight: 60},
	OpOrderBook:        {Method: http.MethodGet, Path: "markets/{market_symbol}/orderbook?depth={depth}", Weight: 6},
	OpCandles:          {Method: http.MethodGet, Path: "markets/{market_symbol}/candlesticks?interval={interval}&limit={limit}", Weight: 12},
	OpPublicTrades:     {Method: http.MethodGet, Path: "markets/{market_symbol}/trades/history?page_size={page_size}", Enveloped: true, Weight: 12},
	OpAccounts:         {Method: http.MethodGet, Path: "accounts", Private: true, Enveloped: true, Weight: 2},
	OpListOrders:       {Method: http.MethodGet, Path: "orders?state={state}&market_symbol={market_symbol}&page_size={page_size}", Private: true, Enveloped: true, Weight: 2},
	OpListOrdersAll:    {Method: http.MethodGet, Path: "orders?market_symbol={market_symbol}&page_size={page_size}", Private: true, Enveloped: true, Weight: 2},
	OpGetOrder:         {Method: http.MethodGet, Path: "orders/by-order-id/{order_id}", Private: true, Weight: 2},
	OpCreateOrder:      {Method: http.MethodPost, Path: "orders", Private: true, Weight: 2},
	OpCancelOrder:      {Method: http.MethodPut, Path: "orders/cancel", Private: true, Enveloped: true, Weight: 2},
	OpCancelReplace:    {Method: http.MethodPost, Path: "orders/cancel-replace", Private: true, Weight: 3},
	OpMyTrades:         {Method: http.MethodGet, Path: "trades?market_symbol={market_symbol}&page_size={page_size}", Private: true, Enveloped: true, Weight: 6},
	OpDepositAddress:   {Method: http.MethodGet, Path: "deposits/address?currency_symbol={currency_symbol}&network_code={network_code?}", Private: true, Weight: 10},
	OpListDeposits:     {Method: http.MethodGet, Path: "deposits?page_size={page_size}&start_time={start_time?}&end_time={end_time?}", Private: true, Enveloped: true, Weight: 10},
	OpListWithdrawals:  {Method: http.MethodGet, Path: "withdrawals?page_size={page_size}&start_time={start_time?}&end_time={end_time?}", Private: true, Enveloped: true, Weight: 10},
	OpCreateWithdrawal: {Method: http.MethodPost, Path: "withdrawals", Private: true, Weight: 10},
}

// ResolvedEndpoint is an endpoint with all template placeholders
// substituted. Path and Query hold the literal strings used for both
// the request URL and the signature prehash.
type ResolvedEndpoint struct {
	Method    string
	Path      string
	Query     string
	Private   bool
	Enveloped bool
	Weight    int
}

// RequestPath returns the path with the query string appended, suitable
// for a request URL relative to the API base.
func (r ResolvedEndpoint) RequestPath() string {
	if r.Query == "" {
		return r.Path
	}
	return r.Path + "?" + r.Query
}

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\??\}`)

// Lookup returns the endpoint registered for op.
// It fails with ErrUnknownOperation for unregistered operations.
func Lookup(op Operation) (Endpoint, error) {
	ep, ok := endpoints[op]
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: %d", ErrUnknownOperation, int(op))
	}
	return ep, nil
}

// Resolve substitutes params into the endpoint template registered for
// op. Substitution is plain, case-sensitive string replacement; values
// are URL-encoded. It fails with ErrUnknownOperation for unregistered
// operations and ErrMissingParam when a required placeholder has no
// value. Optional query placeholders drop their pair instead.
func Resolve(op Operation, params Params) (ResolvedEndpoint, error) {
	ep, err := Lookup(op)
	if err != nil {
		return ResolvedEndpoint{}, err
	}

	pathTpl := ep.Path
	queryTpl := ""
	if i := strings.IndexByte(ep.Path, '?'); i >= 0 {
		pathTpl = ep.Path[:i]
		queryTpl = ep.Path[i+1:]
	}

	path, err := substitute(pathTpl, params, url.PathEscape)
	if err != nil {
		return ResolvedEndpoint{}, err
	}
	query, err := substituteQuery(queryTpl, params)
	if err != nil {
		return ResolvedEndpoint{}, err
	}

	return ResolvedEndpoint{
		Method:    ep.Method,
		Path:      path,
		Query:     query,
		Private:   ep.Private,
		Enveloped: ep.Enveloped,
		Weight:    ep.Weight,
	}, nil
}

func substitute(tpl string, params Params, escape func(string) string) (string, error) {
	var missing string
	out := placeholderRe.ReplaceAllStringFunc(tpl, func(token string) string {
		name := strings.TrimSuffix(token[1:len(token)-1], "?")
		val, ok := params[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return token
		}
		return escape(fmt.Sprint(val))
	})
	if missing != "" {
		return "", fmt.Errorf("%w: %s", ErrMissingParam, missing)
	}
	return out, nil
}

// substituteQuery fills a query template pair by pair so optional
// placeholders can drop their pair without leaving a dangling key.
func substituteQuery(tpl string, params Params) (string, error) {
	if tpl == "" {
		return "", nil
	}

	pairs := make([]string, 0, strings.Count(tpl, "&")+1)
	for _, pair := range strings.Split(tpl, "&") {
		dropped := false
		var missing string
		out := placeholderRe.ReplaceAllStringFunc(pair, func(token string) string {
			optional := strings.HasSuffix(token, "?}")
			name := strings.TrimSuffix(token[1:len(token)-1], "?")
			val, ok := params[name]
			if !ok {
				if optional {
					dropped = true
				} else if missing == "" {
					missing = name
				}
				return token
			}
			return url.QueryEscape(fmt.Sprint(val))
		})
		if missing != "" {
			return "", fmt.Errorf("%w: %s", ErrMissingParam, missing)
		}
		if dropped {
			continue
		}
		pairs = append(pairs, out)
	}
	return strings.Join(pairs, "&"), nil
}
