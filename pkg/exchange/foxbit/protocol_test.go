package foxbit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raposa/pkg/core"
)

func newTestProtocol() *Protocol {
	return NewProtocol("/rest/v3")
}

func TestProtocolName(t *testing.T) {
	assert.Equal(t, "foxbit", newTestProtocol().Name())
}

func TestBuildRequestPublic(t *testing.T) {
	p := newTestProtocol()

	req, err := p.BuildRequest(context.Background(), core.OpOrderBook, core.Params{
		"market_symbol": "btcbrl",
		"depth":         20,
	})
	require.NoError(t, err)

	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "markets/btcbrl/orderbook", req.Path)
	assert.Equal(t, "depth=20", req.Query)
	assert.Equal(t, "markets/btcbrl/orderbook?depth=20", req.FullPath())
	assert.False(t, req.RequireAuth)
	assert.Nil(t, req.Body)
}

func TestBuildRequestPrivate(t *testing.T) {
	p := newTestProtocol()

	req, err := p.BuildRequest(context.Background(), core.OpAccounts, core.Params{})
	require.NoError(t, err)

	assert.True(t, req.RequireAuth)
	assert.True(t, req.Enveloped)
	assert.Equal(t, "accounts", req.Path)
	assert.Equal(t, "application/json", req.Headers["Content-Type"])
}

func TestBuildRequestMissingParam(t *testing.T) {
	p := newTestProtocol()

	_, err := p.BuildRequest(context.Background(), core.OpOrderBook, core.Params{"depth": 20})
	assert.ErrorIs(t, err, core.ErrMissingParam)
}

func TestBuildRequestOrderBody(t *testing.T) {
	p := newTestProtocol()

	req, err := p.BuildRequest(context.Background(), core.OpCreateOrder, core.Params{
		"market_symbol": "btcbrl",
		"side":          "BUY",
		"type":          "LIMIT",
		"price":         "290000.0",
		"quantity":      "0.42",
	})
	require.NoError(t, err)

	// Field order is fixed so the signed bytes are reproducible.
	assert.Equal(t,
		`{"market_symbol":"btcbrl","price":"290000.0","quantity":"0.42","side":"BUY","type":"LIMIT"}`,
		string(req.Body))
	assert.Equal(t, "POST", req.Method)
	assert.True(t, req.RequireAuth)
}

func TestBuildRequestCancelBody(t *testing.T) {
	p := newTestProtocol()

	req, err := p.BuildRequest(context.Background(), core.OpCancelOrder, core.Params{
		"id": "42",
	})
	require.NoError(t, err)

	assert.Equal(t, `{"id":"42","type":"ID"}`, string(req.Body))
	assert.Equal(t, "PUT", req.Method)

	req, err = p.BuildRequest(context.Background(), core.OpCancelOrder, core.Params{
		"cancel_type":   "MARKET",
		"market_symbol": "btcbrl",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"market_symbol":"btcbrl","type":"MARKET"}`, string(req.Body))
}

func TestBuildRequestCancelReplaceBody(t *testing.T) {
	p := newTestProtocol()

	req, err := p.BuildRequest(context.Background(), core.OpCancelReplace, core.Params{
		"cancel_id":     "42",
		"market_symbol": "btcbrl",
		"side":          "BUY",
		"type":          "LIMIT",
		"price":         "290000.0",
		"quantity":      "0.42",
	})
	require.NoError(t, err)

	assert.Equal(t,
		`{"cancel":{"id":"42","type":"ID"},"create":{"market_symbol":"btcbrl","price":"290000.0","quantity":"0.42","side":"BUY","type":"LIMIT"},"mode":"ALLOW_FAILURE"}`,
		string(req.Body))
}

func TestBuildRequestWithdrawBody(t *testing.T) {
	p := newTestProtocol()

	req, err := p.BuildRequest(context.Background(), core.OpCreateWithdrawal, core.Params{
		"currency_symbol":     "xrp",
		"amount":              "10",
		"destination_address": "rPEPPER7kfTD9w2To4CQk6UCfuHM9c6GDY",
		"destination_tag":     "123456",
		"network_code":        "ripple",
	})
	require.NoError(t, err)

	assert.Equal(t,
		`{"amount":"10","currency_symbol":"xrp","destination_address":"rPEPPER7kfTD9w2To4CQk6UCfuHM9c6GDY","destination_tag":"123456","network_code":"ripple"}`,
		string(req.Body))
}

func TestSignRequest(t *testing.T) {
	p := newTestProtocol()

	req, err := p.BuildRequest(context.Background(), core.OpAccounts, core.Params{})
	require.NoError(t, err)

	err = p.SignRequest(req, core.Credentials{APIKey: "key", SecretKey: "s3cr3t"})
	require.NoError(t, err)

	assert.Equal(t, "key", req.Headers[headerAccessKey])
	assert.NotEmpty(t, req.Headers[headerAccessTimestamp])
	assert.Len(t, req.Headers[headerAccessSignature], 64)
}

func TestSignRequestNoCredentials(t *testing.T) {
	p := newTestProtocol()

	req, err := p.BuildRequest(context.Background(), core.OpAccounts, core.Params{})
	require.NoError(t, err)

	err = p.SignRequest(req, core.Credentials{})
	assert.ErrorIs(t, err, core.ErrNoCredentials)
}

func TestParseResponseEnvelopedList(t *testing.T) {
	p := newTestProtocol()

	body := []byte(`{"data": [{
		"symbol": "btcbrl",
		"price_increment": "0.0001",
		"quantity_increment": "0.00001",
		"base": {"symbol": "btc"},
		"quote": {"symbol": "brl"}
	}]}`)

	result, err := p.ParseResponse(core.OpListMarkets, 200, body)
	require.NoError(t, err)

	markets, ok := result.([]core.Market)
	require.True(t, ok)
	require.Len(t, markets, 1)
	assert.Equal(t, "BTC/BRL", markets[0].Symbol)
}

func TestParseResponseBareObject(t *testing.T) {
	p := newTestProtocol()

	body := []byte(`{
		"sequence_id": 7,
		"timestamp": 1713187921336,
		"bids": [["100", "1"]],
		"asks": [["101", "2"]]
	}`)

	result, err := p.ParseResponse(core.OpOrderBook, 200, body)
	require.NoError(t, err)

	book, ok := result.(*core.OrderBook)
	require.True(t, ok)
	assert.Equal(t, int64(7), book.SequenceID)
	require.Len(t, book.Bids, 1)
}

func TestParseResponseSingleTickerFromList(t *testing.T) {
	p := newTestProtocol()

	body := []byte(`{"data": [{
		"market_symbol": "btcbrl",
		"last_trade": {"price": "100.0", "volume": "1", "date": "2024-01-01T00:00:00.000Z"},
		"rolling_24h": {"open": "90", "high": "110", "low": "80"}
	}]}`)

	result, err := p.ParseResponse(core.OpTicker24h, 200, body)
	require.NoError(t, err)

	ticker, ok := result.(*core.Ticker)
	require.True(t, ok)
	assert.Equal(t, "100.0", ticker.Last.String())

	_, err = p.ParseResponse(core.OpTicker24h, 200, []byte(`{"data": []}`))
	assert.True(t, core.IsExchangeError(err))
}

func TestParseResponseOrderNotFound(t *testing.T) {
	p := newTestProtocol()

	_, err := p.ParseResponse(core.OpGetOrder, 200, []byte(`{}`))
	assert.True(t, core.IsOrderNotFound(err))

	_, err = p.ParseResponse(core.OpCancelOrder, 200, []byte(`{"data": []}`))
	assert.True(t, core.IsOrderNotFound(err))
}

func TestParseResponseCancelReplace(t *testing.T) {
	p := newTestProtocol()

	body := []byte(`{
		"cancel": {"sn": "OLD", "id": "41"},
		"create": {"id": "42", "market_symbol": "btcbrl", "side": "BUY", "type": "LIMIT", "state": "ACTIVE", "quantity": "0.1", "quantity_executed": "0"}
	}`)

	result, err := p.ParseResponse(core.OpCancelReplace, 200, body)
	require.NoError(t, err)

	order, ok := result.(*core.Order)
	require.True(t, ok)
	assert.Equal(t, "42", order.ID)

	_, err = p.ParseResponse(core.OpCancelReplace, 200, []byte(`{"cancel": {"id": "41"}}`))
	assert.True(t, core.IsOrderNotFound(err))
}

func TestParseResponseErrorMapping(t *testing.T) {
	p := newTestProtocol()

	tests := []struct {
		status int
		check  func(error) bool
	}{
		{400, core.IsBadRequestError},
		{401, core.IsAuthenticationError},
		{403, core.IsPermissionError},
		{404, core.IsBadRequestError},
		{429, core.IsRateLimitError},
		{500, core.IsExchangeError},
		{503, core.IsExchangeError},
	}
	for _, tt := range tests {
		_, err := p.ParseResponse(core.OpListMarkets, tt.status, []byte(`{}`))
		require.Error(t, err, "status %d", tt.status)
		assert.True(t, tt.check(err), "status %d mapped to %v", tt.status, err)
	}
}

func TestParseResponseErrorMessage(t *testing.T) {
	p := newTestProtocol()

	_, err := p.ParseResponse(core.OpAccounts, 401, []byte(`{"error": {"code": 1001, "message": "invalid signature"}}`))
	require.Error(t, err)

	var exErr *core.ExchangeError
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, "invalid signature", exErr.Message)
	assert.Equal(t, "1001", exErr.Code)
	assert.Equal(t, 401, exErr.StatusCode)

	// Flat payloads work too.
	_, err = p.ParseResponse(core.OpAccounts, 400, []byte(`{"code": "E42", "message": "bad depth"}`))
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, "bad depth", exErr.Message)
	assert.Equal(t, "E42", exErr.Code)

	// Unparseable bodies fall back to the HTTP status text.
	_, err = p.ParseResponse(core.OpAccounts, 503, []byte(`upstream exploded`))
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, "Service Unavailable", exErr.Message)
}

func TestSupportedOperations(t *testing.T) {
	p := newTestProtocol()

	ops := p.SupportedOperations()
	assert.Len(t, ops, 19)
	for _, op := range ops {
		_, err := core.Lookup(op)
		assert.NoError(t, err, "operation %s", op)
	}
}
