package foxbit

import (
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raposa/pkg/core"
)

func TestFlexString(t *testing.T) {
	var v struct {
		ID    flexString `json:"id"`
		Count flexString `json:"count"`
		Gone  flexString `json:"gone"`
	}
	err := sonic.Unmarshal([]byte(`{"id":1234567890,"count":"42","gone":null}`), &v)
	require.NoError(t, err)

	assert.Equal(t, "1234567890", v.ID.String())
	assert.Equal(t, "42", v.Count.String())
	assert.Equal(t, "", v.Gone.String())
}

func TestPrecisionFromIncrement(t *testing.T) {
	tests := []struct {
		increment string
		want      int32
	}{
		{"0.00010000", 4},
		{"0.0001", 4},
		{"0.00001", 5},
		{"0.010", 2},
		{"1.0", 0},
		{"1", 0},
		{"", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, precisionFromIncrement(tt.increment), "increment %q", tt.increment)
	}
}

func TestParseSymbol(t *testing.T) {
	assert.Equal(t, "BTC/BRL", parseSymbol("btcbrl"))
	assert.Equal(t, "ETH/USDT", parseSymbol("ethusdt"))
	assert.Equal(t, "SOL/BTC", parseSymbol("solbtc"))
	// Unknown quote falls back to the uppercased id.
	assert.Equal(t, "XYZABC", parseSymbol("xyzabc"))
}

func TestMarketID(t *testing.T) {
	assert.Equal(t, "btcbrl", marketID("BTC/BRL"))
	assert.Equal(t, "usdtbrl", marketID("USDT/BRL"))
	assert.Equal(t, "btc", currencyID("BTC"))
}

func TestNormalizeMarket(t *testing.T) {
	payload := []byte(`{
		"symbol": "btcbrl",
		"quantity_min": "0.00002",
		"quantity_increment": "0.00001",
		"price_min": "1.0",
		"price_increment": "0.00010000",
		"base": {"symbol": "btc", "name": "Bitcoin", "type": "CRYPTO", "precision": 8},
		"quote": {"symbol": "brl", "name": "Brazilian Real", "type": "FIAT", "precision": 2}
	}`)
	var raw rawMarket
	require.NoError(t, sonic.Unmarshal(payload, &raw))

	n := NewNormalizer()
	m, err := n.NormalizeMarket(raw)
	require.NoError(t, err)

	assert.Equal(t, "btcbrl", m.ID)
	assert.Equal(t, "BTC/BRL", m.Symbol)
	assert.Equal(t, "BTC", m.Base)
	assert.Equal(t, "BRL", m.Quote)
	assert.Equal(t, int32(4), m.PricePrecision)
	assert.Equal(t, int32(5), m.AmountPrecision)
	assert.Equal(t, "0.00002", m.MinAmount.String())
	assert.Equal(t, "1.0", m.MinPrice.String())
	assert.True(t, m.Active)
	assert.NotNil(t, m.Raw)
}

func TestNormalizeCurrency(t *testing.T) {
	payload := []byte(`{
		"symbol": "btc",
		"name": "Bitcoin",
		"type": "CRYPTO",
		"precision": 8,
		"deposit_info": {"min_to_confirm": "1", "min_amount": "0.0001"},
		"withdraw_info": {"enabled": true, "min_amount": "0.0002", "fee": "0.00005"}
	}`)
	var raw rawCurrency
	require.NoError(t, sonic.Unmarshal(payload, &raw))

	n := NewNormalizer()
	c, err := n.NormalizeCurrency(raw)
	require.NoError(t, err)

	assert.Equal(t, "btc", c.ID)
	assert.Equal(t, "BTC", c.Code)
	assert.Equal(t, "Bitcoin", c.Name)
	assert.Equal(t, int32(8), c.Precision)
	assert.True(t, c.WithdrawEnabled)
	require.NotNil(t, c.WithdrawFee)
	assert.Equal(t, "0.00005", c.WithdrawFee.String())
	require.NotNil(t, c.MinDeposit)
	assert.Equal(t, "0.0001", c.MinDeposit.String())
	require.NotNil(t, c.MinWithdraw)
	assert.Equal(t, "0.0002", c.MinWithdraw.String())

	// Normalization is pure: a second pass yields the same record.
	again, err := n.NormalizeCurrency(raw)
	require.NoError(t, err)
	assert.Equal(t, c, again)
}

func TestNormalizeCurrencyWithoutWithdrawInfo(t *testing.T) {
	var raw rawCurrency
	require.NoError(t, sonic.Unmarshal([]byte(`{"symbol":"brl","name":"Real","type":"FIAT","precision":2}`), &raw))

	n := NewNormalizer()
	c, err := n.NormalizeCurrency(raw)
	require.NoError(t, err)

	assert.False(t, c.WithdrawEnabled)
	assert.Nil(t, c.WithdrawFee)
	assert.Nil(t, c.MinDeposit)
	assert.Nil(t, c.MinWithdraw)
}

func TestNormalizeTicker(t *testing.T) {
	payload := []byte(`{
		"market_symbol": "btcbrl",
		"last_trade": {"price": "358504.69340000", "volume": "0.00027893", "date": "2024-01-01T00:00:00.000Z"},
		"rolling_24h": {
			"price_change": "3211.87290000",
			"price_change_percent": "0.90400726",
			"volume": "20.03206866",
			"trades_count": "4376",
			"open": "355292.82050000",
			"high": "362999.99990000",
			"low": "355002.88880000"
		},
		"best": {
			"ask": {"price": "358504.69340000", "volume": "0.00027893"},
			"bid": {"price": "358000.00000000", "volume": "0.00100000"}
		}
	}`)
	var raw rawTicker
	require.NoError(t, sonic.Unmarshal(payload, &raw))

	n := NewNormalizer()
	ticker, err := n.NormalizeTicker(raw, "")
	require.NoError(t, err)

	assert.Equal(t, "BTC/BRL", ticker.Symbol)
	assert.Equal(t, "358504.69340000", ticker.Last.String())
	assert.True(t, ticker.Timestamp.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, int64(4376), ticker.TradesCount)
	require.NotNil(t, ticker.Bid)
	assert.Equal(t, "358000.00000000", ticker.Bid.Price.String())
	require.NotNil(t, ticker.Ask)
	assert.Equal(t, "0.00027893", ticker.Ask.Volume.String())
	assert.Equal(t, "20.03206866", ticker.BaseVolume.String())
}

func TestNormalizeTickerWithoutBest(t *testing.T) {
	var raw rawTicker
	require.NoError(t, sonic.Unmarshal([]byte(`{
		"market_symbol": "btcbrl",
		"last_trade": {"price": "100.0", "volume": "1", "date": "2024-01-01T00:00:00.000Z"},
		"rolling_24h": {"open": "90.0", "high": "110.0", "low": "80.0"}
	}`), &raw))

	n := NewNormalizer()
	ticker, err := n.NormalizeTicker(raw, "BTC/BRL")
	require.NoError(t, err)

	assert.Nil(t, ticker.Bid)
	assert.Nil(t, ticker.Ask)
	assert.Equal(t, "BTC/BRL", ticker.Symbol)
	assert.Equal(t, "0", ticker.Change.String())
}

func TestNormalizeOrderBookPreservesSequence(t *testing.T) {
	var raw rawOrderBook
	require.NoError(t, sonic.Unmarshal([]byte(`{
		"sequence_id": 1234567890,
		"timestamp": 1713187921336,
		"bids": [["100", "1"], ["99", "2"]],
		"asks": [["101", "3"], ["102", "4"]]
	}`), &raw))

	n := NewNormalizer()
	book, err := n.NormalizeOrderBook(raw, "BTC/BRL")
	require.NoError(t, err)

	assert.Equal(t, "BTC/BRL", book.Symbol)
	assert.Equal(t, int64(1234567890), book.SequenceID)
	assert.True(t, book.Timestamp.Equal(time.UnixMilli(1713187921336)))

	require.Len(t, book.Bids, 2)
	assert.Equal(t, "100", book.Bids[0].Price.String())
	assert.Equal(t, "99", book.Bids[1].Price.String())
	assert.True(t, book.Bids[0].Price.Cmp(&book.Bids[1].Price) > 0, "bids descending")

	require.Len(t, book.Asks, 2)
	assert.Equal(t, "101", book.Asks[0].Price.String())
	assert.True(t, book.Asks[0].Price.Cmp(&book.Asks[1].Price) < 0, "asks ascending")
}

func TestNormalizeOrderBookMalformedLevel(t *testing.T) {
	var raw rawOrderBook
	require.NoError(t, sonic.Unmarshal([]byte(`{"bids": [["100"]], "asks": []}`), &raw))

	n := NewNormalizer()
	_, err := n.NormalizeOrderBook(raw, "BTC/BRL")
	assert.Error(t, err)
}

func TestNormalizeOrder(t *testing.T) {
	payload := []byte(`{
		"id": "1234567890",
		"sn": "OKMAKSDHRVVREK",
		"client_order_id": "451637946501",
		"market_symbol": "btcbrl",
		"side": "BUY",
		"type": "LIMIT",
		"state": "PARTIALLY_FILLED",
		"price": "290000.0",
		"price_avg": "295333.3333",
		"quantity": "0.42",
		"quantity_executed": "0.41",
		"created_at": "2021-02-15T22:06:32.999Z",
		"trades_count": "2",
		"funds_received": "290.0"
	}`)
	var raw rawOrder
	require.NoError(t, sonic.Unmarshal(payload, &raw))

	n := NewNormalizer()
	order, err := n.NormalizeOrder(raw, "")
	require.NoError(t, err)

	assert.Equal(t, "1234567890", order.ID)
	assert.Equal(t, "OKMAKSDHRVVREK", order.SN)
	assert.Equal(t, "451637946501", order.ClientOrderID)
	assert.Equal(t, "BTC/BRL", order.Symbol)
	assert.Equal(t, "buy", order.Side)
	assert.Equal(t, "limit", order.Type)
	// The exchange state is passed through untouched.
	assert.Equal(t, "PARTIALLY_FILLED", order.Status)
	assert.Equal(t, "290000.0", order.Price.String())
	assert.Equal(t, "295333.3333", order.AveragePrice.String())
	assert.Equal(t, "0.41", order.Filled.String())
	assert.Equal(t, "0.83", order.Amount.Text('f'))
	assert.Equal(t, "290.0", order.FundsReceived.String())
	assert.Equal(t, int64(2), order.TradesCount)
	assert.Equal(t, 2021, order.Timestamp.Year())
}

func TestNormalizeOrderNullPrice(t *testing.T) {
	var raw rawOrder
	require.NoError(t, sonic.Unmarshal([]byte(`{
		"id": 42,
		"market_symbol": "btcbrl",
		"side": "SELL",
		"type": "MARKET",
		"state": "FILLED",
		"price": null,
		"quantity": "0.1",
		"quantity_executed": "0.1"
	}`), &raw))

	n := NewNormalizer()
	order, err := n.NormalizeOrder(raw, "")
	require.NoError(t, err)

	assert.Equal(t, "42", order.ID)
	assert.True(t, order.Price.IsZero())
	assert.Equal(t, "market", order.Type)
	assert.Equal(t, "sell", order.Side)
}

func TestNormalizeBalances(t *testing.T) {
	var raws []rawAccount
	require.NoError(t, sonic.Unmarshal([]byte(`[
		{"currency_symbol": "btc", "balance": "1.5", "balance_available": "1.0", "balance_locked": "0.5"},
		{"currency_symbol": "brl", "balance": "100.0", "balance_available": "100.0"}
	]`), &raws))

	n := NewNormalizer()
	balances, err := n.NormalizeBalances(raws)
	require.NoError(t, err)
	require.Len(t, balances, 2)

	assert.Equal(t, "BTC", balances[0].Currency)
	assert.Equal(t, "1.0", balances[0].Free.String())
	assert.Equal(t, "0.5", balances[0].Used.String())
	assert.Equal(t, "1.5", balances[0].Total.String())

	// Missing balance_locked defaults the used amount to zero.
	assert.Equal(t, "BRL", balances[1].Currency)
	assert.True(t, balances[1].Used.IsZero())
}

func TestNormalizePublicTrade(t *testing.T) {
	var raw rawTrade
	require.NoError(t, sonic.Unmarshal([]byte(`{
		"id": 9876,
		"price": "100.0",
		"volume": "2.0",
		"taker_side": "BUY",
		"created_at": "2024-03-01T12:00:00.000Z"
	}`), &raw))

	n := NewNormalizer()
	trade, err := n.NormalizeTrade(raw, "BTC/BRL")
	require.NoError(t, err)

	assert.Equal(t, "9876", trade.ID)
	assert.Equal(t, "buy", trade.Side)
	assert.Equal(t, "2.0", trade.Amount.String())
	assert.Equal(t, "200.00", trade.Cost.Text('f'))
}

func TestNormalizePrivateTrade(t *testing.T) {
	var raw rawTrade
	require.NoError(t, sonic.Unmarshal([]byte(`{
		"id": 1,
		"sn": "TC5JZVW2LLJ3IW",
		"order_id": 1234567890,
		"market_symbol": "btcbrl",
		"side": "SELL",
		"price": "300000.0",
		"quantity": "0.5",
		"fee": "1.5",
		"fee_currency_symbol": "brl",
		"created_at": "2024-03-01T12:00:00.000Z"
	}`), &raw))

	n := NewNormalizer()
	trade, err := n.NormalizeTrade(raw, "")
	require.NoError(t, err)

	assert.Equal(t, "TC5JZVW2LLJ3IW", trade.SN)
	assert.Equal(t, "1234567890", trade.OrderID)
	assert.Equal(t, "BTC/BRL", trade.Symbol)
	assert.Equal(t, "sell", trade.Side)
	assert.Equal(t, "0.5", trade.Amount.String())
	assert.Equal(t, "1.5", trade.Fee.String())
	assert.Equal(t, "BRL", trade.FeeCurrency)
	assert.Equal(t, "150000.00", trade.Cost.Text('f'))
}

func TestNormalizeTransactionDeposit(t *testing.T) {
	var raw rawTransaction
	require.NoError(t, sonic.Unmarshal([]byte(`{
		"sn": "DOKMAKSDHRVVREK",
		"state": "ACCEPTED",
		"currency_symbol": "btc",
		"amount": "1.0",
		"fee": "0.1",
		"created_at": "2022-02-18T22:06:32.999Z",
		"details_crypto": {
			"transaction_id": "e20f035387020c5d5ea18ad53244f09f3",
			"receiving_address": "2N2rTrnKEFcyJjEJqvVjgWZ3bKvKT7Aij61"
		}
	}`), &raw))

	n := NewNormalizer()
	tx, err := n.NormalizeTransaction(raw, core.TransactionDeposit)
	require.NoError(t, err)

	assert.Equal(t, core.TransactionDeposit, tx.Type)
	assert.Equal(t, "ACCEPTED", tx.Status)
	assert.Equal(t, "BTC", tx.Currency)
	// Amount is reported net of the fee.
	assert.Equal(t, "0.9", tx.Amount.Text('f'))
	assert.Equal(t, "0.1", tx.Fee.String())
	assert.Equal(t, "e20f035387020c5d5ea18ad53244f09f3", tx.TxID)
	assert.Equal(t, "2N2rTrnKEFcyJjEJqvVjgWZ3bKvKT7Aij61", tx.Address)
}

func TestNormalizeTransactionWithdrawalFromSN(t *testing.T) {
	var raw rawTransaction
	require.NoError(t, sonic.Unmarshal([]byte(`{
		"sn": "WOKMAKSDHRVVREK",
		"state": "DONE",
		"currency_symbol": "xrp",
		"amount": "10",
		"fee": "0.5",
		"created_at": "2023-06-01T00:00:00.000Z",
		"details_crypto": {
			"destination_address": "rPEPPER7kfTD9w2To4CQk6UCfuHM9c6GDY",
			"transaction_id": "abc123"
		}
	}`), &raw))

	n := NewNormalizer()
	// The serial number prefix overrides the fallback.
	tx, err := n.NormalizeTransaction(raw, core.TransactionDeposit)
	require.NoError(t, err)

	assert.Equal(t, core.TransactionWithdrawal, tx.Type)
	assert.Equal(t, "9.5", tx.Amount.Text('f'))
	assert.Equal(t, "rPEPPER7kfTD9w2To4CQk6UCfuHM9c6GDY", tx.Address)
}

func TestNormalizeTransactionWithoutSN(t *testing.T) {
	var raw rawTransaction
	require.NoError(t, sonic.Unmarshal([]byte(`{
		"amount": "1",
		"currency_symbol": "xrp",
		"network_code": "ripple",
		"destination_address": "0x1234567890123456789012345678",
		"destination_tag": "123456"
	}`), &raw))

	n := NewNormalizer()
	tx, err := n.NormalizeTransaction(raw, core.TransactionWithdrawal)
	require.NoError(t, err)

	assert.Equal(t, core.TransactionWithdrawal, tx.Type)
	assert.Equal(t, "XRP", tx.Currency)
	assert.Equal(t, "ripple", tx.Network)
	assert.Equal(t, "0x1234567890123456789012345678", tx.Address)
	assert.Equal(t, "123456", tx.Tag)
}

func TestNormalizeDepositAddress(t *testing.T) {
	var raw rawDepositAddress
	require.NoError(t, sonic.Unmarshal([]byte(`{
		"address": "2N2rTrnKEFcyJjEJqvVjgWZ3bKvKT7Aij61",
		"tag": "555",
		"network": {"name": "Bitcoin", "code": "btc"}
	}`), &raw))

	n := NewNormalizer()
	addr := n.NormalizeDepositAddress(raw, "btc")

	assert.Equal(t, "BTC", addr.Currency)
	assert.Equal(t, "2N2rTrnKEFcyJjEJqvVjgWZ3bKvKT7Aij61", addr.Address)
	assert.Equal(t, "555", addr.Tag)
	assert.Equal(t, "BTC", addr.NetworkCode)
	assert.Equal(t, "Bitcoin", addr.NetworkName)
}

func TestNormalizeCandle(t *testing.T) {
	var raws [][]flexString
	require.NoError(t, sonic.Unmarshal([]byte(`[[
		"1692918000000",
		"127772.05150000",
		"128467.99980000",
		"127750.01000000",
		"128353.99990000",
		"1692918060000",
		"0.17080431",
		"21866.35948786",
		66,
		"0.12073605",
		"15466.34096391"
	]]`), &raws))

	n := NewNormalizer()
	candles, err := n.NormalizeCandles(raws)
	require.NoError(t, err)
	require.Len(t, candles, 1)

	c := candles[0]
	assert.True(t, c.OpenTime.Equal(time.UnixMilli(1692918000000)))
	assert.True(t, c.CloseTime.Equal(time.UnixMilli(1692918060000)))
	assert.Equal(t, "127772.05150000", c.Open.String())
	assert.Equal(t, "128467.99980000", c.High.String())
	assert.Equal(t, "127750.01000000", c.Low.String())
	assert.Equal(t, "128353.99990000", c.Close.String())
	assert.Equal(t, "0.17080431", c.Volume.String())
	assert.Equal(t, "21866.35948786", c.QuoteVolume.String())
	assert.Equal(t, int64(66), c.TradesCount)
}

func TestNormalizeCandleTooShort(t *testing.T) {
	n := NewNormalizer()
	_, err := n.NormalizeCandle([]flexString{"1692918000000", "1", "2"})
	assert.Error(t, err)
}
