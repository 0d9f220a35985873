package foxbit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bytedance/sonic"

	"raposa/pkg/core"
)

// orderBody is the serialized form of a create request. Optional
// fields are omitted so the signed bytes carry no noise.
type orderBody struct {
	Amount        string `json:"amount,omitempty"`
	ClientOrderID string `json:"client_order_id,omitempty"`
	MarketSymbol  string `json:"market_symbol"`
	PostOnly      bool   `json:"post_only,omitempty"`
	Price         string `json:"price,omitempty"`
	Quantity      string `json:"quantity,omitempty"`
	Remark        string `json:"remark,omitempty"`
	Side          string `json:"side"`
	StopPrice     string `json:"stop_price,omitempty"`
	Type          string `json:"type"`
}

// cancelBody targets one order by id, every order of one market, or
// all open orders, depending on Type.
type cancelBody struct {
	ID           string `json:"id,omitempty"`
	MarketSymbol string `json:"market_symbol,omitempty"`
	Type         string `json:"type"`
}

type cancelReplaceBody struct {
	Cancel cancelBody `json:"cancel"`
	Create orderBody  `json:"create"`
	Mode   string     `json:"mode"`
}

type withdrawBody struct {
	Amount             string `json:"amount"`
	CurrencySymbol     string `json:"currency_symbol"`
	DestinationAddress string `json:"destination_address"`
	DestinationTag     string `json:"destination_tag,omitempty"`
	NetworkCode        string `json:"network_code,omitempty"`
}

// Protocol builds, signs, and parses Foxbit REST calls. Request bodies
// are serialized exactly once; the same bytes feed the signature and
// the wire.
type Protocol struct {
	normalizer *Normalizer
	pathPrefix string
}

var _ core.Protocol = (*Protocol)(nil)

func NewProtocol(pathPrefix string) *Protocol {
	return &Protocol{
		normalizer: NewNormalizer(),
		pathPrefix: pathPrefix,
	}
}

// Name returns the exchange identifier "foxbit".
func (p *Protocol) Name() string {
	return "foxbit"
}

// BuildRequest resolves the endpoint template for op and assembles the
// final request, including the serialized body for write operations.
func (p *Protocol) BuildRequest(ctx context.Context, op core.Operation, params core.Params) (*core.Request, error) {
	resolved, err := core.Resolve(op, params)
	if err != nil {
		return nil, err
	}

	req := core.NewRequest(resolved.Method, resolved.Path).
		SetQuery(resolved.Query).
		SetWeight(resolved.Weight).
		SetRequireAuth(resolved.Private).
		SetEnveloped(resolved.Enveloped).
		SetHeader("Content-Type", "application/json")

	body, err := p.buildBody(op, params)
	if err != nil {
		return nil, err
	}
	req.SetBody(body)

	return req, nil
}

func (p *Protocol) buildBody(op core.Operation, params core.Params) ([]byte, error) {
	switch op {
	case core.OpCreateOrder:
		return sonic.Marshal(orderBodyFromParams(params))
	case core.OpCancelOrder:
		return sonic.Marshal(cancelBodyFromParams(params))
	case core.OpCancelReplace:
		return sonic.Marshal(cancelReplaceBody{
			Cancel: cancelBody{ID: paramString(params, "cancel_id"), Type: "ID"},
			Create: orderBodyFromParams(params),
			Mode:   "ALLOW_FAILURE",
		})
	case core.OpCreateWithdrawal:
		return sonic.Marshal(withdrawBody{
			Amount:             paramString(params, "amount"),
			CurrencySymbol:     paramString(params, "currency_symbol"),
			DestinationAddress: paramString(params, "destination_address"),
			DestinationTag:     paramString(params, "destination_tag"),
			NetworkCode:        paramString(params, "network_code"),
		})
	default:
		return nil, nil
	}
}

func orderBodyFromParams(params core.Params) orderBody {
	return orderBody{
		Amount:        paramString(params, "amount"),
		ClientOrderID: paramString(params, "client_order_id"),
		MarketSymbol:  paramString(params, "market_symbol"),
		PostOnly:      paramBool(params, "post_only"),
		Price:         paramString(params, "price"),
		Quantity:      paramString(params, "quantity"),
		Remark:        paramString(params, "remark"),
		Side:          paramString(params, "side"),
		StopPrice:     paramString(params, "stop_price"),
		Type:          paramString(params, "type"),
	}
}

func cancelBodyFromParams(params core.Params) cancelBody {
	body := cancelBody{
		ID:           paramString(params, "id"),
		MarketSymbol: paramString(params, "market_symbol"),
		Type:         paramString(params, "cancel_type"),
	}
	if body.Type == "" {
		body.Type = "ID"
	}
	return body
}

func paramString(params core.Params, key string) string {
	if v, ok := params[key]; ok {
		return fmt.Sprint(v)
	}
	return ""
}

func paramBool(params core.Params, key string) bool {
	if v, ok := params[key]; ok {
		b, _ := v.(bool)
		return b
	}
	return false
}

// SignRequest adds the authentication headers. It must run after the
// body is final; any mutation afterwards invalidates the signature.
func (p *Protocol) SignRequest(req *core.Request, creds core.Credentials) error {
	if creds.APIKey == "" || creds.SecretKey == "" {
		return core.ErrNoCredentials
	}
	signer := NewSigner(creds.APIKey, creds.SecretKey, p.pathPrefix)
	for k, v := range signer.Headers(req.Method, req.Path, req.Query, req.Body) {
		req.SetHeader(k, v)
	}
	return nil
}

// envelope is the {"data": ...} wrapper used by list endpoints.
// Whether it is present depends on the endpoint, never on the payload
// shape, so the caller passes the flag from the endpoint table.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

type errorPayload struct {
	Error *struct {
		Code    flexString `json:"code"`
		Message string     `json:"message"`
	} `json:"error"`
	Code    flexString `json:"code"`
	Message string     `json:"message"`
}

// ParseResponse decodes one response body into the canonical record
// for op. Non-2xx statuses map onto the error taxonomy; an order
// lookup that yields no identifier maps to ORDER_NOT_FOUND.
func (p *Protocol) ParseResponse(op core.Operation, statusCode int, body []byte) (any, error) {
	if statusCode < 200 || statusCode >= 300 {
		return nil, p.parseError(statusCode, body)
	}

	payload := body
	if enveloped(op) {
		var env envelope
		if err := sonic.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("decode envelope: %w", err)
		}
		payload = env.Data
	}

	switch op {
	case core.OpListMarkets:
		var raws []rawMarket
		if err := sonic.Unmarshal(payload, &raws); err != nil {
			return nil, fmt.Errorf("decode markets: %w", err)
		}
		return p.normalizer.NormalizeMarkets(raws)

	case core.OpListCurrencies:
		var raws []rawCurrency
		if err := sonic.Unmarshal(payload, &raws); err != nil {
			return nil, fmt.Errorf("decode currencies: %w", err)
		}
		return p.normalizer.NormalizeCurrencies(raws)

	case core.OpTicker24h:
		var raws []rawTicker
		if err := sonic.Unmarshal(payload, &raws); err != nil {
			return nil, fmt.Errorf("decode ticker: %w", err)
		}
		if len(raws) == 0 {
			return nil, core.NewExchangeError(p.Name(), core.ErrorTypeExchange, statusCode,
				"empty ticker response")
		}
		return p.normalizer.NormalizeTicker(raws[0], "")

	case core.OpAllTickers24h:
		var raws []rawTicker
		if err := sonic.Unmarshal(payload, &raws); err != nil {
			return nil, fmt.Errorf("decode tickers: %w", err)
		}
		return p.normalizer.NormalizeTickers(raws)

	case core.OpOrderBook:
		var raw rawOrderBook
		if err := sonic.Unmarshal(payload, &raw); err != nil {
			return nil, fmt.Errorf("decode order book: %w", err)
		}
		return p.normalizer.NormalizeOrderBook(raw, "")

	case core.OpCandles:
		var raws [][]flexString
		if err := sonic.Unmarshal(payload, &raws); err != nil {
			return nil, fmt.Errorf("decode candles: %w", err)
		}
		return p.normalizer.NormalizeCandles(raws)

	case core.OpPublicTrades:
		var raws []rawTrade
		if err := sonic.Unmarshal(payload, &raws); err != nil {
			return nil, fmt.Errorf("decode trades: %w", err)
		}
		return p.normalizer.NormalizeTrades(raws, "")

	case core.OpAccounts:
		var raws []rawAccount
		if err := sonic.Unmarshal(payload, &raws); err != nil {
			return nil, fmt.Errorf("decode accounts: %w", err)
		}
		return p.normalizer.NormalizeBalances(raws)

	case core.OpListOrders, core.OpListOrdersAll:
		var raws []rawOrder
		if err := sonic.Unmarshal(payload, &raws); err != nil {
			return nil, fmt.Errorf("decode orders: %w", err)
		}
		return p.normalizer.NormalizeOrders(raws, "")

	case core.OpGetOrder, core.OpCreateOrder:
		var raw rawOrder
		if err := sonic.Unmarshal(payload, &raw); err != nil {
			return nil, fmt.Errorf("decode order: %w", err)
		}
		if raw.ID.String() == "" {
			return nil, core.NewExchangeError(p.Name(), core.ErrorTypeOrderNotFound, statusCode,
				"order not found")
		}
		return p.normalizer.NormalizeOrder(raw, "")

	case core.OpCancelOrder:
		var raws []rawCancelResult
		if err := sonic.Unmarshal(payload, &raws); err != nil {
			return nil, fmt.Errorf("decode cancel result: %w", err)
		}
		if len(raws) == 0 {
			return nil, core.NewExchangeError(p.Name(), core.ErrorTypeOrderNotFound, statusCode,
				"order not found")
		}
		return p.normalizer.NormalizeCancelResults(raws), nil

	case core.OpCancelReplace:
		var raw struct {
			Cancel rawCancelResult `json:"cancel"`
			Create rawOrder        `json:"create"`
		}
		if err := sonic.Unmarshal(payload, &raw); err != nil {
			return nil, fmt.Errorf("decode cancel-replace: %w", err)
		}
		if raw.Create.ID.String() == "" {
			return nil, core.NewExchangeError(p.Name(), core.ErrorTypeOrderNotFound, statusCode,
				"replacement order was not created")
		}
		return p.normalizer.NormalizeOrder(raw.Create, "")

	case core.OpMyTrades:
		var raws []rawTrade
		if err := sonic.Unmarshal(payload, &raws); err != nil {
			return nil, fmt.Errorf("decode trades: %w", err)
		}
		return p.normalizer.NormalizeTrades(raws, "")

	case core.OpDepositAddress:
		var raw rawDepositAddress
		if err := sonic.Unmarshal(payload, &raw); err != nil {
			return nil, fmt.Errorf("decode deposit address: %w", err)
		}
		return p.normalizer.NormalizeDepositAddress(raw, ""), nil

	case core.OpListDeposits:
		var raws []rawTransaction
		if err := sonic.Unmarshal(payload, &raws); err != nil {
			return nil, fmt.Errorf("decode deposits: %w", err)
		}
		return p.normalizer.NormalizeTransactions(raws, core.TransactionDeposit)

	case core.OpListWithdrawals:
		var raws []rawTransaction
		if err := sonic.Unmarshal(payload, &raws); err != nil {
			return nil, fmt.Errorf("decode withdrawals: %w", err)
		}
		return p.normalizer.NormalizeTransactions(raws, core.TransactionWithdrawal)

	case core.OpCreateWithdrawal:
		var raw rawTransaction
		if err := sonic.Unmarshal(payload, &raw); err != nil {
			return nil, fmt.Errorf("decode withdrawal: %w", err)
		}
		return p.normalizer.NormalizeTransaction(raw, core.TransactionWithdrawal)

	default:
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownOperation, op)
	}
}

func enveloped(op core.Operation) bool {
	ep, err := core.Lookup(op)
	return err == nil && ep.Enveloped
}

func (p *Protocol) parseError(statusCode int, body []byte) error {
	message := http.StatusText(statusCode)
	code := ""

	var payload errorPayload
	if err := sonic.Unmarshal(body, &payload); err == nil {
		if payload.Error != nil {
			if payload.Error.Message != "" {
				message = payload.Error.Message
			}
			code = payload.Error.Code.String()
		} else if payload.Message != "" {
			message = payload.Message
			code = payload.Code.String()
		}
	}

	exErr := core.NewStatusError(p.Name(), statusCode, message).WithRaw(string(body))
	if code != "" {
		exErr = exErr.WithCode(code)
	}
	return exErr
}

// SupportedOperations returns the operations this protocol implements.
func (p *Protocol) SupportedOperations() []core.Operation {
	return []core.Operation{
		core.OpListMarkets, core.OpListCurrencies, core.OpTicker24h,
		core.OpAllTickers24h, core.OpOrderBook, core.OpCandles,
		core.OpPublicTrades, core.OpAccounts, core.OpListOrders,
		core.OpListOrdersAll, core.OpGetOrder, core.OpCreateOrder,
		core.OpCancelOrder, core.OpCancelReplace, core.OpMyTrades,
		core.OpDepositAddress, core.OpListDeposits, core.OpListWithdrawals,
		core.OpCreateWithdrawal,
	}
}
