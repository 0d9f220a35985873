// Package orders provides a fluent builder for composing order
// requests before they are submitted to an exchange.
package orders

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"

	"raposa/pkg/core"
	"raposa/pkg/exchange"
)

// Builder accumulates order request fields and validation errors,
// reporting them on Build.
//
// Example:
//
//	req, err := orders.NewBuilder("BTC/BRL").
//	    Buy().
//	    Limit().
//	    Price("290000.0").
//	    Quantity("0.42").
//	    Build()
type Builder struct {
	req *exchange.OrderRequest
	err error
}

// NewBuilder creates an order builder for the given trading symbol.
func NewBuilder(symbol string) *Builder {
	return &Builder{
		req: &exchange.OrderRequest{
			Symbol: symbol,
			Side:   core.SideBuy,
			Type:   core.TypeLimit,
		},
	}
}

// Side sets the order side (buy or sell).
func (b *Builder) Side(side core.OrderSide) *Builder {
	if b.err != nil {
		return b
	}
	b.req.Side = side
	return b
}

// Buy sets the order side to buy.
func (b *Builder) Buy() *Builder {
	return b.Side(core.SideBuy)
}

// Sell sets the order side to sell.
func (b *Builder) Sell() *Builder {
	return b.Side(core.SideSell)
}

// Type sets the order type.
func (b *Builder) Type(orderType core.OrderType) *Builder {
	if b.err != nil {
		return b
	}
	b.req.Type = orderType
	return b
}

// Market sets the order type to market.
func (b *Builder) Market() *Builder {
	return b.Type(core.TypeMarket)
}

// Limit sets the order type to limit.
func (b *Builder) Limit() *Builder {
	return b.Type(core.TypeLimit)
}

// StopMarket sets the order type to stop-market.
func (b *Builder) StopMarket() *Builder {
	return b.Type(core.TypeStopMarket)
}

// Instant sets the order type to instant, which spends a quote-currency
// amount instead of a base quantity.
func (b *Builder) Instant() *Builder {
	return b.Type(core.TypeInstant)
}

// Price sets the limit price from a string representation.
func (b *Builder) Price(price string) *Builder {
	if b.err != nil {
		return b
	}
	if _, _, err := b.req.Price.SetString(price); err != nil {
		b.err = fmt.Errorf("parse price: %w", err)
	}
	return b
}

// PriceDecimal sets the limit price from an apd.Decimal value.
func (b *Builder) PriceDecimal(price apd.Decimal) *Builder {
	if b.err != nil {
		return b
	}
	b.req.Price.Set(&price)
	return b
}

// Quantity sets the base-currency quantity from a string representation.
func (b *Builder) Quantity(qty string) *Builder {
	if b.err != nil {
		return b
	}
	if _, _, err := b.req.Quantity.SetString(qty); err != nil {
		b.err = fmt.Errorf("parse quantity: %w", err)
	}
	return b
}

// QuantityDecimal sets the base-currency quantity from an apd.Decimal value.
func (b *Builder) QuantityDecimal(qty apd.Decimal) *Builder {
	if b.err != nil {
		return b
	}
	b.req.Quantity.Set(&qty)
	return b
}

// Amount sets the quote-currency amount for instant orders.
func (b *Builder) Amount(amount string) *Builder {
	if b.err != nil {
		return b
	}
	if _, _, err := b.req.Amount.SetString(amount); err != nil {
		b.err = fmt.Errorf("parse amount: %w", err)
	}
	return b
}

// StopPrice sets the trigger price for stop-market orders.
func (b *Builder) StopPrice(price string) *Builder {
	if b.err != nil {
		return b
	}
	if _, _, err := b.req.StopPrice.SetString(price); err != nil {
		b.err = fmt.Errorf("parse stop price: %w", err)
	}
	return b
}

// ClientOrderID sets a client-assigned identifier for order tracking.
func (b *Builder) ClientOrderID(id string) *Builder {
	if b.err != nil {
		return b
	}
	b.req.ClientOrderID = id
	return b
}

// GeneratedClientOrderID assigns a random UUID as the client identifier.
func (b *Builder) GeneratedClientOrderID() *Builder {
	return b.ClientOrderID(uuid.NewString())
}

// Remark attaches a free-form note to the order.
func (b *Builder) Remark(remark string) *Builder {
	if b.err != nil {
		return b
	}
	b.req.Remark = remark
	return b
}

// PostOnly marks the order as maker-only; it is rejected instead of
// crossing the book.
func (b *Builder) PostOnly() *Builder {
	if b.err != nil {
		return b
	}
	b.req.PostOnly = true
	return b
}

// Build validates and returns the constructed request. It returns an
// error when a required field is missing or invalid for the order type.
func (b *Builder) Build() (*exchange.OrderRequest, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := validate(b.req); err != nil {
		return nil, err
	}
	return b.req, nil
}

func validate(req *exchange.OrderRequest) error {
	if req.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if req.Side != core.SideBuy && req.Side != core.SideSell {
		return fmt.Errorf("invalid order side")
	}

	switch req.Type {
	case core.TypeLimit:
		if !positive(&req.Quantity) {
			return fmt.Errorf("quantity must be positive")
		}
		if !positive(&req.Price) {
			return fmt.Errorf("price must be positive for limit orders")
		}
	case core.TypeMarket:
		if !positive(&req.Quantity) {
			return fmt.Errorf("quantity must be positive")
		}
	case core.TypeStopMarket:
		if !positive(&req.Quantity) {
			return fmt.Errorf("quantity must be positive")
		}
		if !positive(&req.StopPrice) {
			return fmt.Errorf("stop price must be positive for stop orders")
		}
	case core.TypeInstant:
		if !positive(&req.Amount) {
			return fmt.Errorf("amount must be positive for instant orders")
		}
	default:
		return fmt.Errorf("invalid order type")
	}
	return nil
}

func positive(d *apd.Decimal) bool {
	return !d.IsZero() && !d.Negative
}
