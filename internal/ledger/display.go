package ledger

import (
	"github.com/shopspring/decimal"
	"github.com/slicesapp/Slices_Api/internal/models"
)

// PriceTable mapea código de moneda a su precio unitario en USD
type PriceTable map[string]decimal.Decimal

var hundred = decimal.NewFromInt(100)

// DefaultPrices devuelve la tabla de cotizaciones de arranque, la misma
// que usaban los prototipos antes de conectar una fuente real
func DefaultPrices() PriceTable {
	return PriceTable{
		"ETH":  decimal.NewFromInt(3500),
		"BTC":  decimal.NewFromInt(70000),
		"USDC": decimal.NewFromInt(1),
		"USDT": decimal.NewFromInt(1),
		"DAI":  decimal.NewFromInt(1),
		"POL":  decimal.NewFromFloat(0.7),
	}
}

// ComputeDisplay proyecta una slice a su vista de presentación. Es una
// función pura: mismos inputs, mismos outputs, sin efectos.
//
// Una moneda sin entrada en la tabla se trata como precio 0, no como
// error: el equivalente en USD sale 0. Es el comportamiento tolerante
// heredado de los prototipos; si se endurece, endurecer también acá.
func ComputeDisplay(s models.Slice, prices PriceTable) models.DisplaySlice {
	display := models.DisplaySlice{
		Slice:    s.Clone(),
		IsCrypto: models.IsCryptoCurrency(s.Currency),
	}

	if display.IsCrypto {
		usd := s.CurrentAmount.Mul(prices[s.Currency])
		display.USDEquivalent = &usd
	} else if s.Currency == "USD" {
		usd := s.CurrentAmount
		display.USDEquivalent = &usd
	}

	// Porcentaje completado, sin exceder nunca el 100%
	switch {
	case s.Goal.IsPositive():
		percent := s.CurrentAmount.Div(s.Goal).Mul(hundred)
		if percent.GreaterThan(hundred) {
			percent = hundred
		}
		display.PercentCompleted = percent.InexactFloat64()
	case s.CurrentAmount.IsPositive():
		display.PercentCompleted = 100
	default:
		display.PercentCompleted = 0
	}

	remaining := s.Goal.Sub(s.CurrentAmount)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	display.RemainingAmount = remaining

	return display
}
