package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceRecord es una fila cruda de precio tal como la entrega la API y se guarda en la DB.
type PriceRecord struct {
	TokenAddress string
	Timestamp    time.Time
	Value        decimal.Decimal
	MarketCap    decimal.NullDecimal
	TotalVolume  decimal.NullDecimal
}

// PricePoint es una observación del universo que consume el motor de backtest.
// Volatility30d y Momentum30d son señales precalculadas y pueden faltar.
type PricePoint struct {
	TokenID       string
	Timestamp     time.Time
	Value         decimal.Decimal
	Volatility30d decimal.NullDecimal
	Momentum30d   decimal.NullDecimal
	MarketCap     decimal.NullDecimal
	TotalVolume   decimal.NullDecimal
}

// HasVolatility devuelve true si la señal de volatilidad está presente.
func (p PricePoint) HasVolatility() bool {
	return p.Volatility30d.Valid
}

// HasMomentum devuelve true si la señal de momentum está presente.
func (p PricePoint) HasMomentum() bool {
	return p.Momentum30d.Valid
}

// ToPricePoint convierte un registro crudo en PricePoint sin señales derivadas.
func (r PriceRecord) ToPricePoint() PricePoint {
	return PricePoint{
		TokenID:     r.TokenAddress,
		Timestamp:   r.Timestamp,
		Value:       r.Value,
		MarketCap:   r.MarketCap,
		TotalVolume: r.TotalVolume,
	}
}
