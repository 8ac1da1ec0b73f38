package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

const (
	lowVolatilityName = "low-volatility"

	// DefaultBottomPct es la fracción de tokens menos volátiles que se mantiene.
	DefaultBottomPct = 0.10
)

// LowVolatility compra la fracción menos volátil del universo elegible.
type LowVolatility struct {
	bottomPct float64
}

// LowVolatilityConfig configura la estrategia.
type LowVolatilityConfig struct {
	BottomPct float64
}

// NewLowVolatility crea la estrategia con la configuración dada.
func NewLowVolatility(cfg LowVolatilityConfig) *LowVolatility {
	return &LowVolatility{bottomPct: cfg.BottomPct}
}

// Name implementa Selector.
func (s *LowVolatility) Name() string {
	return lowVolatilityName
}

// Validate implementa Selector.
func (s *LowVolatility) Validate() error {
	return validatePct("bottom_pct", s.bottomPct)
}

// Params implementa Selector.
func (s *LowVolatility) Params() map[string]float64 {
	return map[string]float64{"bottom_pct": s.bottomPct}
}

// Select implementa Selector. Solo considera filas con volatility_30d.
func (s *LowVolatility) Select(capital decimal.Decimal, rows []domain.PricePoint) []Allocation {
	candidates := make([]domain.PricePoint, 0, len(rows))
	for _, r := range rows {
		if r.HasVolatility() {
			candidates = append(candidates, r)
		}
	}
	k := selectCount(len(candidates), s.bottomPct)
	if k == 0 {
		return nil
	}
	return equalAllocate(capital, smallestByVolatility(candidates, k))
}
