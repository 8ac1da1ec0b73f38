package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

const (
	contrarianTrendName = "contrarian-trend"

	DefaultLowVolPct  = 0.30
	DefaultHighVolPct = 0.30
)

// ContrarianTrend compra tokens poco volátiles que vienen cayendo y evita
// los muy volátiles que vienen subiendo.
//
// El conjunto a evitar solo excluye compras: no cierra posiciones abiertas.
type ContrarianTrend struct {
	lowVolPct  float64
	highVolPct float64
}

// ContrarianTrendConfig configura la estrategia.
type ContrarianTrendConfig struct {
	LowVolPct  float64
	HighVolPct float64
}

// NewContrarianTrend crea la estrategia con la configuración dada.
func NewContrarianTrend(cfg ContrarianTrendConfig) *ContrarianTrend {
	return &ContrarianTrend{lowVolPct: cfg.LowVolPct, highVolPct: cfg.HighVolPct}
}

// Name implementa Selector.
func (s *ContrarianTrend) Name() string {
	return contrarianTrendName
}

// Validate implementa Selector.
func (s *ContrarianTrend) Validate() error {
	if err := validatePct("low_vol_pct", s.lowVolPct); err != nil {
		return err
	}
	return validatePct("high_vol_pct", s.highVolPct)
}

// Params implementa Selector.
func (s *ContrarianTrend) Params() map[string]float64 {
	return map[string]float64{"low_vol_pct": s.lowVolPct, "high_vol_pct": s.highVolPct}
}

// Select implementa Selector.
func (s *ContrarianTrend) Select(capital decimal.Decimal, rows []domain.PricePoint) []Allocation {
	buy, _ := s.partition(rows)
	return equalAllocate(capital, buy)
}

// Avoid implementa Avoider: tokens del percentil alto de volatilidad con momentum > 0.
func (s *ContrarianTrend) Avoid(rows []domain.PricePoint) []string {
	_, avoid := s.partition(rows)
	out := make([]string, 0, len(avoid))
	for _, r := range avoid {
		out = append(out, r.TokenID)
	}
	return out
}

func (s *ContrarianTrend) partition(rows []domain.PricePoint) (buy, avoid []domain.PricePoint) {
	candidates := make([]domain.PricePoint, 0, len(rows))
	for _, r := range rows {
		if r.HasVolatility() && r.HasMomentum() {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	avoided := make(map[string]bool)
	for _, r := range largestByVolatility(candidates, selectCount(len(candidates), s.highVolPct)) {
		if r.Momentum30d.Decimal.IsPositive() {
			avoid = append(avoid, r)
			avoided[r.TokenID] = true
		}
	}

	for _, r := range smallestByVolatility(candidates, selectCount(len(candidates), s.lowVolPct)) {
		if r.Momentum30d.Decimal.IsNegative() && !avoided[r.TokenID] {
			buy = append(buy, r)
		}
	}
	return buy, avoid
}
