package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// PeriodsPerYear annualiza el Sharpe: los mercados cripto operan todos los días.
const PeriodsPerYear = 365

// Summary resume una PortfolioHistory. Los ratios se calculan en float64.
type Summary struct {
	InitialValue decimal.Decimal
	FinalValue   decimal.Decimal
	TotalReturn  float64 // final/initial - 1
	MaxDrawdown  float64 // caída máxima desde un pico, positiva (0.25 = -25%)
	Sharpe       float64 // media/desvío de retornos diarios × √365
	Snapshots    int
}

// Summarize calcula las métricas de un historial contra el capital inicial.
// Con menos de dos retornos, o desvío cero, el Sharpe queda en 0.
func Summarize(initial decimal.Decimal, history PortfolioHistory) Summary {
	s := Summary{InitialValue: initial, FinalValue: initial, Snapshots: len(history)}
	if last, ok := history.Final(); ok {
		s.FinalValue = last.PortfolioValue
	}

	init := initial.InexactFloat64()
	if init > 0 {
		s.TotalReturn = s.FinalValue.InexactFloat64()/init - 1
	}

	peak := init
	prev := init
	returns := make([]float64, 0, len(history))
	for _, snap := range history {
		v := snap.PortfolioValue.InexactFloat64()
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > s.MaxDrawdown {
				s.MaxDrawdown = dd
			}
		}
		if prev > 0 {
			returns = append(returns, v/prev-1)
		}
		prev = v
	}

	s.Sharpe = sharpe(returns)
	return s
}

func sharpe(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)
	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(PeriodsPerYear)
}
