// Package features derives the rolling signals the strategies select on.
package features

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

// DefaultWindow is the look-back, in observations, of both signals.
const DefaultWindow = 30

// Deriver computes momentum and volatility per token over a fixed window.
type Deriver struct {
	window int
}

// New returns a Deriver. window must be at least 2.
func New(window int) (*Deriver, error) {
	if window < 2 {
		return nil, domain.NewConfigError("feature_window", "must be >= 2, got %d", window)
	}
	return &Deriver{window: window}, nil
}

// Window returns the configured look-back.
func (d *Deriver) Window() int { return d.window }

// Derive turns raw records into price points, in input order.
//
// For each token ordered by timestamp, at observation t:
//
//	momentum   = value[t] / value[t-W] - 1
//	volatility = sample std-dev of the W simple returns ending at t
//
// Both stay null until W prior observations exist, or when a zero price
// would be a divisor.
func (d *Deriver) Derive(records []domain.PriceRecord) []domain.PricePoint {
	out := make([]domain.PricePoint, len(records))
	byToken := make(map[string][]int)
	for i, r := range records {
		out[i] = r.ToPricePoint()
		byToken[r.TokenAddress] = append(byToken[r.TokenAddress], i)
	}

	for _, idx := range byToken {
		sort.SliceStable(idx, func(a, b int) bool {
			return records[idx[a]].Timestamp.Before(records[idx[b]].Timestamp)
		})

		values := make([]float64, len(idx))
		for k, i := range idx {
			values[k] = records[i].Value.InexactFloat64()
		}

		for k, i := range idx {
			if m, ok := momentum(values, k, d.window); ok {
				out[i].Momentum30d = decimal.NewNullDecimal(decimal.NewFromFloat(m))
			}
			if v, ok := volatility(values, k, d.window); ok {
				out[i].Volatility30d = decimal.NewNullDecimal(decimal.NewFromFloat(v))
			}
		}
	}
	return out
}

func momentum(values []float64, t, window int) (float64, bool) {
	if t < window || values[t-window] == 0 {
		return 0, false
	}
	return values[t]/values[t-window] - 1, true
}

func volatility(values []float64, t, window int) (float64, bool) {
	if t < window {
		return 0, false
	}
	returns := make([]float64, 0, window)
	for j := t - window + 1; j <= t; j++ {
		if values[j-1] == 0 {
			return 0, false
		}
		returns = append(returns, values[j]/values[j-1]-1)
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	ss := 0.0
	for _, r := range returns {
		ss += (r - mean) * (r - mean)
	}
	return math.Sqrt(ss / float64(len(returns)-1)), true
}
