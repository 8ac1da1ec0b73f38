package backtest

import (
	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

// Params are the engine knobs shared by every strategy.
type Params struct {
	InitialCapital        decimal.Decimal `json:"initial_capital"`
	RebalanceIntervalDays int             `json:"rebalance_interval_days"`
	StopLossPct           decimal.Decimal `json:"stop_loss_pct"`
	PoolLiquidity         decimal.Decimal `json:"pool_liquidity"`
}

// DefaultParams returns 10,000 of capital, weekly rebalances, an 8% stop-loss
// and a 100M pool.
func DefaultParams() Params {
	return Params{
		InitialCapital:        decimal.NewFromInt(10_000),
		RebalanceIntervalDays: 7,
		StopLossPct:           decimal.RequireFromString("0.08"),
		PoolLiquidity:         decimal.NewFromInt(100_000_000),
	}
}

// Validate returns a *domain.ConfigError for the first out-of-range field.
func (p Params) Validate() error {
	if !p.InitialCapital.IsPositive() {
		return domain.NewConfigError("initial_capital", "must be > 0, got %s", p.InitialCapital)
	}
	if p.RebalanceIntervalDays <= 0 {
		return domain.NewConfigError("rebalance_interval_days", "must be > 0, got %d", p.RebalanceIntervalDays)
	}
	if p.StopLossPct.IsNegative() || p.StopLossPct.GreaterThan(decimal.NewFromInt(1)) {
		return domain.NewConfigError("stop_loss_pct", "must be within [0,1], got %s", p.StopLossPct)
	}
	if !p.PoolLiquidity.IsPositive() {
		return domain.NewConfigError("pool_liquidity", "must be > 0, got %s", p.PoolLiquidity)
	}
	return nil
}
