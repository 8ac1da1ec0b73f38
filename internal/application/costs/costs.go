// Package costs models what a swap costs on a constant-product AMM.
package costs

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

// DefaultFeeRate is the proportional swap fee (0.3%).
var DefaultFeeRate = decimal.RequireFromString("0.003")

// Model prices a trade of a given notional. Implementations must be pure.
type Model interface {
	// TransactionCost is the fee charged on a trade of notional, in quote units.
	TransactionCost(notional decimal.Decimal) decimal.Decimal
	// SlippageCost is the price impact of a trade of notional against a pool
	// holding poolLiquidity, in quote units.
	SlippageCost(notional, poolLiquidity decimal.Decimal) decimal.Decimal
}

// Linear charges FeeRate on the notional plus a fixed GasFee per trade.
type Linear struct {
	FeeRate decimal.Decimal
	GasFee  decimal.Decimal
}

// NewDefault returns a Linear model with DefaultFeeRate and no gas fee.
func NewDefault() Linear {
	return Linear{FeeRate: DefaultFeeRate, GasFee: decimal.Zero}
}

// Validate rejects negative rates or fees.
func (m Linear) Validate() error {
	if m.FeeRate.IsNegative() || m.FeeRate.GreaterThan(decimal.NewFromInt(1)) {
		return domain.NewConfigError("fee_rate", "must be within [0,1], got %s", m.FeeRate)
	}
	if m.GasFee.IsNegative() {
		return domain.NewConfigError("gas_fee", "must be >= 0, got %s", m.GasFee)
	}
	return nil
}

// TransactionCost returns notional × FeeRate + GasFee, or zero for a non-positive notional.
func (m Linear) TransactionCost(notional decimal.Decimal) decimal.Decimal {
	if !notional.IsPositive() {
		return decimal.Zero
	}
	return notional.Mul(m.FeeRate).Add(m.GasFee)
}

// SlippageCost returns notional² / (poolLiquidity + notional).
func (m Linear) SlippageCost(notional, poolLiquidity decimal.Decimal) decimal.Decimal {
	if !notional.IsPositive() || !poolLiquidity.IsPositive() {
		return decimal.Zero
	}
	return notional.Mul(notional).Div(poolLiquidity.Add(notional))
}

func (m Linear) String() string {
	return fmt.Sprintf("linear(fee=%s, gas=%s)", m.FeeRate, m.GasFee)
}
