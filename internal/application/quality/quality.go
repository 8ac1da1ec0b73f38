// Package quality decides which tokens are tradable on a given date.
package quality

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

// Filter returns the tokens eligible for selection on date.
type Filter interface {
	Eligible(series *domain.Series, date time.Time) (map[string]bool, error)
}

// Rules configure RuleFilter. Zero values disable each rule.
type Rules struct {
	MinHistory   int             // observations at or before date
	MaxGapDays   int             // days since the previous observation
	MinVolume    decimal.Decimal // total_volume floor; missing volume is ineligible
	MinMarketCap decimal.Decimal // market_cap floor; missing cap is ineligible
}

// RuleFilter applies Rules to every row on date. A row is always required to
// exist with a positive value.
type RuleFilter struct {
	rules Rules
}

// New validates rules and returns a filter.
func New(rules Rules) (*RuleFilter, error) {
	if rules.MinHistory < 0 {
		return nil, domain.NewConfigError("min_history", "must be >= 0, got %d", rules.MinHistory)
	}
	if rules.MaxGapDays < 0 {
		return nil, domain.NewConfigError("max_gap_days", "must be >= 0, got %d", rules.MaxGapDays)
	}
	if rules.MinVolume.IsNegative() {
		return nil, domain.NewConfigError("min_volume", "must be >= 0, got %s", rules.MinVolume)
	}
	if rules.MinMarketCap.IsNegative() {
		return nil, domain.NewConfigError("min_market_cap", "must be >= 0, got %s", rules.MinMarketCap)
	}
	return &RuleFilter{rules: rules}, nil
}

// Eligible implements Filter.
func (f *RuleFilter) Eligible(series *domain.Series, date time.Time) (map[string]bool, error) {
	if series == nil {
		return nil, errors.New("quality.Eligible: nil series")
	}

	out := make(map[string]bool)
	for _, row := range series.Rows(date) {
		if f.accept(series, row, date) {
			out[row.TokenID] = true
		}
	}
	return out, nil
}

func (f *RuleFilter) accept(series *domain.Series, row domain.PricePoint, date time.Time) bool {
	if !row.Value.IsPositive() {
		return false
	}
	if f.rules.MinHistory > 1 && series.Observations(row.TokenID, date) < f.rules.MinHistory {
		return false
	}
	if f.rules.MaxGapDays > 0 {
		if prev, ok := series.Previous(row.TokenID, date); ok {
			if date.Sub(prev) > time.Duration(f.rules.MaxGapDays)*24*time.Hour {
				return false
			}
		}
	}
	if f.rules.MinVolume.IsPositive() {
		if !row.TotalVolume.Valid || row.TotalVolume.Decimal.LessThan(f.rules.MinVolume) {
			return false
		}
	}
	if f.rules.MinMarketCap.IsPositive() {
		if !row.MarketCap.Valid || row.MarketCap.Decimal.LessThan(f.rules.MinMarketCap) {
			return false
		}
	}
	return true
}
