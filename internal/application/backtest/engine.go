// Package backtest simulates periodic portfolio rebalancing over a price series.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/tokenfolio/internal/application/costs"
	"github.com/alejandrodnm/tokenfolio/internal/application/quality"
	"github.com/alejandrodnm/tokenfolio/internal/domain"
	"github.com/alejandrodnm/tokenfolio/internal/strategy"
)

// Engine runs backtests. It holds no per-run state and is safe for concurrent use.
type Engine struct {
	filter quality.Filter
	costs  costs.Model
}

// NewEngine wires the quality filter and cost model shared by all runs.
func NewEngine(filter quality.Filter, model costs.Model) *Engine {
	return &Engine{filter: filter, costs: model}
}

// Run simulates sel over series, one step per distinct timestamp.
//
// A rebalance happens when at least RebalanceIntervalDays steps have passed
// since the previous one; the first step always rebalances. Positions are
// replaced wholesale on every rebalance. Tokens missing a row today or on the
// previous step are skipped for that day and counted as data gaps.
func (e *Engine) Run(ctx context.Context, series *domain.Series, params Params, sel strategy.Selector) (Result, error) {
	if sel == nil {
		return Result{}, domain.NewConfigError("strategy", "is required")
	}
	if err := params.Validate(); err != nil {
		return Result{}, err
	}
	if err := sel.Validate(); err != nil {
		return Result{}, err
	}
	if series == nil {
		return Result{}, errors.New("backtest.Run: nil series")
	}

	res := Result{
		RunID:          uuid.New().String(),
		Strategy:       sel.Name(),
		StrategyParams: sel.Params(),
		Params:         params,
		StartedAt:      time.Now().UTC(),
	}

	dates := series.Dates()
	state := domain.NewPortfolioState(params.InitialCapital)
	history := make(domain.PortfolioHistory, 0, len(dates))
	lastRebalance := -params.RebalanceIntervalDays

	for day, date := range dates {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("backtest.Run: %w", err)
		}

		if day-lastRebalance >= params.RebalanceIntervalDays {
			lastRebalance = day
			res.Stats.Rebalances++

			opened, err := e.rebalance(series, date, state, sel)
			if err != nil {
				return Result{}, err
			}
			if opened == 0 {
				res.Stats.EmptyRebalances++
				history = append(history, domain.Snapshot{Date: date, PortfolioValue: state.Capital})
				continue
			}
		}

		if day > 0 {
			e.applyDailyReturn(series, dates[day-1], date, state, params, &res.Stats)
		}

		history = append(history, domain.Snapshot{
			Date:           date,
			PortfolioValue: state.Capital,
			PositionCount:  len(state.Positions),
		})
	}

	res.History = history
	res.Summary = domain.Summarize(params.InitialCapital, history)

	slog.Debug("backtest finished",
		"run_id", res.RunID,
		"strategy", res.Strategy,
		"snapshots", len(history),
		"final_value", res.Summary.FinalValue.StringFixed(2),
		"rebalances", res.Stats.Rebalances,
		"stop_loss_exits", res.Stats.StopLossExits,
		"data_gaps", res.Stats.DataGaps,
	)
	return res, nil
}

// rebalance replaces the positions with the selector's picks and returns how many were opened.
func (e *Engine) rebalance(series *domain.Series, date time.Time, state *domain.PortfolioState, sel strategy.Selector) (int, error) {
	eligible, err := e.filter.Eligible(series, date)
	if err != nil {
		return 0, fmt.Errorf("backtest.rebalance: quality filter at %s: %w", date.Format(time.DateOnly), err)
	}

	all := series.Rows(date)
	rows := make([]domain.PricePoint, 0, len(eligible))
	for _, r := range all {
		if eligible[r.TokenID] {
			rows = append(rows, r)
		}
	}

	if avoider, ok := sel.(strategy.Avoider); ok {
		if avoid := avoider.Avoid(rows); len(avoid) > 0 {
			slog.Debug("avoid set", "date", date.Format(time.DateOnly), "tokens", avoid)
		}
	}

	positions := make(map[string]domain.Position)
	for _, a := range sel.Select(state.Capital, rows) {
		positions[a.TokenID] = domain.Position{
			EntryPrice: e.entryPrice(a),
			Allocation: a.Amount,
		}
	}
	state.Positions = positions
	return len(positions), nil
}

// entryPrice embeds the transaction cost into the quoted price.
func (e *Engine) entryPrice(a strategy.Allocation) decimal.Decimal {
	if !a.Amount.IsPositive() {
		return a.Price
	}
	tx := e.costs.TransactionCost(a.Amount)
	return a.Price.Mul(decimal.NewFromInt(1).Add(tx.Div(a.Amount)))
}

func (e *Engine) applyDailyReturn(series *domain.Series, prev, date time.Time, state *domain.PortfolioState, params Params, stats *domain.RunStats) {
	threshold := params.StopLossPct.Neg()
	daily := decimal.Zero
	var exits []string

	tokens := make([]string, 0, len(state.Positions))
	for tok := range state.Positions {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)

	for _, tok := range tokens {
		pos := state.Positions[tok]
		today, ok := series.At(tok, date)
		if !ok {
			stats.DataGaps++
			continue
		}
		yesterday, ok := series.At(tok, prev)
		if !ok || yesterday.Value.IsZero() || pos.EntryPrice.IsZero() || state.Capital.IsZero() {
			stats.DataGaps++
			continue
		}

		pnl := today.Value.Sub(pos.EntryPrice).Div(pos.EntryPrice)
		weight := pos.Allocation.Div(state.Capital)
		raw := today.Value.Sub(yesterday.Value).Div(yesterday.Value)
		daily = daily.Add(raw.Mul(weight))

		if pnl.LessThan(threshold) {
			daily = daily.Sub(e.exitPenalty(pos.Allocation, params.PoolLiquidity))
			exits = append(exits, tok)
			slog.Debug("stop-loss exit",
				"date", date.Format(time.DateOnly),
				"token", tok,
				"pnl", pnl.StringFixed(4),
			)
		}
	}

	for _, tok := range exits {
		delete(state.Positions, tok)
	}
	stats.StopLossExits += len(exits)
	state.Capital = state.Capital.Mul(decimal.NewFromInt(1).Add(daily))
}

// exitPenalty is slippage plus transaction cost, as a fraction of the allocation.
func (e *Engine) exitPenalty(allocation, pool decimal.Decimal) decimal.Decimal {
	if !allocation.IsPositive() {
		return decimal.Zero
	}
	slip := e.costs.SlippageCost(allocation, pool).Div(allocation)
	tx := e.costs.TransactionCost(allocation).Div(allocation)
	return slip.Add(tx)
}
