package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is an open holding inside a backtest run.
// EntryPrice already includes the transaction cost paid at entry.
type Position struct {
	EntryPrice decimal.Decimal
	Allocation decimal.Decimal
}

// PortfolioState is owned by a single run and never shared.
type PortfolioState struct {
	Capital   decimal.Decimal
	Positions map[string]Position
}

// NewPortfolioState returns a state with no positions.
func NewPortfolioState(capital decimal.Decimal) *PortfolioState {
	return &PortfolioState{Capital: capital, Positions: make(map[string]Position)}
}

// Snapshot is the portfolio at the end of one simulated timestamp.
type Snapshot struct {
	Date           time.Time
	PortfolioValue decimal.Decimal
	PositionCount  int
}

// PortfolioHistory holds one snapshot per simulated timestamp, in order.
type PortfolioHistory []Snapshot

// Final returns the last snapshot, or false when the history is empty.
func (h PortfolioHistory) Final() (Snapshot, bool) {
	if len(h) == 0 {
		return Snapshot{}, false
	}
	return h[len(h)-1], true
}

// RunStats counts the non-fatal events of a run.
type RunStats struct {
	Rebalances      int
	EmptyRebalances int
	StopLossExits   int
	DataGaps        int
}
