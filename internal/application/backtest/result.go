package backtest

import (
	"encoding/json"
	"time"

	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

// Result is the output of one run.
type Result struct {
	RunID          string
	Strategy       string
	StrategyParams map[string]float64
	Params         Params
	StartedAt      time.Time
	History        domain.PortfolioHistory
	Stats          domain.RunStats
	Summary        domain.Summary
}

type recordParams struct {
	Params
	Strategy map[string]float64 `json:"strategy"`
}

// Record converts the result into its persisted form.
func (r Result) Record() domain.RunRecord {
	raw, err := json.Marshal(recordParams{Params: r.Params, Strategy: r.StrategyParams})
	if err != nil {
		raw = []byte("{}")
	}
	return domain.RunRecord{
		ID:             r.RunID,
		Strategy:       r.Strategy,
		Params:         string(raw),
		StartedAt:      r.StartedAt,
		InitialCapital: r.Params.InitialCapital,
		Summary:        r.Summary,
		Stats:          r.Stats,
		History:        r.History,
	}
}
