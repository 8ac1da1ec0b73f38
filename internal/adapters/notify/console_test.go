package notify_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tokenfolio/internal/adapters/notify"
	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

func makeRun(id, strategy string, final float64) domain.RunRecord {
	d0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	history := domain.PortfolioHistory{
		{Date: d0, PortfolioValue: decimal.NewFromInt(10000), PositionCount: 2},
		{Date: d0.AddDate(0, 0, 1), PortfolioValue: decimal.NewFromFloat(final), PositionCount: 2},
	}
	return domain.RunRecord{
		ID:             id,
		Strategy:       strategy,
		Params:         `{"initial_capital":"10000"}`,
		StartedAt:      d0,
		InitialCapital: decimal.NewFromInt(10000),
		Summary:        domain.Summarize(decimal.NewFromInt(10000), history),
		Stats:          domain.RunStats{Rebalances: 1, StopLossExits: 3, DataGaps: 2},
		History:        history,
	}
}

func TestConsole_NotifyRun_Table(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true, 5)

	err := n.NotifyRun(context.Background(), makeRun("0123456789abcdef", "equal-weight", 10500))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "BACKTEST equal-weight (01234567)")
	assert.Contains(t, out, "$10500.00")
	assert.Contains(t, out, "+5.00%")
	assert.Contains(t, out, "stop-loss exits: 3")
	assert.Contains(t, out, "2024-01-02")
}

func TestConsole_NotifyRun_Compact(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false, 0)

	require.NoError(t, n.NotifyRun(context.Background(), makeRun("abc", "low-volatility", 9000)))

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.Contains(t, out, "[abc] low-volatility")
	assert.Contains(t, out, "-10.00%")
}

func TestConsole_NotifyRuns_Table(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true, 0)

	runs := []domain.RunRecord{
		makeRun("run-one-id", "equal-weight", 10500),
		makeRun("run-two-id", "contrarian-trend", 9800),
	}
	require.NoError(t, n.NotifyRuns(context.Background(), runs))

	out := buf.String()
	assert.Contains(t, out, "equal-weight")
	assert.Contains(t, out, "contrarian-trend")
	assert.Contains(t, out, "10500.00")
	assert.Contains(t, out, "-2.00%")
}

func TestConsole_NotifyRuns_Empty(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true, 0)

	require.NoError(t, n.NotifyRuns(context.Background(), nil))
	assert.Contains(t, buf.String(), "no runs found")
}
