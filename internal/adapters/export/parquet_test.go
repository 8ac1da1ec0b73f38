package export_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tokenfolio/internal/adapters/export"
	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

func sampleRun() domain.RunRecord {
	d0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return domain.RunRecord{
		ID:       "run-1",
		Strategy: "low-volatility",
		History: domain.PortfolioHistory{
			{Date: d0, PortfolioValue: decimal.RequireFromString("10000"), PositionCount: 0},
			{Date: d0.AddDate(0, 0, 1), PortfolioValue: decimal.RequireFromString("10012.345678"), PositionCount: 3},
			{Date: d0.AddDate(0, 0, 2), PortfolioValue: decimal.RequireFromString("9990.5"), PositionCount: 2},
		},
	}
}

func TestParquet_ExportHistory_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "run-1.parquet")

	err := export.NewParquet().ExportHistory(context.Background(), path, sampleRun())
	require.NoError(t, err)

	rows, err := parquet.ReadFile[export.SnapshotRecord](path)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "run-1", rows[0].RunID)
	assert.Equal(t, "low-volatility", rows[0].Strategy)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC).UnixMilli(), rows[1].Timestamp)
	assert.Equal(t, "10012.345678", rows[1].PortfolioValue)
	assert.Equal(t, int32(3), rows[1].PositionCount)
	assert.InDelta(t, 9990.5, rows[2].ValueFloat, 1e-9)
}

func TestParquet_ExportHistory_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := export.NewParquet().ExportHistory(ctx, filepath.Join(t.TempDir(), "x.parquet"), sampleRun())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecords_EmptyHistory(t *testing.T) {
	assert.Empty(t, export.Records(domain.RunRecord{ID: "empty"}))
}
