package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tokenfolio/config"
	"github.com/alejandrodnm/tokenfolio/internal/adapters/storage"
	"github.com/alejandrodnm/tokenfolio/internal/strategy"
)

func testApp(t *testing.T) *app {
	t.Helper()
	cfg, err := config.Parse([]byte("storage:\n  driver: sqlite\n  dsn: \":memory:\"\n"))
	require.NoError(t, err)
	return &app{cfg: cfg}
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("from", "2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d)

	d, err = parseDate("from", "")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = parseDate("to", "29/02/2024")
	assert.ErrorContains(t, err, "--to")
}

func TestSelectors_DefaultsToAll(t *testing.T) {
	a := testApp(t)

	sels, err := a.selectors(nil)
	require.NoError(t, err)
	require.Len(t, sels, 3)
	assert.Equal(t, "contrarian-trend", sels[0].Name())

	_, isAvoider := sels[0].(strategy.Avoider)
	assert.True(t, isAvoider)
}

func TestSelectors_Unknown(t *testing.T) {
	_, err := testApp(t).selectors([]string{"momentum"})
	assert.ErrorContains(t, err, "unknown strategy")
}

func TestParams_FromConfig(t *testing.T) {
	p := testApp(t).params()
	require.NoError(t, p.Validate())
	assert.Equal(t, 7, p.RebalanceIntervalDays)
	assert.Equal(t, "0.08", p.StopLossPct.String())
}

func TestEngine_WithoutRPC(t *testing.T) {
	a := testApp(t)
	a.cfg.Costs.EstimateGas = true

	e, err := a.engine(t.Context())
	require.NoError(t, err)
	assert.NotNil(t, e)
}

func TestOpenStore_Memory(t *testing.T) {
	store, err := testApp(t).openStore()
	require.NoError(t, err)
	defer store.Close()
	assert.Equal(t, storage.DriverSQLite, store.Driver())

	n, err := store.CountTokens(t.Context())
	require.NoError(t, err)
	assert.Zero(t, n)
}
