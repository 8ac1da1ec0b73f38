package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tokenfolio/config"
	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ONEINCH_API_KEY", "ONEINCH_CHAIN_ID", "ALCHEMY_API_KEY", "RPC_URL",
		"STORAGE_DRIVER", "STORAGE_DSN", "DATABASE_URL", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_BundledConfig(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load("config.yaml")
	require.NoError(t, err)

	assert.Equal(t, int64(42161), cfg.Chain.ID)
	assert.Equal(t, "arb-mainnet", cfg.API.AlchemyNetwork)
	assert.Equal(t, 365, cfg.Ingest.MaxDaysPerRequest)
	assert.Equal(t, 30, cfg.Quality.MinHistory)
	assert.Equal(t, 7, cfg.Backtest.RebalanceIntervalDays)
	assert.InDelta(t, 0.08, cfg.Backtest.StopLossPct, 1e-12)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "config.Load: read")
}

func TestParse_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Parse([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, int64(42161), cfg.Chain.ID)
	assert.Equal(t, "ethereum", cfg.Chain.NativeCoinID)
	assert.Equal(t, 120, cfg.Ingest.LookbackDays)
	assert.Equal(t, 30, cfg.Ingest.FeatureWindow)
	assert.Equal(t, "backtest", cfg.Backtest.Schema)
	assert.InDelta(t, 10000, cfg.Backtest.InitialCapital, 1e-9)
	assert.InDelta(t, 1e8, cfg.Backtest.PoolLiquidity, 1e-3)
	assert.InDelta(t, 0.10, cfg.Strategy.BottomPct, 1e-12)
	assert.InDelta(t, 0.003, cfg.Costs.FeeRate, 1e-12)
	assert.Equal(t, 1, cfg.Quality.MinHistory)
	assert.Equal(t, "tokenfolio.db", cfg.Storage.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestParse_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ONEINCH_API_KEY", "k1")
	t.Setenv("ONEINCH_CHAIN_ID", "8453")
	t.Setenv("ALCHEMY_API_KEY", "k2")
	t.Setenv("RPC_URL", "http://localhost:8545")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://from-paas")
	t.Setenv("STORAGE_DSN", "postgres://explicit")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := config.Parse([]byte("storage:\n  driver: sqlite\n  dsn: file.db\n"))
	require.NoError(t, err)

	assert.Equal(t, "k1", cfg.API.OneInchKey)
	assert.Equal(t, int64(8453), cfg.Chain.ID)
	assert.Equal(t, "k2", cfg.API.AlchemyKey)
	assert.Equal(t, "http://localhost:8545", cfg.Chain.RPCURL)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "postgres://explicit", cfg.Storage.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestParse_DatabaseURLFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://from-paas")

	cfg, err := config.Parse([]byte("storage:\n  driver: postgres\n"))
	require.NoError(t, err)
	assert.Equal(t, "postgres://from-paas", cfg.Storage.DSN)
}

func TestParse_BadChainID(t *testing.T) {
	clearEnv(t)
	t.Setenv("ONEINCH_CHAIN_ID", "arbitrum")

	_, err := config.Parse([]byte("{}"))
	var cfgErr *domain.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "ONEINCH_CHAIN_ID", cfgErr.Field)
}

func TestParse_Validation(t *testing.T) {
	clearEnv(t)

	cases := map[string]string{
		"storage.driver":                   "storage:\n  driver: mysql\n",
		"backtest.schema":                  "backtest:\n  schema: staging\n",
		"log.format":                       "log:\n  format: xml\n",
		"log.level":                        "log:\n  level: trace\n",
		"backtest.initial_capital":         "backtest:\n  initial_capital: -5\n",
		"backtest.rebalance_interval_days": "backtest:\n  rebalance_interval_days: -1\n",
		"costs.fee_rate":                   "costs:\n  fee_rate: 1.5\n",
		"ingest.max_days_per_request":      "ingest:\n  max_days_per_request: 400\n",
	}
	for field, doc := range cases {
		_, err := config.Parse([]byte(doc))
		require.Error(t, err, field)
		assert.True(t, errors.Is(err, domain.ErrInvalidConfig), field)

		var cfgErr *domain.ConfigError
		require.True(t, errors.As(err, &cfgErr), field)
		assert.Equal(t, field, cfgErr.Field)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := config.Parse([]byte("chain: [unterminated"))
	assert.ErrorContains(t, err, "parse YAML")
}

func TestLoad_FromTempFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backtest:\n  initial_capital: 500\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 500, cfg.Backtest.InitialCapital, 1e-9)
}
