package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/tokenfolio/internal/adapters/alchemy"
	"github.com/alejandrodnm/tokenfolio/internal/adapters/export"
	"github.com/alejandrodnm/tokenfolio/internal/adapters/notify"
	"github.com/alejandrodnm/tokenfolio/internal/adapters/onchain"
	"github.com/alejandrodnm/tokenfolio/internal/adapters/oneinch"
	"github.com/alejandrodnm/tokenfolio/internal/adapters/storage"
	"github.com/alejandrodnm/tokenfolio/internal/application/backtest"
	"github.com/alejandrodnm/tokenfolio/internal/application/costs"
	"github.com/alejandrodnm/tokenfolio/internal/application/dataset"
	"github.com/alejandrodnm/tokenfolio/internal/application/features"
	"github.com/alejandrodnm/tokenfolio/internal/application/ingest"
	"github.com/alejandrodnm/tokenfolio/internal/application/quality"
	"github.com/alejandrodnm/tokenfolio/internal/ports"
	"github.com/alejandrodnm/tokenfolio/internal/strategy"
)

func (a *app) openStore() (*storage.SQLStorage, error) {
	store, err := storage.Open(a.cfg.Storage.Driver, a.cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("open storage %s: %w", a.cfg.Storage.Driver, err)
	}
	slog.Debug("storage opened", "driver", store.Driver())
	return store, nil
}

func (a *app) notifier() ports.Notifier {
	return notify.NewConsole(a.table, 10)
}

func newExporter() ports.HistoryExporter {
	return export.NewParquet()
}

// collector arma el ingest con los clientes de 1inch y Alchemy. Si hay rpc_url
// también lee metadata ERC-20 on-chain; close libera la conexión RPC.
func (a *app) collector(ctx context.Context, store ingest.Store) (c *ingest.Collector, closeFn func()) {
	cfg := a.cfg
	tokens := oneinch.NewClient(oneinch.Config{
		BaseURL:    cfg.API.OneInchBase,
		APIKey:     cfg.API.OneInchKey,
		ChainID:    cfg.Chain.ID,
		RatePerSec: cfg.API.OneInchRate,
	})
	prices := alchemy.NewClient(alchemy.Config{
		BaseURL:    cfg.API.AlchemyBase,
		APIKey:     cfg.API.AlchemyKey,
		Network:    cfg.API.AlchemyNetwork,
		RatePerSec: cfg.API.AlchemyRate,
	})

	var metadata ports.TokenMetadataReader
	closeFn = func() {}
	if cfg.Chain.RPCURL != "" {
		client, err := onchain.Dial(ctx, cfg.Chain.RPCURL)
		if err != nil {
			slog.Warn("rpc unavailable, skipping on-chain metadata", "err", err)
		} else {
			metadata = onchain.NewMetadataReader(client, cfg.Chain.ID)
			closeFn = client.Close
		}
	}

	c = ingest.New(ingest.Config{
		MaxDaysPerRequest: cfg.Ingest.MaxDaysPerRequest,
		LookbackDays:      cfg.Ingest.LookbackDays,
		Workers:           cfg.Ingest.Workers,
	}, tokens, prices, store, metadata)
	return c, closeFn
}

func (a *app) loader(store ports.PriceStore) (*dataset.Loader, error) {
	deriver, err := features.New(a.cfg.Ingest.FeatureWindow)
	if err != nil {
		return nil, err
	}
	return dataset.NewLoader(store, deriver), nil
}

// engine arma el motor con el filtro de calidad y el modelo de costes.
// Con estimate_gas y rpc_url, el gas fijo se reemplaza por la estimación on-chain.
func (a *app) engine(ctx context.Context) (*backtest.Engine, error) {
	cfg := a.cfg

	filter, err := quality.New(quality.Rules{
		MinHistory:   cfg.Quality.MinHistory,
		MaxGapDays:   cfg.Quality.MaxGapDays,
		MinVolume:    decimal.NewFromFloat(cfg.Quality.MinVolume),
		MinMarketCap: decimal.NewFromFloat(cfg.Quality.MinMarketCap),
	})
	if err != nil {
		return nil, err
	}

	model := costs.Linear{
		FeeRate: decimal.NewFromFloat(cfg.Costs.FeeRate),
		GasFee:  decimal.NewFromFloat(cfg.Costs.GasFeeUSD),
	}
	if cfg.Costs.EstimateGas {
		if gas, ok := a.estimateGas(ctx); ok {
			model.GasFee = gas
		}
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}

	slog.Info("cost model", "model", model.String())
	return backtest.NewEngine(filter, model), nil
}

func (a *app) estimateGas(ctx context.Context) (decimal.Decimal, bool) {
	if a.cfg.Chain.RPCURL == "" {
		slog.Warn("estimate_gas set without rpc_url, keeping configured gas fee")
		return decimal.Zero, false
	}

	client, err := onchain.Dial(ctx, a.cfg.Chain.RPCURL)
	if err != nil {
		slog.Warn("rpc unavailable, keeping configured gas fee", "err", err)
		return decimal.Zero, false
	}
	defer client.Close()

	oracle := onchain.NewGasOracle(client, onchain.GasConfig{
		SwapGasLimit: a.cfg.Chain.SwapGasLimit,
		NativeCoinID: a.cfg.Chain.NativeCoinID,
		PriceURL:     a.cfg.API.CoinGeckoBase,
	})
	gas, err := oracle.EstimateSwapCostUSD(ctx)
	if err != nil {
		slog.Warn("gas estimate failed, keeping configured gas fee", "err", err)
		return decimal.Zero, false
	}
	slog.Info("gas fee estimated on-chain", "usd", gas.StringFixed(4))
	return gas, true
}

func (a *app) params() backtest.Params {
	cfg := a.cfg.Backtest
	return backtest.Params{
		InitialCapital:        decimal.NewFromFloat(cfg.InitialCapital),
		RebalanceIntervalDays: cfg.RebalanceIntervalDays,
		StopLossPct:           decimal.NewFromFloat(cfg.StopLossPct),
		PoolLiquidity:         decimal.NewFromFloat(cfg.PoolLiquidity),
	}
}

func (a *app) registry() strategy.Registry {
	cfg := a.cfg.Strategy
	r := strategy.NewRegistry()
	r.Register(strategy.NewEqualWeight())
	r.Register(strategy.NewLowVolatility(strategy.LowVolatilityConfig{BottomPct: cfg.BottomPct}))
	r.Register(strategy.NewContrarianTrend(strategy.ContrarianTrendConfig{
		LowVolPct:  cfg.LowVolPct,
		HighVolPct: cfg.HighVolPct,
	}))
	return r
}

func (a *app) selectors(names []string) ([]strategy.Selector, error) {
	r := a.registry()
	if len(names) == 0 {
		names = r.Names()
	}
	out := make([]strategy.Selector, 0, len(names))
	for _, n := range names {
		s, ok := r.Get(strings.TrimSpace(n))
		if !ok {
			return nil, fmt.Errorf("unknown strategy %q (available: %s)", n, strings.Join(r.Names(), ", "))
		}
		out = append(out, s)
	}
	return out, nil
}

// parseDate acepta YYYY-MM-DD; vacío devuelve el tiempo cero.
func parseDate(flag, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: expected YYYY-MM-DD, got %q", flag, v)
	}
	return t, nil
}
