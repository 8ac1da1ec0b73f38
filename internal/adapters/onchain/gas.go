package onchain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/tokenfolio/internal/adapters/httpclient"
)

const (
	// DefaultSwapGasLimit es una cota conservadora de gas para un swap en un DEX.
	DefaultSwapGasLimit = uint64(250_000)

	// DefaultNativeCoinID es el id de CoinGecko del token nativo de Arbitrum.
	DefaultNativeCoinID = "ethereum"

	defaultPriceURL       = "https://api.coingecko.com/api/v3"
	defaultNativeFallback = 3000.0
	gasPriceUpdate        = 5 * time.Minute
	nativePriceUpdate     = 15 * time.Minute
)

var fallbackGasWei = big.NewInt(100_000_000) // 0.1 gwei

// GasConfig configura el GasOracle. Los campos vacíos toman los valores por defecto.
type GasConfig struct {
	SwapGasLimit   uint64
	NativeCoinID   string
	PriceURL       string
	NativeFallback float64
}

// GasOracle implementa ports.GasOracle: gas price del nodo × límite de gas × precio USD del nativo.
type GasOracle struct {
	backend Backend
	http    *httpclient.Client
	cfg     GasConfig
	now     func() time.Time

	mu           sync.RWMutex
	cachedGasWei *big.Int
	gasAt        time.Time
	cachedNative decimal.Decimal
	nativeAt     time.Time
}

// NewGasOracle crea un oráculo de gas sobre backend.
func NewGasOracle(backend Backend, cfg GasConfig) *GasOracle {
	if cfg.SwapGasLimit == 0 {
		cfg.SwapGasLimit = DefaultSwapGasLimit
	}
	if cfg.NativeCoinID == "" {
		cfg.NativeCoinID = DefaultNativeCoinID
	}
	if cfg.PriceURL == "" {
		cfg.PriceURL = defaultPriceURL
	}
	if cfg.NativeFallback <= 0 {
		cfg.NativeFallback = defaultNativeFallback
	}
	return &GasOracle{
		backend: backend,
		http:    httpclient.New(httpclient.Options{RatePerSec: 0.5, Timeout: 10 * time.Second}),
		cfg:     cfg,
		now:     time.Now,
	}
}

// EstimateSwapCostUSD devuelve el coste estimado en USD de una transacción de swap.
func (g *GasOracle) EstimateSwapCostUSD(ctx context.Context) (decimal.Decimal, error) {
	gasWei, err := g.gasPrice(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("onchain.EstimateSwapCostUSD: %w", err)
	}

	native := g.nativePriceUSD(ctx)
	costNative := decimal.NewFromBigInt(gasWei, -18).Mul(decimal.NewFromInt(int64(g.cfg.SwapGasLimit)))
	cost := costNative.Mul(native)

	slog.Debug("swap cost estimated",
		"gas_wei", gasWei.String(),
		"gas_limit", g.cfg.SwapGasLimit,
		"native_usd", native.StringFixed(2),
		"cost_usd", cost.StringFixed(6),
	)
	return cost, nil
}

// gasPrice devuelve el gas price con un 10% de margen, cacheado unos minutos.
func (g *GasOracle) gasPrice(ctx context.Context) (*big.Int, error) {
	g.mu.RLock()
	cached := g.cachedGasWei
	updatedAt := g.gasAt
	g.mu.RUnlock()

	if cached != nil && g.now().Sub(updatedAt) < gasPriceUpdate {
		return cached, nil
	}

	price, err := g.backend.SuggestGasPrice(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("suggest gas price failed, using fallback", "err", err)
		if cached != nil {
			return cached, nil
		}
		return fallbackGasWei, nil
	}

	buffered := new(big.Int).Mul(price, big.NewInt(11))
	buffered.Div(buffered, big.NewInt(10))

	g.mu.Lock()
	g.cachedGasWei = buffered
	g.gasAt = g.now()
	g.mu.Unlock()

	return buffered, nil
}

// nativePriceUSD devuelve el precio cacheado del token nativo, refrescándolo de CoinGecko si está viejo.
func (g *GasOracle) nativePriceUSD(ctx context.Context) decimal.Decimal {
	g.mu.RLock()
	price := g.cachedNative
	updatedAt := g.nativeAt
	g.mu.RUnlock()

	if price.IsPositive() && g.now().Sub(updatedAt) < nativePriceUpdate {
		return price
	}

	fetched, err := g.fetchNativePrice(ctx)
	if err != nil {
		slog.Warn("native price fetch failed, using fallback", "coin", g.cfg.NativeCoinID, "err", err)
		if price.IsPositive() {
			return price
		}
		return decimal.NewFromFloat(g.cfg.NativeFallback)
	}

	g.mu.Lock()
	g.cachedNative = fetched
	g.nativeAt = g.now()
	g.mu.Unlock()

	return fetched
}

func (g *GasOracle) fetchNativePrice(ctx context.Context) (decimal.Decimal, error) {
	u := strings.TrimRight(g.cfg.PriceURL, "/") + "/simple/price?ids=" +
		url.QueryEscape(g.cfg.NativeCoinID) + "&vs_currencies=usd"

	var data map[string]map[string]decimal.Decimal
	if err := g.http.GetJSON(ctx, u, &data); err != nil {
		return decimal.Zero, err
	}

	price, ok := data[g.cfg.NativeCoinID]["usd"]
	if !ok || !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%s price not found in response", g.cfg.NativeCoinID)
	}
	return price, nil
}
