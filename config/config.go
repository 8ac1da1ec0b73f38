package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

// Config es la configuración completa de tokenfolio.
type Config struct {
	Chain    ChainConfig    `yaml:"chain"`
	API      APIConfig      `yaml:"api"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Backtest BacktestConfig `yaml:"backtest"`
	Strategy StrategyConfig `yaml:"strategy"`
	Quality  QualityConfig  `yaml:"quality"`
	Costs    CostsConfig    `yaml:"costs"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// ChainConfig identifica la cadena EVM y el nodo RPC.
type ChainConfig struct {
	ID           int64  `yaml:"id"`             // 42161 = Arbitrum One
	RPCURL       string `yaml:"rpc_url"`        // opcional: metadata on-chain y gas
	NativeCoinID string `yaml:"native_coin_id"` // id de CoinGecko del token nativo
	SwapGasLimit uint64 `yaml:"swap_gas_limit"`
}

// APIConfig contiene base URLs, claves y rate limits de las APIs externas.
type APIConfig struct {
	OneInchBase    string  `yaml:"oneinch_base"`
	OneInchKey     string  `yaml:"oneinch_key"`
	OneInchRate    float64 `yaml:"oneinch_rate"`
	AlchemyBase    string  `yaml:"alchemy_base"`
	AlchemyKey     string  `yaml:"alchemy_key"`
	AlchemyNetwork string  `yaml:"alchemy_network"`
	AlchemyRate    float64 `yaml:"alchemy_rate"`
	CoinGeckoBase  string  `yaml:"coingecko_base"`
}

// IngestConfig controla la descarga de precios.
type IngestConfig struct {
	MaxDaysPerRequest int `yaml:"max_days_per_request"`
	LookbackDays      int `yaml:"lookback_days"`
	Workers           int `yaml:"workers"`
	FeatureWindow     int `yaml:"feature_window"` // observaciones para volatilidad y momentum
}

// BacktestConfig contiene los parámetros del motor.
type BacktestConfig struct {
	Schema                string  `yaml:"schema"` // backtest | live
	InitialCapital        float64 `yaml:"initial_capital"`
	RebalanceIntervalDays int     `yaml:"rebalance_interval_days"`
	StopLossPct           float64 `yaml:"stop_loss_pct"`
	PoolLiquidity         float64 `yaml:"pool_liquidity"`
	SweepWorkers          int     `yaml:"sweep_workers"` // 0 = NumCPU
}

// StrategyConfig contiene los percentiles de las estrategias.
type StrategyConfig struct {
	BottomPct  float64 `yaml:"bottom_pct"`
	LowVolPct  float64 `yaml:"low_vol_pct"`
	HighVolPct float64 `yaml:"high_vol_pct"`
}

// QualityConfig define qué tokens son elegibles en cada rebalanceo. Los ceros desactivan la regla.
type QualityConfig struct {
	MinHistory   int     `yaml:"min_history"`
	MaxGapDays   int     `yaml:"max_gap_days"`
	MinVolume    float64 `yaml:"min_volume"`
	MinMarketCap float64 `yaml:"min_market_cap"`
}

// CostsConfig define el modelo de costes lineal.
type CostsConfig struct {
	FeeRate     float64 `yaml:"fee_rate"`
	GasFeeUSD   float64 `yaml:"gas_fee_usd"`
	EstimateGas bool    `yaml:"estimate_gas"` // si true y hay rpc_url, GasFeeUSD se reemplaza por la estimación on-chain
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	Driver string `yaml:"driver"` // sqlite | postgres
	DSN    string `yaml:"dsn"`    // ruta al archivo SQLite, ":memory:", o DSN de PostgreSQL
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Las variables de entorno sobreescriben los valores del YAML.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return cfg, nil
}

// Parse interpreta un documento YAML, aplica el entorno y los defaults, y valida.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("ONEINCH_API_KEY"); v != "" {
		cfg.API.OneInchKey = v
	}
	if v := os.Getenv("ONEINCH_CHAIN_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return domain.NewConfigError("ONEINCH_CHAIN_ID", "not an integer: %q", v)
		}
		cfg.Chain.ID = id
	}
	if v := os.Getenv("ALCHEMY_API_KEY"); v != "" {
		cfg.API.AlchemyKey = v
	}
	if v := os.Getenv("RPC_URL"); v != "" {
		cfg.Chain.RPCURL = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	// DATABASE_URL es la convención de los PaaS; STORAGE_DSN tiene prioridad.
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	return nil
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Chain.ID == 0 {
		cfg.Chain.ID = 42161
	}
	if cfg.Chain.NativeCoinID == "" {
		cfg.Chain.NativeCoinID = "ethereum"
	}
	if cfg.API.AlchemyNetwork == "" {
		cfg.API.AlchemyNetwork = "arb-mainnet"
	}
	if cfg.Ingest.MaxDaysPerRequest <= 0 {
		cfg.Ingest.MaxDaysPerRequest = 365
	}
	if cfg.Ingest.LookbackDays <= 0 {
		cfg.Ingest.LookbackDays = 120
	}
	if cfg.Ingest.Workers <= 0 {
		cfg.Ingest.Workers = 4
	}
	if cfg.Ingest.FeatureWindow <= 0 {
		cfg.Ingest.FeatureWindow = 30
	}
	if cfg.Backtest.Schema == "" {
		cfg.Backtest.Schema = "backtest"
	}
	if cfg.Backtest.InitialCapital == 0 {
		cfg.Backtest.InitialCapital = 10000
	}
	if cfg.Backtest.RebalanceIntervalDays == 0 {
		cfg.Backtest.RebalanceIntervalDays = 7
	}
	if cfg.Backtest.StopLossPct == 0 {
		cfg.Backtest.StopLossPct = 0.08
	}
	if cfg.Backtest.PoolLiquidity == 0 {
		cfg.Backtest.PoolLiquidity = 100_000_000
	}
	if cfg.Strategy.BottomPct == 0 {
		cfg.Strategy.BottomPct = 0.10
	}
	if cfg.Strategy.LowVolPct == 0 {
		cfg.Strategy.LowVolPct = 0.30
	}
	if cfg.Strategy.HighVolPct == 0 {
		cfg.Strategy.HighVolPct = 0.30
	}
	if cfg.Quality.MinHistory <= 0 {
		cfg.Quality.MinHistory = 1
	}
	if cfg.Costs.FeeRate == 0 {
		cfg.Costs.FeeRate = 0.003
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "tokenfolio.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// Validate rechaza valores que ningún componente acepta. Los rangos de los
// parámetros del motor y de las estrategias se validan también en su propio paquete.
func (c *Config) Validate() error {
	if c.Chain.ID <= 0 {
		return domain.NewConfigError("chain.id", "must be > 0, got %d", c.Chain.ID)
	}
	switch c.Storage.Driver {
	case "sqlite", "postgres":
	default:
		return domain.NewConfigError("storage.driver", "must be sqlite or postgres, got %q", c.Storage.Driver)
	}
	switch c.Backtest.Schema {
	case "backtest", "live":
	default:
		return domain.NewConfigError("backtest.schema", "must be backtest or live, got %q", c.Backtest.Schema)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return domain.NewConfigError("log.level", "unknown level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return domain.NewConfigError("log.format", "must be text or json, got %q", c.Log.Format)
	}
	if c.Backtest.InitialCapital <= 0 {
		return domain.NewConfigError("backtest.initial_capital", "must be > 0, got %v", c.Backtest.InitialCapital)
	}
	if c.Backtest.RebalanceIntervalDays <= 0 {
		return domain.NewConfigError("backtest.rebalance_interval_days", "must be > 0, got %d", c.Backtest.RebalanceIntervalDays)
	}
	if c.Costs.FeeRate < 0 || c.Costs.FeeRate >= 1 {
		return domain.NewConfigError("costs.fee_rate", "must be in [0,1), got %v", c.Costs.FeeRate)
	}
	if c.Costs.GasFeeUSD < 0 {
		return domain.NewConfigError("costs.gas_fee_usd", "must be >= 0, got %v", c.Costs.GasFeeUSD)
	}
	if c.Ingest.FeatureWindow < 2 {
		return domain.NewConfigError("ingest.feature_window", "must be >= 2, got %d", c.Ingest.FeatureWindow)
	}
	if c.Ingest.MaxDaysPerRequest > 365 {
		return domain.NewConfigError("ingest.max_days_per_request", "the price API accepts at most 365 days, got %d", c.Ingest.MaxDaysPerRequest)
	}
	return nil
}
