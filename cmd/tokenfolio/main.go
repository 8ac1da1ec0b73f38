package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alejandrodnm/tokenfolio/config"
)

// app contiene los flags globales y la configuración cargada.
type app struct {
	configPath string
	verbose    bool
	logFormat  string
	table      bool

	cfg *config.Config
}

func main() {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "tokenfolio",
		Short: "Ingest token prices and backtest portfolio strategies",
		Long: `tokenfolio downloads token lists and daily price history for an EVM chain,
stores them in SQLite or PostgreSQL, and backtests rebalancing strategies
(equal-weight, low-volatility, contrarian-trend) against the stored series.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "config/config.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "set log level to debug")
	rootCmd.PersistentFlags().StringVar(&a.logFormat, "format", "", "log format: text|json (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&a.table, "table", true, "print full tables (false: compact 1-line output)")

	rootCmd.AddCommand(tokensCmd(a))
	rootCmd.AddCommand(pricesCmd(a))
	rootCmd.AddCommand(backtestCmd(a))
	rootCmd.AddCommand(sweepCmd(a))
	rootCmd.AddCommand(runsCmd(a))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("tokenfolio failed", "err", err)
		cancel()
		os.Exit(1)
	}
}

// load carga la configuración y configura el logger antes de cada subcomando.
func (a *app) load(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	if a.verbose {
		cfg.Log.Level = "debug"
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	setupLogger(cfg.Log)

	a.cfg = cfg
	slog.Debug("config loaded",
		"config", a.configPath,
		"command", cmd.Name(),
		"chain_id", cfg.Chain.ID,
		"storage", cfg.Storage.Driver,
	)
	return nil
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	// Los logs van a stderr para no mezclarse con las tablas de stdout.
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
