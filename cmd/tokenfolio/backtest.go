package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func backtestCmd(a *app) *cobra.Command {
	var (
		name       string
		from, to   string
		schema     string
		save       bool
		exportPath string
	)

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run one strategy over the stored price series",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if schema == "" {
				schema = a.cfg.Backtest.Schema
			}

			start, err := parseDate("from", from)
			if err != nil {
				return err
			}
			end, err := parseDate("to", to)
			if err != nil {
				return err
			}

			sels, err := a.selectors([]string{name})
			if err != nil {
				return err
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			loader, err := a.loader(store)
			if err != nil {
				return err
			}
			series, err := loader.LoadSeries(ctx, schema, start, end)
			if err != nil {
				return err
			}

			engine, err := a.engine(ctx)
			if err != nil {
				return err
			}

			result, err := engine.Run(ctx, series, a.params(), sels[0])
			if err != nil {
				return err
			}
			run := result.Record()

			if save {
				if err := store.SaveRun(ctx, run); err != nil {
					return err
				}
				slog.Info("run saved", "id", run.ID)
			}

			if exportPath != "" {
				if err := newExporter().ExportHistory(ctx, exportPath, run); err != nil {
					return err
				}
			}

			if err := a.notifier().NotifyRun(ctx, run); err != nil {
				return fmt.Errorf("notify: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "strategy", "s", "equal-weight", "strategy: equal-weight|low-volatility|contrarian-trend")
	cmd.Flags().StringVar(&from, "from", "", "first simulated date YYYY-MM-DD (default: first stored)")
	cmd.Flags().StringVar(&to, "to", "", "last simulated date YYYY-MM-DD (default: last stored)")
	cmd.Flags().StringVar(&schema, "schema", "", "price schema: backtest|live (default from config)")
	cmd.Flags().BoolVar(&save, "save", true, "persist the run in backtest_runs")
	cmd.Flags().StringVar(&exportPath, "export", "", "write the portfolio history to this Parquet file")
	return cmd
}
