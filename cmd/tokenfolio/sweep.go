package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/alejandrodnm/tokenfolio/internal/application/backtest"
	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

func sweepCmd(a *app) *cobra.Command {
	var (
		names      []string
		intervals  []int
		stopLosses []float64
		from, to   string
		schema     string
		workers    int
		save       bool
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run a grid of strategies × intervals × stop-losses concurrently",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if schema == "" {
				schema = a.cfg.Backtest.Schema
			}
			if workers <= 0 {
				workers = a.cfg.Backtest.SweepWorkers
			}

			start, err := parseDate("from", from)
			if err != nil {
				return err
			}
			end, err := parseDate("to", to)
			if err != nil {
				return err
			}

			sels, err := a.selectors(names)
			if err != nil {
				return err
			}
			sl := make([]decimal.Decimal, 0, len(stopLosses))
			for _, v := range stopLosses {
				sl = append(sl, decimal.NewFromFloat(v))
			}
			jobs := backtest.Grid(a.params(), intervals, sl, sels)

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

			began := time.Now()
			results, err := engine.Sweep(ctx, series, jobs, workers)
			if err != nil {
				return err
			}
			slog.Info("sweep complete", "runs", len(results), "elapsed", time.Since(began).Round(time.Millisecond))

			runs := make([]domain.RunRecord, 0, len(results))
			for _, r := range results {
				rec := r.Record()
				if save {
					if err := store.SaveRun(ctx, rec); err != nil {
						return err
					}
				}
				rec.History = nil
				runs = append(runs, rec)
			}

			if err := a.notifier().NotifyRuns(ctx, runs); err != nil {
				return fmt.Errorf("notify: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&names, "strategy", "s", nil, "strategies to include (default: all)")
	cmd.Flags().IntSliceVar(&intervals, "interval", nil, "rebalance intervals in days (default from config)")
	cmd.Flags().Float64SliceVar(&stopLosses, "stop-loss", nil, "stop-loss fractions (default from config)")
	cmd.Flags().StringVar(&from, "from", "", "first simulated date YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last simulated date YYYY-MM-DD")
	cmd.Flags().StringVar(&schema, "schema", "", "price schema: backtest|live (default from config)")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (default sweep_workers, 0 = NumCPU)")
	cmd.Flags().BoolVar(&save, "save", false, "persist every run in backtest_runs")
	return cmd
}
