package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/alejandrodnm/tokenfolio/internal/domain"
	"github.com/alejandrodnm/tokenfolio/internal/strategy"
)

// Job is one independent run of a sweep.
type Job struct {
	Params   Params
	Selector strategy.Selector
}

// Grid expands base over every combination of intervals, stop-losses and selectors.
// An empty dimension keeps the value from base.
func Grid(base Params, intervals []int, stopLosses []decimal.Decimal, selectors []strategy.Selector) []Job {
	if len(intervals) == 0 {
		intervals = []int{base.RebalanceIntervalDays}
	}
	if len(stopLosses) == 0 {
		stopLosses = []decimal.Decimal{base.StopLossPct}
	}

	jobs := make([]Job, 0, len(intervals)*len(stopLosses)*len(selectors))
	for _, sel := range selectors {
		for _, interval := range intervals {
			for _, sl := range stopLosses {
				p := base
				p.RebalanceIntervalDays = interval
				p.StopLossPct = sl
				jobs = append(jobs, Job{Params: p, Selector: sel})
			}
		}
	}
	return jobs
}

// Sweep runs jobs concurrently over the same series with at most workers runs
// in flight (NumCPU when workers <= 0). Results come back in job order. The
// first failing run cancels the others and its error is returned.
func (e *Engine) Sweep(ctx context.Context, series *domain.Series, jobs []Job, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, job := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := e.Run(gctx, series, job.Params, job.Selector)
			if err != nil {
				return fmt.Errorf("backtest.Sweep: job %d (%s): %w", i, selectorName(job.Selector), err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("backtest.Sweep: %w", err)
	}

	slog.Info("sweep complete", "runs", len(results), "workers", workers)
	return results, nil
}

func selectorName(s strategy.Selector) string {
	if s == nil {
		return "<nil>"
	}
	return s.Name()
}
