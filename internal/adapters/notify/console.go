package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

// Console implementa ports.Notifier.
type Console struct {
	out     io.Writer
	table   bool
	history int // snapshots finales a mostrar en NotifyRun; 0 = ninguno
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool, history int) *Console {
	return &Console{out: os.Stdout, table: table, history: history}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool, history int) *Console {
	return &Console{out: w, table: table, history: history}
}

// NotifyRun imprime el resumen de una corrida.
func (c *Console) NotifyRun(_ context.Context, run domain.RunRecord) error {
	if !c.table {
		fmt.Fprintln(c.out, compactLine(run))
		return nil
	}

	s := run.Summary
	fmt.Fprintf(c.out, "\n=== BACKTEST %s (%s) ===\n", run.Strategy, shortID(run.ID))
	fmt.Fprintf(c.out, "  Started:      %s\n", run.StartedAt.UTC().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(c.out, "  Params:       %s\n", run.Params)
	fmt.Fprintf(c.out, "  Initial:      $%s\n", s.InitialValue.StringFixed(2))
	fmt.Fprintf(c.out, "  Final:        $%s\n", s.FinalValue.StringFixed(2))
	fmt.Fprintf(c.out, "  Return:       %+.2f%%\n", s.TotalReturn*100)
	fmt.Fprintf(c.out, "  Max drawdown: %.2f%%\n", s.MaxDrawdown*100)
	fmt.Fprintf(c.out, "  Sharpe:       %.2f\n", s.Sharpe)
	fmt.Fprintf(c.out, "  Snapshots:    %d\n", s.Snapshots)

	st := run.Stats
	fmt.Fprintf(c.out, "  Rebalances:   %d (%d empty)  stop-loss exits: %d  data gaps: %d\n",
		st.Rebalances, st.EmptyRebalances, st.StopLossExits, st.DataGaps)

	if c.history > 0 && len(run.History) > 0 {
		c.printHistory(run.History)
	}
	fmt.Fprintln(c.out)
	return nil
}

// NotifyRuns imprime una fila por corrida.
func (c *Console) NotifyRuns(_ context.Context, runs []domain.RunRecord) error {
	if len(runs) == 0 {
		fmt.Fprintln(c.out, "no runs found")
		return nil
	}

	if !c.table {
		for _, r := range runs {
			fmt.Fprintln(c.out, compactLine(r))
		}
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "ID", "Strategy", "Started", "Final $", "Return", "MaxDD", "Sharpe", "Rebal", "SL", "Gaps")
	for i, r := range runs {
		s := r.Summary
		table.Append(
			fmt.Sprintf("%d", i+1),
			shortID(r.ID),
			r.Strategy,
			r.StartedAt.UTC().Format("2006-01-02 15:04"),
			s.FinalValue.StringFixed(2),
			fmt.Sprintf("%+.2f%%", s.TotalReturn*100),
			fmt.Sprintf("%.2f%%", s.MaxDrawdown*100),
			fmt.Sprintf("%.2f", s.Sharpe),
			fmt.Sprintf("%d", r.Stats.Rebalances),
			fmt.Sprintf("%d", r.Stats.StopLossExits),
			fmt.Sprintf("%d", r.Stats.DataGaps),
		)
	}
	table.Render()

	fmt.Fprintln(c.out, "  Return = final/initial - 1 | MaxDD = caída máxima desde pico | SL = salidas por stop-loss")
	return nil
}

// printHistory imprime los últimos snapshots de la corrida.
func (c *Console) printHistory(h domain.PortfolioHistory) {
	from := 0
	if len(h) > c.history {
		from = len(h) - c.history
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Date", "Value", "Positions")
	for _, snap := range h[from:] {
		table.Append(
			snap.Date.UTC().Format("2006-01-02"),
			snap.PortfolioValue.StringFixed(2),
			fmt.Sprintf("%d", snap.PositionCount),
		)
	}
	table.Render()
}

// --- helpers ---

func compactLine(r domain.RunRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s → $%s (%+.2f%%) dd %.2f%% sharpe %.2f | rebal %d sl %d gaps %d",
		shortID(r.ID), r.Strategy,
		r.Summary.FinalValue.StringFixed(2), r.Summary.TotalReturn*100,
		r.Summary.MaxDrawdown*100, r.Summary.Sharpe,
		r.Stats.Rebalances, r.Stats.StopLossExits, r.Stats.DataGaps)
	return sb.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
