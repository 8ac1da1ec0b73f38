package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

// ErrRunNotFound se devuelve cuando GetRun no encuentra el id.
var ErrRunNotFound = errors.New("backtest run not found")

const runColumns = `id, strategy, params, started_at, initial_capital, final_value,
	total_return, max_drawdown, sharpe, snapshots,
	rebalances, empty_rebalances, stop_loss_exits, data_gaps`

// SaveRun persiste el resumen de la corrida y su historial en una sola transacción.
func (s *SQLStorage) SaveRun(ctx context.Context, run domain.RunRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: begin tx: %w", err)
	}
	defer tx.Rollback()

	sum := run.Summary
	if _, err := tx.ExecContext(ctx, s.dialect.rebind(`
		INSERT INTO backtest_runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`),
		run.ID, run.Strategy, run.Params, s.dialect.timeArg(run.StartedAt),
		run.InitialCapital, sum.FinalValue,
		sum.TotalReturn, sum.MaxDrawdown, sum.Sharpe, sum.Snapshots,
		run.Stats.Rebalances, run.Stats.EmptyRebalances, run.Stats.StopLossExits, run.Stats.DataGaps,
	); err != nil {
		return fmt.Errorf("storage.SaveRun: insert run %s: %w", run.ID, err)
	}

	if len(run.History) > 0 {
		stmt, err := tx.PrepareContext(ctx, s.dialect.rebind(`
			INSERT INTO backtest_snapshots (run_id, date, portfolio_value, position_count)
			VALUES (?, ?, ?, ?)
		`))
		if err != nil {
			return fmt.Errorf("storage.SaveRun: prepare snapshots: %w", err)
		}
		defer stmt.Close()

		for _, snap := range run.History {
			if _, err := stmt.ExecContext(ctx,
				run.ID, s.dialect.timeArg(snap.Date), snap.PortfolioValue, snap.PositionCount,
			); err != nil {
				return fmt.Errorf("storage.SaveRun: insert snapshot: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveRun: commit: %w", err)
	}
	return nil
}

// ListRuns devuelve las últimas corridas sin historial, más recientes primero.
// limit <= 0 devuelve todas.
func (s *SQLStorage) ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM backtest_runs ORDER BY started_at DESC, id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("storage.ListRuns: query: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.ListRuns: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun devuelve una corrida con su historial completo.
func (s *SQLStorage) GetRun(ctx context.Context, id string) (domain.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.rebind(`SELECT `+runColumns+` FROM backtest_runs WHERE id = ?`), id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RunRecord{}, fmt.Errorf("storage.GetRun: %w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return domain.RunRecord{}, fmt.Errorf("storage.GetRun: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(`
		SELECT date, portfolio_value, position_count
		FROM backtest_snapshots
		WHERE run_id = ?
		ORDER BY date
	`), id)
	if err != nil {
		return domain.RunRecord{}, fmt.Errorf("storage.GetRun: query snapshots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			snap domain.Snapshot
			date dbTime
		)
		if err := rows.Scan(&date, &snap.PortfolioValue, &snap.PositionCount); err != nil {
			return domain.RunRecord{}, fmt.Errorf("storage.GetRun: scan snapshot: %w", err)
		}
		snap.Date = date.Time
		run.History = append(run.History, snap)
	}
	return run, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (domain.RunRecord, error) {
	var (
		run     domain.RunRecord
		started dbTime
	)
	err := row.Scan(
		&run.ID, &run.Strategy, &run.Params, &started,
		&run.InitialCapital, &run.Summary.FinalValue,
		&run.Summary.TotalReturn, &run.Summary.MaxDrawdown, &run.Summary.Sharpe, &run.Summary.Snapshots,
		&run.Stats.Rebalances, &run.Stats.EmptyRebalances, &run.Stats.StopLossExits, &run.Stats.DataGaps,
	)
	if err != nil {
		return domain.RunRecord{}, err
	}
	run.StartedAt = started.Time
	run.Summary.InitialValue = run.InitialCapital
	return run, nil
}
