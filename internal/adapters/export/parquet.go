// Package export vuelca el historial de corridas de backtest a archivos Parquet.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

// SnapshotRecord es el esquema Parquet de un snapshot de portafolio.
// Los valores monetarios van como texto decimal para no perder precisión.
type SnapshotRecord struct {
	RunID          string  `parquet:"run_id"`
	Strategy       string  `parquet:"strategy"`
	Timestamp      int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	PortfolioValue string  `parquet:"portfolio_value"`
	ValueFloat     float64 `parquet:"portfolio_value_f64"`
	PositionCount  int32   `parquet:"position_count"`
}

// Parquet implementa ports.HistoryExporter.
type Parquet struct{}

// NewParquet crea un exportador Parquet.
func NewParquet() *Parquet {
	return &Parquet{}
}

// ExportHistory escribe un registro por snapshot de run en path, creando los directorios necesarios.
func (p *Parquet) ExportHistory(ctx context.Context, path string, run domain.RunRecord) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("export.ExportHistory: %w", err)
	}

	records := Records(run)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("export.ExportHistory: mkdir: %w", err)
	}
	if err := parquet.WriteFile(path, records); err != nil {
		return fmt.Errorf("export.ExportHistory: write %s: %w", path, err)
	}

	slog.Info("history exported", "path", path, "run", run.ID, "rows", len(records))
	return nil
}

// Records convierte el historial de una corrida en filas Parquet, en orden cronológico.
func Records(run domain.RunRecord) []SnapshotRecord {
	records := make([]SnapshotRecord, 0, len(run.History))
	for _, snap := range run.History {
		records = append(records, SnapshotRecord{
			RunID:          run.ID,
			Strategy:       run.Strategy,
			Timestamp:      snap.Date.UnixMilli(),
			PortfolioValue: snap.PortfolioValue.String(),
			ValueFloat:     snap.PortfolioValue.InexactFloat64(),
			PositionCount:  int32(snap.PositionCount),
		})
	}
	return records
}
