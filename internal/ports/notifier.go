package ports

import (
	"context"

	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

// Notifier presenta resultados de backtest al usuario.
type Notifier interface {
	// NotifyRun muestra el resumen de una corrida.
	NotifyRun(ctx context.Context, run domain.RunRecord) error

	// NotifyRuns muestra varias corridas, una fila por corrida.
	// En la implementación de consola, imprime una tabla formateada.
	NotifyRuns(ctx context.Context, runs []domain.RunRecord) error
}

// HistoryExporter vuelca el historial de una corrida a un archivo.
type HistoryExporter interface {
	ExportHistory(ctx context.Context, path string, run domain.RunRecord) error
}
