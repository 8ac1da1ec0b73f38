package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

// TokenStore persiste el catálogo de contratos.
type TokenStore interface {
	// StoreTokens hace upsert por token_address y devuelve las filas escritas.
	StoreTokens(ctx context.Context, tokens []domain.Token) (int, error)
	GetTokens(ctx context.Context) ([]domain.Token, error)
	CountTokens(ctx context.Context) (int, error)
}

// PriceStore persiste series de precios por schema ("backtest" o "live").
type PriceStore interface {
	// StorePrices hace upsert por (token_address, timestamp).
	StorePrices(ctx context.Context, schema string, prices []domain.PriceRecord) (int, error)

	// GetPrices devuelve las filas en [from, to] ordenadas por timestamp y token.
	// Un from o to en cero deja ese extremo abierto.
	GetPrices(ctx context.Context, schema string, from, to time.Time) ([]domain.PriceRecord, error)

	// GetLatestPriceDate devuelve nil si el schema no tiene precios.
	GetLatestPriceDate(ctx context.Context, schema string) (*time.Time, error)

	GetPricesDistinctTokens(ctx context.Context, schema string) ([]string, error)
}

// RunStore persiste los resultados de backtest.
type RunStore interface {
	SaveRun(ctx context.Context, run domain.RunRecord) error
	// ListRuns devuelve las últimas corridas, más recientes primero, sin snapshots.
	ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error)
	// GetRun devuelve una corrida con su historial completo.
	GetRun(ctx context.Context, id string) (domain.RunRecord, error)
}

// Storage agrupa todo lo que la CLI necesita de la base de datos.
type Storage interface {
	TokenStore
	PriceStore
	RunStore

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
