package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

// PriceProvider obtiene precios históricos diarios de un token.
type PriceProvider interface {
	// FetchHistoricalPrices hace una sola request para [start, end]. Partir rangos
	// largos en ventanas es responsabilidad del llamador.
	FetchHistoricalPrices(ctx context.Context, address string, start, end time.Time) ([]domain.PriceRecord, error)
}
