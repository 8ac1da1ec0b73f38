package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

// TokenMetadataReader lee la metadata ERC-20 directamente del contrato.
type TokenMetadataReader interface {
	// ReadMetadata devuelve symbol, name y decimals del token en address.
	ReadMetadata(ctx context.Context, address string) (domain.Token, error)
}

// GasOracle estima el coste fijo de un swap en la cadena configurada.
type GasOracle interface {
	// EstimateSwapCostUSD devuelve el coste de gas estimado en USD de una tx de swap.
	EstimateSwapCostUSD(ctx context.Context) (decimal.Decimal, error)
}
