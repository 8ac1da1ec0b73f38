package ports

import (
	"context"

	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

// TokenProvider obtiene la lista de tokens soportados por el agregador.
type TokenProvider interface {
	// FetchTokens devuelve los tokens en el orden del documento de la API,
	// con direcciones ya normalizadas.
	FetchTokens(ctx context.Context) ([]domain.Token, error)
}
