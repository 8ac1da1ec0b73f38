package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

const equalWeightName = "equal-weight"

// EqualWeight compra todos los tokens elegibles con la misma asignación.
type EqualWeight struct{}

// NewEqualWeight crea la estrategia. No tiene parámetros.
func NewEqualWeight() *EqualWeight {
	return &EqualWeight{}
}

// Name implementa Selector.
func (s *EqualWeight) Name() string {
	return equalWeightName
}

// Validate implementa Selector.
func (s *EqualWeight) Validate() error {
	return nil
}

// Params implementa Selector.
func (s *EqualWeight) Params() map[string]float64 {
	return map[string]float64{}
}

// Select implementa Selector: capital / n para cada fila.
func (s *EqualWeight) Select(capital decimal.Decimal, rows []domain.PricePoint) []Allocation {
	return equalAllocate(capital, rows)
}
