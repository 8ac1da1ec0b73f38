package strategy

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

// Allocation es la porción de capital asignada a un token en un rebalanceo.
type Allocation struct {
	TokenID string
	Price   decimal.Decimal // precio cotizado en la fecha del rebalanceo
	Amount  decimal.Decimal
}

// Selector define el contrato de una estrategia de rebalanceo.
// Cada estrategia solo decide QUÉ comprar; el motor de backtest es el mismo para todas.
type Selector interface {
	// Name devuelve el identificador único de la estrategia.
	Name() string

	// Validate revisa los parámetros propios de la estrategia.
	// Devuelve un *domain.ConfigError si alguno está fuera de rango.
	Validate() error

	// Params devuelve los parámetros de la estrategia para persistirlos con la corrida.
	Params() map[string]float64

	// Select recibe las filas elegibles de la fecha, en orden de entrada, y
	// devuelve las asignaciones. Una selección vacía es un resultado válido.
	Select(capital decimal.Decimal, rows []domain.PricePoint) []Allocation
}

// Avoider lo implementan las estrategias que además marcan tokens a evitar.
type Avoider interface {
	Avoid(rows []domain.PricePoint) []string
}

// Registry mantiene las estrategias disponibles indexadas por nombre.
type Registry map[string]Selector

// NewRegistry crea un registry vacío.
func NewRegistry() Registry {
	return make(Registry)
}

// Register añade una estrategia al registry.
func (r Registry) Register(s Selector) {
	r[s.Name()] = s
}

// Get devuelve la estrategia por nombre.
func (r Registry) Get(name string) (Selector, bool) {
	s, ok := r[name]
	return s, ok
}

// Names devuelve los nombres registrados en orden alfabético.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
