package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RunRecord es una corrida de backtest tal como se persiste y se reporta.
// Params es el JSON de los parámetros del motor y de la estrategia.
type RunRecord struct {
	ID             string
	Strategy       string
	Params         string
	StartedAt      time.Time
	InitialCapital decimal.Decimal
	Summary        Summary
	Stats          RunStats
	History        PortfolioHistory // vacío en listados
}
