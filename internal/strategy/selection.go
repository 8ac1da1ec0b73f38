package strategy

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

// selectCount devuelve max(1, floor(n × pct)), o 0 si no hay candidatos.
func selectCount(n int, pct float64) int {
	if n == 0 {
		return 0
	}
	k := int(decimal.NewFromInt(int64(n)).Mul(decimal.NewFromFloat(pct)).Floor().IntPart())
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	return k
}

// equalAllocate reparte capital en partes iguales entre rows.
func equalAllocate(capital decimal.Decimal, rows []domain.PricePoint) []Allocation {
	if len(rows) == 0 {
		return nil
	}
	per := capital.Div(decimal.NewFromInt(int64(len(rows))))
	out := make([]Allocation, 0, len(rows))
	for _, r := range rows {
		out = append(out, Allocation{TokenID: r.TokenID, Price: r.Value, Amount: per})
	}
	return out
}

// smallestByVolatility devuelve las k filas de menor volatilidad.
// Los empates conservan el orden de entrada.
func smallestByVolatility(rows []domain.PricePoint, k int) []domain.PricePoint {
	sorted := append([]domain.PricePoint(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Volatility30d.Decimal.LessThan(sorted[j].Volatility30d.Decimal)
	})
	return sorted[:k]
}

// largestByVolatility devuelve las k filas de mayor volatilidad.
// Los empates conservan el orden de entrada.
func largestByVolatility(rows []domain.PricePoint, k int) []domain.PricePoint {
	sorted := append([]domain.PricePoint(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Volatility30d.Decimal.GreaterThan(sorted[j].Volatility30d.Decimal)
	})
	return sorted[:k]
}

func validatePct(field string, pct float64) error {
	if pct < 0 || pct > 1 {
		return domain.NewConfigError(field, "must be within [0,1], got %v", pct)
	}
	return nil
}
