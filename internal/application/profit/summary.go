package profit

import (
	"github.com/jhoicas/Rentabilidad-engine/internal/application/dto"
)

// CalculateSummary reduce el nivel de producto a totales de portafolio.
// Reducción pura: la única regla es la clasificación por signo del neto
// y por presencia de datos de costo ("desconocido" ≠ "cero").
func CalculateSummary(products []dto.ProductProfitAnalysis) dto.SummaryStats {
	s := dto.SummaryStats{ItemCount: len(products)}

	for _, p := range products {
		s.TotalRevenue = s.TotalRevenue.Add(p.TotalRevenue)
		s.TotalOrders += p.OrderCount
		s.TotalQuantity += p.TotalQuantity
		s.TotalFees = s.TotalFees.Add(p.SellingFees).Add(p.FBAFees)
		s.TotalCost = s.TotalCost.Add(p.TotalCost)
		s.NetProfit = s.NetProfit.Add(p.NetProfit)

		switch {
		case !p.HasCostData:
			s.UnknownCount++
		case p.NetProfit.IsPositive():
			s.ProfitableCount++
		default:
			s.UnprofitableCount++
		}
	}

	if !s.TotalRevenue.IsZero() {
		s.ProfitMargin = s.NetProfit.Div(s.TotalRevenue).Mul(hundred).Round(2)
	}
	return s
}
