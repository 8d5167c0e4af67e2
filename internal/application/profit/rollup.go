package profit

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Rentabilidad-engine/internal/application/dto"
	"github.com/jhoicas/Rentabilidad-engine/internal/domain/entity"
)

// categoryTopProducts es el tamaño de la shortlist de drill-down por
// categoría.
const categoryTopProducts = 5

// rollupAcc acumula hijos de un nodo de rollup. Las tres etapas
// (SKU→producto, producto→padre, padre→categoría) son estructuralmente
// idénticas: sumar todo campo monetario/de cantidad, AND de los flags de
// completitud, canal Mixed-si-ambos sobre el conjunto de canales hijos y
// porcentajes recalculados de los absolutos (promediar porcentajes de
// hijos sesgaría por peso).
type rollupAcc struct {
	b        dto.ProfitBreakdown
	children int
	sawFBA   bool
	sawFBM   bool
	sawMixed bool
}

func newRollupAcc() *rollupAcc {
	return &rollupAcc{
		b: dto.ProfitBreakdown{HasCostData: true, HasSizeData: true},
	}
}

func (a *rollupAcc) add(child dto.ProfitBreakdown) {
	a.children++

	a.b.TotalRevenue = a.b.TotalRevenue.Add(child.TotalRevenue)
	a.b.TotalQuantity += child.TotalQuantity
	a.b.OrderCount += child.OrderCount
	a.b.RefundCount += child.RefundCount
	a.b.RefundedAmount = a.b.RefundedAmount.Add(child.RefundedAmount)
	a.b.RefundedQuantity += child.RefundedQuantity

	a.b.SellingFees = a.b.SellingFees.Add(child.SellingFees)
	a.b.FBAFees = a.b.FBAFees.Add(child.FBAFees)
	a.b.TaxCollected = a.b.TaxCollected.Add(child.TaxCollected)
	a.b.RefundLoss = a.b.RefundLoss.Add(child.RefundLoss)

	a.b.ProductCost = a.b.ProductCost.Add(child.ProductCost)
	a.b.ShippingCost = a.b.ShippingCost.Add(child.ShippingCost)
	a.b.CustomsDuty = a.b.CustomsDuty.Add(child.CustomsDuty)
	a.b.DDPFee = a.b.DDPFee.Add(child.DDPFee)
	a.b.AdvertisingCost = a.b.AdvertisingCost.Add(child.AdvertisingCost)
	a.b.FBAOverheadCost = a.b.FBAOverheadCost.Add(child.FBAOverheadCost)
	a.b.FBMOverheadCost = a.b.FBMOverheadCost.Add(child.FBMOverheadCost)
	a.b.WarehouseCost = a.b.WarehouseCost.Add(child.WarehouseCost)
	a.b.GSTCost = a.b.GSTCost.Add(child.GSTCost)

	a.b.GrossProfit = a.b.GrossProfit.Add(child.GrossProfit)
	a.b.TotalCost = a.b.TotalCost.Add(child.TotalCost)
	a.b.NetProfit = a.b.NetProfit.Add(child.NetProfit)

	// Un solo hijo incompleto fuerza el nodo incompleto (AND, nunca OR).
	a.b.HasCostData = a.b.HasCostData && child.HasCostData
	a.b.HasSizeData = a.b.HasSizeData && child.HasSizeData

	switch child.Channel {
	case entity.ChannelFBA:
		a.sawFBA = true
	case entity.ChannelFBM:
		a.sawFBM = true
	case entity.ChannelMixed:
		a.sawMixed = true
	}
}

// finish cierra el nodo: canal efectivo y porcentajes sobre absolutos.
// NetProfit es la suma de los netos hijos (conservación exacta), no se
// recomputa desde bruto−costo.
func (a *rollupAcc) finish() dto.ProfitBreakdown {
	switch {
	case a.sawMixed || (a.sawFBA && a.sawFBM):
		a.b.Channel = entity.ChannelMixed
	case a.sawFBA:
		a.b.Channel = entity.ChannelFBA
	default:
		a.b.Channel = entity.ChannelFBM
	}
	recomputePercentages(&a.b)
	return a.b
}

// productAcc añade a la acumulación las claves del siguiente nivel.
type productAcc struct {
	*rollupAcc
	parentASIN string
	category   string
}

// CalculateProductProfitability agrega los análisis de SKU por nombre de
// producto. Salida ordenada por revenue descendente.
func CalculateProductProfitability(skus []dto.SKUProfitAnalysis) []dto.ProductProfitAnalysis {
	byName := make(map[string]*productAcc)
	var order []string

	for _, sku := range skus {
		acc, ok := byName[sku.ProductName]
		if !ok {
			acc = &productAcc{rollupAcc: newRollupAcc()}
			byName[sku.ProductName] = acc
			order = append(order, sku.ProductName)
		}
		if acc.parentASIN == "" {
			acc.parentASIN = sku.ParentASIN
		}
		if acc.category == "" {
			acc.category = sku.Category
		}
		acc.add(sku.ProfitBreakdown)
	}

	out := make([]dto.ProductProfitAnalysis, 0, len(order))
	for _, name := range order {
		acc := byName[name]
		out = append(out, dto.ProductProfitAnalysis{
			ProductName:     name,
			ParentASIN:      acc.parentASIN,
			Category:        acc.category,
			SKUCount:        acc.children,
			ProfitBreakdown: acc.finish(),
		})
	}
	sortByRevenue(out, func(p dto.ProductProfitAnalysis) (decimal.Decimal, string) {
		return p.TotalRevenue, p.ProductName
	})
	return out
}

// CalculateParentProfitability agrega los productos por listing padre.
func CalculateParentProfitability(products []dto.ProductProfitAnalysis) []dto.ParentProfitAnalysis {
	type parentAcc struct {
		*rollupAcc
		category string
	}
	byParent := make(map[string]*parentAcc)
	var order []string

	for _, p := range products {
		acc, ok := byParent[p.ParentASIN]
		if !ok {
			acc = &parentAcc{rollupAcc: newRollupAcc()}
			byParent[p.ParentASIN] = acc
			order = append(order, p.ParentASIN)
		}
		if acc.category == "" {
			acc.category = p.Category
		}
		acc.add(p.ProfitBreakdown)
	}

	out := make([]dto.ParentProfitAnalysis, 0, len(order))
	for _, asin := range order {
		acc := byParent[asin]
		out = append(out, dto.ParentProfitAnalysis{
			ParentASIN:      asin,
			Category:        acc.category,
			ProductCount:    acc.children,
			ProfitBreakdown: acc.finish(),
		})
	}
	sortByRevenue(out, func(p dto.ParentProfitAnalysis) (decimal.Decimal, string) {
		return p.TotalRevenue, p.ParentASIN
	})
	return out
}

// CalculateCategoryProfitability agrega los listings padre por categoría
// y adjunta el top-N de productos de la categoría por revenue para
// drill-down (los productos ya vienen ordenados por revenue).
func CalculateCategoryProfitability(parents []dto.ParentProfitAnalysis, products []dto.ProductProfitAnalysis) []dto.CategoryProfitAnalysis {
	byCategory := make(map[string]*rollupAcc)
	var order []string

	for _, p := range parents {
		acc, ok := byCategory[p.Category]
		if !ok {
			acc = newRollupAcc()
			byCategory[p.Category] = acc
			order = append(order, p.Category)
		}
		acc.add(p.ProfitBreakdown)
	}

	out := make([]dto.CategoryProfitAnalysis, 0, len(order))
	for _, cat := range order {
		acc := byCategory[cat]
		out = append(out, dto.CategoryProfitAnalysis{
			Category:        cat,
			ParentCount:     acc.children,
			TopProducts:     topProductsFor(cat, products),
			ProfitBreakdown: acc.finish(),
		})
	}
	sortByRevenue(out, func(c dto.CategoryProfitAnalysis) (decimal.Decimal, string) {
		return c.TotalRevenue, c.Category
	})
	return out
}

func topProductsFor(category string, products []dto.ProductProfitAnalysis) []dto.TopProductDTO {
	top := make([]dto.TopProductDTO, 0, categoryTopProducts)
	for _, p := range products {
		if p.Category != category {
			continue
		}
		top = append(top, dto.TopProductDTO{
			ProductName:  p.ProductName,
			TotalRevenue: p.TotalRevenue,
			NetProfit:    p.NetProfit,
			HasCostData:  p.HasCostData,
		})
		if len(top) == categoryTopProducts {
			break
		}
	}
	return top
}
