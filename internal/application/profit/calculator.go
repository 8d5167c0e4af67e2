// Package profit implementa el motor de rentabilidad: cálculo por grupo
// SKU, rollups jerárquicos (SKU→producto→padre→categoría) y resumen de
// portafolio. Todo el motor es computación pura sobre colecciones en
// memoria: no hace I/O, no persiste y no consulta tasas; las tablas
// entran por parámetro y las salidas son registros inmutables.
package profit

import (
	"fmt"
	"runtime"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Rentabilidad-engine/internal/application/dto"
	"github.com/jhoicas/Rentabilidad-engine/internal/domain/costconfig"
	"github.com/jhoicas/Rentabilidad-engine/internal/domain/currency"
	"github.com/jhoicas/Rentabilidad-engine/internal/domain/entity"
)

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
	one     = decimal.NewFromInt(1)
)

// Input agrupa todas las entradas del cálculo. El motor las trata como
// read-only durante toda la llamada.
type Input struct {
	Transactions   []entity.Transaction
	CostOverrides  entity.CostOverrideTable
	ShippingTable  entity.ShippingRateTable
	CountryConfigs entity.CountryConfigTable
	Rates          currency.RateTable
	Globals        entity.GlobalCostPercentages

	// SettlementCurrency es la única moneda de salida: todos los importes
	// (transacciones, costos, tarifas) se normalizan a ella.
	SettlementCurrency string

	// MarketplaceFilter limita el cálculo a un marketplace; vacío = todos.
	MarketplaceFilter string

	// SplitByMarketplace mantiene separado el mismo SKU vendido en
	// marketplaces distintos.
	SplitByMarketplace bool
}

// skuGroup acumula las transacciones de un grupo SKU(+marketplace).
// Los importes ya están convertidos a la moneda de liquidación; la
// acumulación es conmutativa, así que el orden de las líneas no altera
// las sumas.
type skuGroup struct {
	sku         string
	marketplace string // primer marketplace observado (clave de config de país)
	productName string
	parentASIN  string
	category    string

	revenue          decimal.Decimal // ventas + rebates de líneas Order
	sellingFees      decimal.Decimal
	fbaFees          decimal.Decimal
	taxCollected     decimal.Decimal
	refundedAmount   decimal.Decimal
	refundedQuantity int64
	quantity         int64
	orderCount       int
	refundCount      int
	highValueTax     decimal.Decimal // impuesto inferido FBM de alto valor, ya convertido

	sawOrigin   bool // alguna línea AFN/FBA
	sawMerchant bool // alguna línea MFN/FBM (o tag vacío/desconocido)
}

// channel clasifica el grupo: ambos canales canónicos → Mixed, si no el
// único observado. Un grupo sin líneas clasificables queda FBM (el tag
// vacío/desconocido ya cae en merchant).
func (g *skuGroup) channel() entity.Channel {
	switch {
	case g.sawOrigin && g.sawMerchant:
		return entity.ChannelMixed
	case g.sawOrigin:
		return entity.ChannelFBA
	default:
		return entity.ChannelFBM
	}
}

// CalculateSKUProfitability es el algoritmo central del motor: agrupa
// el ledger, clasifica el canal, normaliza monedas y produce el desglose
// de rentabilidad por grupo. Los grupos se calculan en paralelo (son
// independientes entre sí); la salida va ordenada por revenue
// descendente con desempate por SKU/marketplace.
//
// Datos incompletos (costo o desi ausentes, tramo sin resolver) nunca
// son error: el registro sale con HasCostData/HasSizeData en false.
// Configuración incompleta (moneda fuera de la tabla de tasas, ruta
// nombrada pero ausente) sí es error.
func CalculateSKUProfitability(in Input) ([]dto.SKUProfitAnalysis, error) {
	groups, err := groupTransactions(in)
	if err != nil {
		return nil, err
	}

	globals := costconfig.ResolveGlobals(in.Globals)

	out := make([]dto.SKUProfitAnalysis, len(groups))
	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, g := range groups {
		i, g := i, g // per-iteration copies; go directive < 1.22
		eg.Go(func() error {
			analysis, err := computeGroup(in, globals, g)
			if err != nil {
				return fmt.Errorf("sku %s: %w", g.sku, err)
			}
			out[i] = analysis
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sortByRevenue(out, func(a dto.SKUProfitAnalysis) (decimal.Decimal, string) {
		return a.TotalRevenue, a.SKU + "|" + a.Marketplace
	})
	return out, nil
}

// groupTransactions particiona el ledger por SKU (o SKU+marketplace) y
// acumula los agregados del grupo en la moneda de liquidación. Solo
// participan Order y Refund; cualquier otro Kind se ignora en silencio.
func groupTransactions(in Input) ([]*skuGroup, error) {
	byKey := make(map[string]*skuGroup)
	var order []string // orden de primera aparición, para acumulación reproducible

	for _, txn := range in.Transactions {
		if txn.Kind != entity.KindOrder && txn.Kind != entity.KindRefund {
			continue
		}
		if in.MarketplaceFilter != "" && txn.Marketplace != in.MarketplaceFilter {
			continue
		}

		key := txn.SKU
		if in.SplitByMarketplace {
			key = txn.SKU + "|" + txn.Marketplace
		}
		g, ok := byKey[key]
		if !ok {
			g = &skuGroup{sku: txn.SKU, marketplace: txn.Marketplace}
			byKey[key] = g
			order = append(order, key)
		}
		if err := accumulate(g, in, txn); err != nil {
			return nil, fmt.Errorf("sku %s: %w", txn.SKU, err)
		}
	}

	groups := make([]*skuGroup, 0, len(order))
	for _, key := range order {
		groups = append(groups, byKey[key])
	}
	return groups, nil
}

// accumulate suma una línea del ledger al grupo, convirtiendo cada
// importe a la moneda de liquidación. Comisiones y reembolsos llegan con
// signo del reporte (negativos); se acumulan como magnitudes.
func accumulate(g *skuGroup, in Input, txn entity.Transaction) error {
	conv := func(amount decimal.Decimal) (decimal.Decimal, error) {
		return currency.Convert(amount, txn.Currency, in.SettlementCurrency, in.Rates)
	}

	if g.productName == "" {
		g.productName = txn.ProductName
	}
	if g.parentASIN == "" {
		g.parentASIN = txn.ParentASIN
	}
	if g.category == "" {
		g.category = txn.Category
	}

	switch txn.Fulfillment() {
	case entity.FulfillmentOrigin:
		g.sawOrigin = true
	default:
		// MFN/FBM y tags vacíos o no reconocidos cuentan como merchant.
		g.sawMerchant = true
	}

	switch txn.Kind {
	case entity.KindOrder:
		sale, err := conv(txn.ProductSales.Add(txn.PromotionalRebates))
		if err != nil {
			return err
		}
		sellingFees, err := conv(txn.SellingFees.Abs())
		if err != nil {
			return err
		}
		fbaFees, err := conv(txn.FBAFees.Abs())
		if err != nil {
			return err
		}
		tax, err := conv(txn.TaxCollected.Abs())
		if err != nil {
			return err
		}
		g.revenue = g.revenue.Add(sale)
		g.sellingFees = g.sellingFees.Add(sellingFees)
		g.fbaFees = g.fbaFees.Add(fbaFees)
		g.taxCollected = g.taxCollected.Add(tax)
		g.quantity += txn.Quantity
		g.orderCount++

		// Segunda regla fiscal: se evalúa línea por línea en la moneda
		// local (el umbral está en moneda local) y se convierte el
		// resultado.
		if cfg, ok := in.CountryConfigs[txn.Marketplace]; ok {
			inferred := costconfig.InferredHighValueTax(cfg, txn)
			if inferred.IsPositive() {
				converted, err := conv(inferred)
				if err != nil {
					return err
				}
				g.highValueTax = g.highValueTax.Add(converted)
			}
		}

	case entity.KindRefund:
		refunded, err := conv(txn.ProductSales.Abs())
		if err != nil {
			return err
		}
		g.refundedAmount = g.refundedAmount.Add(refunded)
		g.refundedQuantity += txn.Quantity
		g.refundCount++
	}
	return nil
}

// costContext reúne lo que los caminos de costo necesitan de un grupo,
// ya normalizado a la moneda de liquidación.
type costContext struct {
	cfg      entity.CountryProfitConfig
	hasCfg   bool
	category string

	unitCost   decimal.Decimal // convertido; solo válido si hasCost
	hasCost    bool
	desi       decimal.Decimal
	hasDesi    bool
	customShip decimal.Decimal // costo de envío fijo por unidad, convertido
	hasCustom  bool
	source     entity.ShippingSource

	// Knobs de config de país ya convertidos a la moneda de liquidación.
	fbaPerDesi decimal.Decimal
	ddpPerUnit decimal.Decimal
}

// pathCosts es el desglose de un camino de costo (FBA u FBM) para una
// porción de cantidad/revenue del grupo.
type pathCosts struct {
	shipping  decimal.Decimal
	duty      decimal.Decimal
	ddp       decimal.Decimal
	warehouse decimal.Decimal
	sizeOK    bool
}

func (p pathCosts) add(q pathCosts) pathCosts {
	return pathCosts{
		shipping:  p.shipping.Add(q.shipping),
		duty:      p.duty.Add(q.duty),
		ddp:       p.ddp.Add(q.ddp),
		warehouse: p.warehouse.Add(q.warehouse),
		sizeOK:    p.sizeOK && q.sizeOK,
	}
}

func (p pathCosts) half() pathCosts {
	return pathCosts{
		shipping:  p.shipping.Div(two),
		duty:      p.duty.Div(two),
		ddp:       p.ddp.Div(two),
		warehouse: p.warehouse.Div(two),
		sizeOK:    p.sizeOK,
	}
}

// computeGroup produce el análisis de un grupo ya acumulado.
func computeGroup(in Input, globals costconfig.ResolvedGlobals, g *skuGroup) (dto.SKUProfitAnalysis, error) {
	ctx, err := buildCostContext(in, g)
	if err != nil {
		return dto.SKUProfitAnalysis{}, err
	}

	channel := g.channel()
	qty := decimal.NewFromInt(g.quantity)

	// Caminos de envío/aduana/bodega por canal. En Mixed cada camino
	// recibe la mitad de la cantidad y del revenue (split 50/50 de
	// política, requerido para paridad de salida).
	var costs pathCosts
	switch channel {
	case entity.ChannelFBA:
		costs = fbaPath(ctx, qty, g.revenue)
	case entity.ChannelFBM:
		costs, err = fbmPath(in, ctx, qty, g.revenue)
	case entity.ChannelMixed:
		halfQty := qty.Div(two)
		halfRevenue := g.revenue.Div(two)
		fba := fbaPath(ctx, halfQty, halfRevenue)
		var fbm pathCosts
		fbm, err = fbmPath(in, ctx, halfQty, halfRevenue)
		costs = fba.add(fbm)
	}
	if err != nil {
		return dto.SKUProfitAnalysis{}, err
	}

	// Pérdida por reembolsos: solo la fracción no recuperable.
	refundLoss := g.refundedAmount.Mul(one.Sub(globals.RefundRecoveryRate))

	// Costos globales condicionados al canal, siempre sobre el revenue
	// completo del grupo.
	advertising := pct(g.revenue, globals.AdvertisingPct)
	var fbaOverhead, fbmOverhead decimal.Decimal
	if channel == entity.ChannelFBA || channel == entity.ChannelMixed {
		fbaOverhead = pct(g.revenue, globals.FBAOverheadPct)
	}
	if channel == entity.ChannelFBM || channel == entity.ChannelMixed {
		fbmOverhead = pct(g.revenue, globals.FBMOverheadPct)
	}

	// GST/IVA a cargo del vendedor + impuesto inferido de alto valor.
	gstCost := g.highValueTax
	if ctx.hasCfg {
		app := costconfig.ResolveGST(ctx.cfg, channel)
		gstCost = gstCost.Add(costconfig.GSTAmount(g.revenue, app))
	}

	var productCost decimal.Decimal
	if ctx.hasCost {
		productCost = ctx.unitCost.Mul(qty)
	}

	grossProfit := g.revenue.Sub(g.sellingFees).Sub(g.fbaFees).Sub(refundLoss).Sub(g.taxCollected)
	totalCost := productCost.
		Add(costs.shipping).
		Add(costs.duty).
		Add(costs.ddp).
		Add(advertising).
		Add(fbaOverhead).
		Add(fbmOverhead).
		Add(costs.warehouse).
		Add(gstCost)

	b := dto.ProfitBreakdown{
		Channel:          channel,
		TotalRevenue:     g.revenue,
		TotalQuantity:    g.quantity,
		OrderCount:       g.orderCount,
		RefundCount:      g.refundCount,
		RefundedAmount:   g.refundedAmount,
		RefundedQuantity: g.refundedQuantity,
		SellingFees:      g.sellingFees,
		FBAFees:          g.fbaFees,
		TaxCollected:     g.taxCollected,
		RefundLoss:       refundLoss,
		ProductCost:      productCost,
		ShippingCost:     costs.shipping,
		CustomsDuty:      costs.duty,
		DDPFee:           costs.ddp,
		AdvertisingCost:  advertising,
		FBAOverheadCost:  fbaOverhead,
		FBMOverheadCost:  fbmOverhead,
		WarehouseCost:    costs.warehouse,
		GSTCost:          gstCost,
		GrossProfit:      grossProfit,
		TotalCost:        totalCost,
		HasCostData:      ctx.hasCost,
		HasSizeData:      costs.sizeOK,
	}
	finishBreakdown(&b)

	return dto.SKUProfitAnalysis{
		SKU:             g.sku,
		Marketplace:     groupMarketplace(in, g),
		ProductName:     g.productName,
		ParentASIN:      g.parentASIN,
		Category:        g.category,
		ProfitBreakdown: b,
	}, nil
}

// buildCostContext normaliza a la moneda de liquidación el override de
// costo del SKU y resuelve la fuente de despacho efectiva (override del
// SKU sobre el default del país).
func buildCostContext(in Input, g *skuGroup) (costContext, error) {
	ctx := costContext{category: g.category}
	ctx.cfg, ctx.hasCfg = in.CountryConfigs[g.marketplace]

	ctx.source = ctx.cfg.FBM.Source
	if ctx.source == "" {
		ctx.source = entity.SourceOrigin
	}

	if ctx.hasCfg {
		perDesi, err := currency.Convert(ctx.cfg.FBA.ShippingPerDesi, ctx.cfg.Currency, in.SettlementCurrency, in.Rates)
		if err != nil {
			return costContext{}, err
		}
		ddp, err := currency.Convert(ctx.cfg.FBM.DDPFeePerUnit, ctx.cfg.Currency, in.SettlementCurrency, in.Rates)
		if err != nil {
			return costContext{}, err
		}
		ctx.fbaPerDesi = perDesi
		ctx.ddpPerUnit = ddp
	}

	o, ok := in.CostOverrides.Lookup(g.sku)
	if !ok {
		return ctx, nil
	}
	if o.UnitCost.Valid {
		converted, err := currency.Convert(o.UnitCost.Decimal, in.CostOverrides.Currency, in.SettlementCurrency, in.Rates)
		if err != nil {
			return costContext{}, err
		}
		ctx.unitCost = converted
		ctx.hasCost = true
	}
	if o.Desi.Valid {
		ctx.desi = o.Desi.Decimal
		ctx.hasDesi = true
	}
	if o.CustomShippingCost.Valid {
		converted, err := currency.Convert(o.CustomShippingCost.Decimal, in.CostOverrides.Currency, in.SettlementCurrency, in.Rates)
		if err != nil {
			return costContext{}, err
		}
		ctx.customShip = converted
		ctx.hasCustom = true
	}
	if o.SourceOverride != nil {
		ctx.source = *o.SourceOverride
	}
	return ctx, nil
}

// pct devuelve base × p / 100.
func pct(base, p decimal.Decimal) decimal.Decimal {
	if p.IsZero() || base.IsZero() {
		return decimal.Zero
	}
	return base.Mul(p).Div(hundred)
}

// finishBreakdown aplica las reglas finales del desglose: NetProfit
// forzado a 0 sin dato de costo (nunca una cifra parcial engañosa) y
// porcentajes recalculados de los absolutos.
func finishBreakdown(b *dto.ProfitBreakdown) {
	if b.HasCostData {
		b.NetProfit = b.GrossProfit.Sub(b.TotalCost)
	} else {
		b.NetProfit = decimal.Zero
	}
	recomputePercentages(b)
}

// recomputePercentages deriva margen y ROI de los absolutos ya sumados.
func recomputePercentages(b *dto.ProfitBreakdown) {
	b.ProfitMargin = decimal.Zero
	if !b.TotalRevenue.IsZero() {
		b.ProfitMargin = b.NetProfit.Div(b.TotalRevenue).Mul(hundred).Round(2)
	}
	b.ROI = decimal.Zero
	if !b.TotalCost.IsZero() {
		b.ROI = b.NetProfit.Div(b.TotalCost).Mul(hundred).Round(2)
	}
}

// groupMarketplace etiqueta el grupo: su marketplace si el cálculo separa
// por marketplace (o hay filtro), vacío si el grupo puede abarcar varios.
func groupMarketplace(in Input, g *skuGroup) string {
	if in.SplitByMarketplace || in.MarketplaceFilter != "" {
		return g.marketplace
	}
	return ""
}

// sortByRevenue ordena descendente por revenue con desempate por clave
// ascendente, para salida determinista.
func sortByRevenue[T any](items []T, key func(T) (decimal.Decimal, string)) {
	sort.SliceStable(items, func(i, j int) bool {
		ri, ki := key(items[i])
		rj, kj := key(items[j])
		if !ri.Equal(rj) {
			return ri.GreaterThan(rj)
		}
		return ki < kj
	})
}
