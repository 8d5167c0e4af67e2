package profit_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Rentabilidad-engine/internal/application/dto"
	"github.com/jhoicas/Rentabilidad-engine/internal/application/profit"
	"github.com/jhoicas/Rentabilidad-engine/internal/domain"
	"github.com/jhoicas/Rentabilidad-engine/internal/domain/currency"
	"github.com/jhoicas/Rentabilidad-engine/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers: fixture con un marketplace USD ("amazon.com") cuyo FBM
// despacha desde origen por la ruta TR-US, y tablas completas para que
// cualquier fallo de lookup en un test sea intencional.
// ──────────────────────────────────────────────────────────────────────────────

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func buildTestInput(txns ...entity.Transaction) profit.Input {
	return profit.Input{
		Transactions: txns,
		CostOverrides: entity.CostOverrideTable{
			Currency: "USD",
			Items: map[string]entity.ProductCostOverride{
				"SKU-1": {
					SKU:      "SKU-1",
					UnitCost: decimal.NewNullDecimal(d(10)),
					Desi:     decimal.NewNullDecimal(d(2)),
				},
			},
		},
		ShippingTable: entity.ShippingRateTable{
			"TR-US": {
				Currency: "USD",
				Tiers: []entity.RateTier{
					{MaxDesi: d(1), Rate: d(5)},
					{MaxDesi: d(2), Rate: d(8)},
					{MaxDesi: d(5), Rate: d(15)},
				},
			},
			"US-LOCAL": {
				Currency: "USD",
				Tiers: []entity.RateTier{
					{MaxDesi: d(5), Rate: d(4)},
				},
			},
		},
		CountryConfigs: entity.CountryConfigTable{
			"amazon.com": {
				Marketplace: "amazon.com",
				Currency:    "USD",
				FBA: entity.FBAConfig{
					ShippingPerDesi: d(1),
				},
				FBM: entity.FBMConfig{
					Source:           entity.SourceOrigin,
					OriginRoute:      "TR-US",
					LocalRoute:       "US-LOCAL",
					DefaultDutyPct:   d(10),
					DDPFeePerUnit:    d(2),
					LocalHandlingPct: d(5),
				},
			},
		},
		Rates: currency.RateTable{
			Base: "USD",
			Rates: map[string]decimal.Decimal{
				"EUR": d(0.90),
			},
		},
		SettlementCurrency: "USD",
		SplitByMarketplace: true,
	}
}

func order(sku, tag string, sales float64, qty int64) entity.Transaction {
	return entity.Transaction{
		SKU:            sku,
		ProductName:    "Producto " + sku,
		ParentASIN:     "PARENT-1",
		Category:       "Textil",
		Marketplace:    "amazon.com",
		Currency:       "USD",
		FulfillmentTag: tag,
		Kind:           entity.KindOrder,
		ProductSales:   d(sales),
		Quantity:       qty,
		PostedAt:       time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC),
	}
}

func refund(sku string, sales float64, qty int64) entity.Transaction {
	txn := order(sku, "AFN", 0, qty)
	txn.Kind = entity.KindRefund
	txn.ProductSales = d(sales).Neg() // los reembolsos llegan en negativo
	return txn
}

// calcOne ejecuta el cálculo esperando exactamente un grupo SKU.
func calcOne(t *testing.T, in profit.Input) dto.SKUProfitAnalysis {
	t.Helper()
	out, err := profit.CalculateSKUProfitability(in)
	require.NoError(t, err)
	require.Len(t, out, 1)
	return out[0]
}

func assertEq(t *testing.T, want, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, want.Equal(got), "%s: esperaba %s, obtuve %s", field, want, got)
}

// ──────────────────────────────────────────────────────────────────────────────
// Escenario end-to-end: reproducible bit a bit con config fija.
// ──────────────────────────────────────────────────────────────────────────────

// TestCalculateSKU_EscenarioCompleto un SKU FBA con dos órdenes (50+70),
// un reembolso de 20, costo unitario 10, cantidad 3 y recuperación 0.5.
func TestCalculateSKU_EscenarioCompleto(t *testing.T) {
	o1 := order("SKU-1", "AFN", 50, 1)
	o1.SellingFees = d(-5)
	o1.FBAFees = d(-2)
	o2 := order("SKU-1", "AFN", 70, 2)
	o2.SellingFees = d(-7)
	o2.FBAFees = d(-3)

	in := buildTestInput(o1, o2, refund("SKU-1", 20, 1))
	in.Globals.RefundRecoveryRate = decimal.NewNullDecimal(d(0.5))

	got := calcOne(t, in)

	assert.Equal(t, "SKU-1", got.SKU)
	assert.Equal(t, "amazon.com", got.Marketplace)
	assert.Equal(t, entity.ChannelFBA, got.Channel)
	assert.Equal(t, int64(3), got.TotalQuantity)
	assert.Equal(t, 2, got.OrderCount)
	assert.Equal(t, 1, got.RefundCount)
	assert.True(t, got.HasCostData)
	assert.True(t, got.HasSizeData)

	assertEq(t, d(120), got.TotalRevenue, "TotalRevenue")
	assertEq(t, d(12), got.SellingFees, "SellingFees")
	assertEq(t, d(5), got.FBAFees, "FBAFees")
	assertEq(t, d(10), got.RefundLoss, "RefundLoss")    // 20 × (1 − 0.5)
	assertEq(t, d(30), got.ProductCost, "ProductCost")  // 10 × 3
	assertEq(t, d(6), got.ShippingCost, "ShippingCost") // 3 × desi 2 × 1/desi

	// gross = 120 − (12 + 5 + 10 + 0) = 93; total = 30 + 6 = 36; net = 57
	assertEq(t, d(93), got.GrossProfit, "GrossProfit")
	assertEq(t, d(36), got.TotalCost, "TotalCost")
	assertEq(t, d(57), got.NetProfit, "NetProfit")
	assertEq(t, d(47.5), got.ProfitMargin, "ProfitMargin") // 57/120×100
	assertEq(t, d(158.33), got.ROI, "ROI")                 // 57/36×100 redondeado
}

// TestCalculateSKU_Determinista mismo input dos veces produce el mismo
// desglose, aunque los grupos se calculen en paralelo.
func TestCalculateSKU_Determinista(t *testing.T) {
	in := buildTestInput(
		order("SKU-1", "AFN", 50, 1),
		order("SKU-2", "MFN", 80, 2),
		order("SKU-3", "AFN", 30, 1),
	)
	a, err := profit.CalculateSKUProfitability(in)
	require.NoError(t, err)
	b, err := profit.CalculateSKUProfitability(in)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

// ──────────────────────────────────────────────────────────────────────────────
// Reembolsos
// ──────────────────────────────────────────────────────────────────────────────

// TestCalculateSKU_RecoveryDefault con la tasa de recuperación sin
// definir aplica el default 0.30: reembolso 100 → pérdida 70.
func TestCalculateSKU_RecoveryDefault(t *testing.T) {
	in := buildTestInput(order("SKU-1", "AFN", 200, 1), refund("SKU-1", 100, 1))
	got := calcOne(t, in)
	assertEq(t, d(70), got.RefundLoss, "RefundLoss")
	assertEq(t, d(100), got.RefundedAmount, "RefundedAmount")
	assert.Equal(t, int64(1), got.RefundedQuantity)
}

// ──────────────────────────────────────────────────────────────────────────────
// Clasificación de canal
// ──────────────────────────────────────────────────────────────────────────────

// TestCalculateSKU_MixedDeterminista un grupo con ambos canales es Mixed
// sin importar cuál tenga más transacciones.
func TestCalculateSKU_MixedDeterminista(t *testing.T) {
	in := buildTestInput(
		order("SKU-1", "AFN", 10, 1),
		order("SKU-1", "MFN", 10, 1),
	)
	assert.Equal(t, entity.ChannelMixed, calcOne(t, in).Channel)

	// Cinco AFN contra un MFN: sigue siendo Mixed.
	in = buildTestInput(
		order("SKU-1", "AFN", 10, 1),
		order("SKU-1", "AFN", 10, 1),
		order("SKU-1", "AFN", 10, 1),
		order("SKU-1", "AFN", 10, 1),
		order("SKU-1", "AFN", 10, 1),
		order("SKU-1", "MFN", 10, 1),
	)
	assert.Equal(t, entity.ChannelMixed, calcOne(t, in).Channel)
}

// TestCalculateSKU_TagDesconocidoEsFBM tag vacío o no reconocido cae en
// merchant-fulfilled.
func TestCalculateSKU_TagDesconocidoEsFBM(t *testing.T) {
	in := buildTestInput(order("SKU-1", "", 10, 1))
	assert.Equal(t, entity.ChannelFBM, calcOne(t, in).Channel)

	in = buildTestInput(order("SKU-1", "Unknown", 10, 1))
	assert.Equal(t, entity.ChannelFBM, calcOne(t, in).Channel)
}

// ──────────────────────────────────────────────────────────────────────────────
// Caminos de costo por canal
// ──────────────────────────────────────────────────────────────────────────────

// TestCalculateSKU_FBMOrigen envío por tabla + arancel sobre el valor de
// mercancía + DDP fijo por unidad.
func TestCalculateSKU_FBMOrigen(t *testing.T) {
	in := buildTestInput(order("SKU-1", "MFN", 100, 1))
	got := calcOne(t, in)

	assert.Equal(t, entity.ChannelFBM, got.Channel)
	assertEq(t, d(8), got.ShippingCost, "ShippingCost") // tramo (2,8) × 1 unidad
	assertEq(t, d(1), got.CustomsDuty, "CustomsDuty")   // 10 × 1 × 10%
	assertEq(t, d(2), got.DDPFee, "DDPFee")             // 2 × 1 unidad
	assertEq(t, decimal.Zero, got.WarehouseCost, "WarehouseCost")
}

// TestCalculateSKU_FBMLocal sin aduana ni DDP; paga manejo de bodega
// local sobre el revenue.
func TestCalculateSKU_FBMLocal(t *testing.T) {
	in := buildTestInput(order("SKU-1", "MFN", 100, 1))
	cfg := in.CountryConfigs["amazon.com"]
	cfg.FBM.Source = entity.SourceLocal
	in.CountryConfigs["amazon.com"] = cfg

	got := calcOne(t, in)
	assertEq(t, d(4), got.ShippingCost, "ShippingCost") // US-LOCAL tramo (5,4)
	assertEq(t, decimal.Zero, got.CustomsDuty, "CustomsDuty")
	assertEq(t, decimal.Zero, got.DDPFee, "DDPFee")
	assertEq(t, d(5), got.WarehouseCost, "WarehouseCost") // 100 × 5%
}

// TestCalculateSKU_Blended dos desgloses completos promediados: el envío
// es la media y solo la mitad originada en el exterior arrastra arancel
// y DDP.
func TestCalculateSKU_Blended(t *testing.T) {
	in := buildTestInput(order("SKU-1", "MFN", 100, 1))
	cfg := in.CountryConfigs["amazon.com"]
	cfg.FBM.Source = entity.SourceBlended
	in.CountryConfigs["amazon.com"] = cfg

	got := calcOne(t, in)
	assertEq(t, d(6), got.ShippingCost, "ShippingCost")     // (8 + 4) / 2
	assertEq(t, d(0.5), got.CustomsDuty, "CustomsDuty")     // (1 + 0) / 2
	assertEq(t, d(1), got.DDPFee, "DDPFee")                 // (2 + 0) / 2
	assertEq(t, d(2.5), got.WarehouseCost, "WarehouseCost") // (0 + 5) / 2
}

// TestCalculateSKU_Mixto5050 el split de cantidad es mitad por camino;
// los overheads globales del canal aplican sobre el revenue completo.
func TestCalculateSKU_Mixto5050(t *testing.T) {
	in := buildTestInput(
		order("SKU-1", "AFN", 100, 2),
		order("SKU-1", "MFN", 100, 2),
	)
	in.Globals.AdvertisingPct = d(1)
	in.Globals.FBAOverheadPct = d(2)
	in.Globals.FBMOverheadPct = d(4)

	got := calcOne(t, in)
	require.Equal(t, entity.ChannelMixed, got.Channel)

	// FBA con qty 2: 2 × desi 2 × 1 = 4; FBM origen con qty 2: 8 × 2 = 16.
	assertEq(t, d(20), got.ShippingCost, "ShippingCost")
	assertEq(t, d(2), got.CustomsDuty, "CustomsDuty") // 10 × qty 2 × 10%
	assertEq(t, d(4), got.DDPFee, "DDPFee")           // 2 × qty 2

	assertEq(t, d(2), got.AdvertisingCost, "AdvertisingCost") // 200 × 1%
	assertEq(t, d(4), got.FBAOverheadCost, "FBAOverheadCost") // 200 × 2%
	assertEq(t, d(8), got.FBMOverheadCost, "FBMOverheadCost") // 200 × 4%
}

// TestCalculateSKU_OverheadsPorCanal los overheads FBA/FBM no aplican al
// canal contrario.
func TestCalculateSKU_OverheadsPorCanal(t *testing.T) {
	in := buildTestInput(order("SKU-1", "AFN", 100, 1))
	in.Globals.FBAOverheadPct = d(2)
	in.Globals.FBMOverheadPct = d(4)

	got := calcOne(t, in)
	assertEq(t, d(2), got.FBAOverheadCost, "FBAOverheadCost")
	assertEq(t, decimal.Zero, got.FBMOverheadCost, "FBMOverheadCost")
}

// ──────────────────────────────────────────────────────────────────────────────
// Datos incompletos y overrides
// ──────────────────────────────────────────────────────────────────────────────

// TestCalculateSKU_SinCostoUnitario sin costo el registro sale con sus
// totales pero el neto se fuerza a 0: nunca una cifra parcial engañosa.
func TestCalculateSKU_SinCostoUnitario(t *testing.T) {
	in := buildTestInput(order("SKU-DESCONOCIDO", "AFN", 100, 1))
	got := calcOne(t, in)

	assert.False(t, got.HasCostData)
	assertEq(t, d(100), got.TotalRevenue, "TotalRevenue")
	assertEq(t, decimal.Zero, got.ProductCost, "ProductCost")
	assertEq(t, decimal.Zero, got.NetProfit, "NetProfit")
	assertEq(t, decimal.Zero, got.ProfitMargin, "ProfitMargin")
}

// TestCalculateSKU_TramoInsuficiente desi fuera de todos los tramos no
// es error: el registro sale marcado sin dato de tamaño.
func TestCalculateSKU_TramoInsuficiente(t *testing.T) {
	in := buildTestInput(order("SKU-1", "MFN", 100, 1))
	o := in.CostOverrides.Items["SKU-1"]
	o.Desi = decimal.NewNullDecimal(d(10)) // mayor que el último tramo (5)
	in.CostOverrides.Items["SKU-1"] = o

	got := calcOne(t, in)
	assert.False(t, got.HasSizeData)
	assertEq(t, decimal.Zero, got.ShippingCost, "ShippingCost")
	assert.True(t, got.HasCostData, "el costo unitario sigue presente")
}

// TestCalculateSKU_RutaAusenteFallaFuerte una ruta nombrada en la config
// pero ausente de la tabla es fallo de configuración, no dato incompleto.
func TestCalculateSKU_RutaAusenteFallaFuerte(t *testing.T) {
	in := buildTestInput(order("SKU-1", "MFN", 100, 1))
	cfg := in.CountryConfigs["amazon.com"]
	cfg.FBM.OriginRoute = "TR-MARTE"
	in.CountryConfigs["amazon.com"] = cfg

	_, err := profit.CalculateSKUProfitability(in)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRouteNotFound)
}

// TestCalculateSKU_CustomShipping el override fijo por SKU puentea el
// lookup: no requiere desi y el dato de tamaño se considera resuelto.
func TestCalculateSKU_CustomShipping(t *testing.T) {
	in := buildTestInput(order("SKU-1", "MFN", 100, 2))
	o := in.CostOverrides.Items["SKU-1"]
	o.Desi = decimal.NullDecimal{}
	o.CustomShippingCost = decimal.NewNullDecimal(d(3))
	in.CostOverrides.Items["SKU-1"] = o

	got := calcOne(t, in)
	assert.True(t, got.HasSizeData)
	assertEq(t, d(6), got.ShippingCost, "ShippingCost") // 3 × 2 unidades
}

// TestCalculateSKU_SourceOverridePorSKU el override de fuente del SKU
// manda sobre el default del país.
func TestCalculateSKU_SourceOverridePorSKU(t *testing.T) {
	in := buildTestInput(order("SKU-1", "MFN", 100, 1))
	local := entity.SourceLocal
	o := in.CostOverrides.Items["SKU-1"]
	o.SourceOverride = &local
	in.CostOverrides.Items["SKU-1"] = o

	got := calcOne(t, in)
	assertEq(t, d(4), got.ShippingCost, "ShippingCost") // ruta local
	assertEq(t, decimal.Zero, got.CustomsDuty, "CustomsDuty")
}

// TestCalculateSKU_SinConfigDePais sin config del marketplace no hay
// costos config-driven y el lookup requerido queda sin resolver.
func TestCalculateSKU_SinConfigDePais(t *testing.T) {
	txn := order("SKU-1", "MFN", 100, 1)
	txn.Marketplace = "amazon.sg"
	in := buildTestInput(txn)

	got := calcOne(t, in)
	assert.False(t, got.HasSizeData)
	assertEq(t, decimal.Zero, got.ShippingCost, "ShippingCost")
	assertEq(t, decimal.Zero, got.CustomsDuty, "CustomsDuty")
	assertEq(t, decimal.Zero, got.GSTCost, "GSTCost")
}

// ──────────────────────────────────────────────────────────────────────────────
// Moneda
// ──────────────────────────────────────────────────────────────────────────────

// TestCalculateSKU_ConversionMoneda una orden en EUR se normaliza a la
// moneda de liquidación vía la moneda base.
func TestCalculateSKU_ConversionMoneda(t *testing.T) {
	txn := order("SKU-1", "AFN", 90, 1)
	txn.Currency = "EUR"
	in := buildTestInput(txn)

	got := calcOne(t, in)
	assertEq(t, d(100), got.TotalRevenue, "TotalRevenue") // 90 EUR / 0.90
}

func TestCalculateSKU_MonedaFueraDeTabla(t *testing.T) {
	txn := order("SKU-1", "AFN", 100, 1)
	txn.Currency = "GBP"
	in := buildTestInput(txn)

	_, err := profit.CalculateSKUProfitability(in)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateUnavailable)
}

// ──────────────────────────────────────────────────────────────────────────────
// Impuestos
// ──────────────────────────────────────────────────────────────────────────────

// TestCalculateSKU_GSTInclusivo regla GST tax-inclusive para FBM: tasa
// 10 sobre revenue 110 extrae 10.
func TestCalculateSKU_GSTInclusivo(t *testing.T) {
	in := buildTestInput(order("SKU-1", "MFN", 110, 1))
	cfg := in.CountryConfigs["amazon.com"]
	cfg.GST = &entity.GSTRule{
		RatePct:         d(10),
		IncludedInPrice: true,
		AppliesTo:       entity.GSTChannelFBM,
	}
	in.CountryConfigs["amazon.com"] = cfg

	got := calcOne(t, in)
	assertEq(t, d(10), got.GSTCost, "GSTCost")
}

// TestCalculateSKU_ImpuestoAltoValor la regla de alto valor se evalúa
// línea por línea y se suma al costo GST del grupo.
func TestCalculateSKU_ImpuestoAltoValor(t *testing.T) {
	in := buildTestInput(order("SKU-1", "MFN", 1100, 1), order("SKU-1", "MFN", 500, 1))
	cfg := in.CountryConfigs["amazon.com"]
	cfg.HighValueFBMTax = &entity.HighValueTaxRule{
		Threshold: d(1000),
		RatePct:   d(10),
	}
	in.CountryConfigs["amazon.com"] = cfg

	got := calcOne(t, in)
	// Solo la orden de 1100 supera el umbral: 1100 × 10 / 110 = 100.
	assertEq(t, d(100), got.GSTCost, "GSTCost")
}

// TestCalculateSKU_TaxRecaudadoEsPassThrough el impuesto que recauda el
// marketplace deduce el bruto, no es ganancia del vendedor.
func TestCalculateSKU_TaxRecaudadoEsPassThrough(t *testing.T) {
	txn := order("SKU-1", "AFN", 100, 1)
	txn.TaxCollected = d(19)
	in := buildTestInput(txn)

	got := calcOne(t, in)
	assertEq(t, d(19), got.TaxCollected, "TaxCollected")
	// gross = 100 − 0 − 0 − 0 − 19
	assertEq(t, d(81), got.GrossProfit, "GrossProfit")
}

// ──────────────────────────────────────────────────────────────────────────────
// Agrupación, filtro y orden
// ──────────────────────────────────────────────────────────────────────────────

// TestCalculateSKU_IgnoraOtrosKinds solo Order y Refund participan; el
// resto del ledger se ignora en silencio.
func TestCalculateSKU_IgnoraOtrosKinds(t *testing.T) {
	extra := order("SKU-1", "AFN", 999, 9)
	extra.Kind = "ServiceFee"
	in := buildTestInput(order("SKU-1", "AFN", 100, 1), extra)

	got := calcOne(t, in)
	assertEq(t, d(100), got.TotalRevenue, "TotalRevenue")
	assert.Equal(t, int64(1), got.TotalQuantity)
}

// TestCalculateSKU_SplitPorMarketplace controla si el mismo SKU en dos
// marketplaces produce uno o dos grupos.
func TestCalculateSKU_SplitPorMarketplace(t *testing.T) {
	de := order("SKU-1", "AFN", 90, 1)
	de.Marketplace = "amazon.de"
	de.Currency = "EUR"
	txns := []entity.Transaction{order("SKU-1", "AFN", 50, 1), de}

	in := buildTestInput(txns...)
	in.SplitByMarketplace = true
	out, err := profit.CalculateSKUProfitability(in)
	require.NoError(t, err)
	require.Len(t, out, 2)
	// 90 EUR = 100 USD > 50 USD: primero el grupo alemán.
	assert.Equal(t, "amazon.de", out[0].Marketplace)
	assertEq(t, d(100), out[0].TotalRevenue, "TotalRevenue")

	in = buildTestInput(txns...)
	in.SplitByMarketplace = false
	out, err = profit.CalculateSKUProfitability(in)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assertEq(t, d(150), out[0].TotalRevenue, "TotalRevenue")
	assert.Equal(t, "", out[0].Marketplace, "agregado entre marketplaces no etiqueta uno")
}

func TestCalculateSKU_FiltroMarketplace(t *testing.T) {
	de := order("SKU-2", "AFN", 90, 1)
	de.Marketplace = "amazon.de"
	de.Currency = "EUR"
	in := buildTestInput(order("SKU-1", "AFN", 50, 1), de)
	in.MarketplaceFilter = "amazon.com"

	out, err := profit.CalculateSKUProfitability(in)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "SKU-1", out[0].SKU)
}

// TestCalculateSKU_OrdenPorRevenue salida descendente por revenue con
// desempate estable por SKU.
func TestCalculateSKU_OrdenPorRevenue(t *testing.T) {
	in := buildTestInput(
		order("SKU-B", "AFN", 50, 1),
		order("SKU-C", "AFN", 200, 1),
		order("SKU-A", "AFN", 50, 1),
	)
	out, err := profit.CalculateSKUProfitability(in)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "SKU-C", out[0].SKU)
	assert.Equal(t, "SKU-A", out[1].SKU)
	assert.Equal(t, "SKU-B", out[2].SKU)
}
