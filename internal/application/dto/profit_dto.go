package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Rentabilidad-engine/internal/domain/entity"
)

// ── Desglose común ────────────────────────────────────────────────────────────

// ProfitBreakdown es el desglose financiero compartido por los cuatro
// niveles de análisis (SKU, producto, padre, categoría). Todos los
// importes están en la moneda de liquidación del reporte y sin redondear:
// la suma de cualquier campo monetario de los hijos de un nodo de rollup
// es EXACTAMENTE el campo del nodo. Solo ProfitMargin y ROI se redondean
// a 2 decimales (se recalculan de los absolutos, nunca se promedian).
type ProfitBreakdown struct {
	Channel entity.Channel `json:"channel"` // FBA, FBM o Mixed

	// Ingresos y movimientos
	TotalRevenue     decimal.Decimal `json:"total_revenue"`     // ventas de producto + rebates promocionales (órdenes)
	TotalQuantity    int64           `json:"total_quantity"`    // unidades vendidas
	OrderCount       int             `json:"order_count"`       // líneas Order
	RefundCount      int             `json:"refund_count"`      // líneas Refund
	RefundedAmount   decimal.Decimal `json:"refunded_amount"`   // magnitud reembolsada
	RefundedQuantity int64           `json:"refunded_quantity"` // unidades reembolsadas

	// Deducciones del bruto
	SellingFees  decimal.Decimal `json:"selling_fees"`  // comisiones de venta del marketplace
	FBAFees      decimal.Decimal `json:"fba_fees"`      // tarifas de fulfillment del operador
	TaxCollected decimal.Decimal `json:"tax_collected"` // IVA/GST recaudado por el marketplace (pass-through)
	RefundLoss   decimal.Decimal `json:"refund_loss"`   // reembolsado × (1 − tasa de recuperación)

	// Líneas de costo
	ProductCost     decimal.Decimal `json:"product_cost"`      // costo unitario × cantidad
	ShippingCost    decimal.Decimal `json:"shipping_cost"`     // envío FBA (por desi) o FBM (tabla/override)
	CustomsDuty     decimal.Decimal `json:"customs_duty"`      // arancel sobre el valor de mercancía
	DDPFee          decimal.Decimal `json:"ddp_fee"`           // tarifa fija delivery-duty-paid
	AdvertisingCost decimal.Decimal `json:"advertising_cost"`  // % global sobre revenue
	FBAOverheadCost decimal.Decimal `json:"fba_overhead_cost"` // % global, solo canal FBA/Mixed
	FBMOverheadCost decimal.Decimal `json:"fbm_overhead_cost"` // % global, solo canal FBM/Mixed
	WarehouseCost   decimal.Decimal `json:"warehouse_cost"`    // manejo de bodega (FBA o FBM local)
	GSTCost         decimal.Decimal `json:"gst_cost"`          // GST/IVA a cargo del vendedor + impuesto inferido de alto valor

	// Resultado
	GrossProfit  decimal.Decimal `json:"gross_profit"`  // revenue − (fees + refundLoss + taxCollected)
	TotalCost    decimal.Decimal `json:"total_cost"`    // suma de todas las líneas de costo
	NetProfit    decimal.Decimal `json:"net_profit"`    // grossProfit − totalCost; 0 si falta dato de costo
	ProfitMargin decimal.Decimal `json:"profit_margin"` // netProfit / revenue × 100 (0 si revenue = 0)
	ROI          decimal.Decimal `json:"roi"`           // netProfit / totalCost × 100 (0 si totalCost = 0)

	// Completitud: distinguen "costo cero" de "costo desconocido".
	// En los rollups se propagan como AND de todos los hijos.
	HasCostData bool `json:"has_cost_data"` // false si el costo unitario es desconocido
	HasSizeData bool `json:"has_size_data"` // false si faltó desi o no resolvió el tramo de envío
}

// ── Niveles de análisis ───────────────────────────────────────────────────────

// SKUProfitAnalysis es el análisis de un grupo SKU (o SKU+marketplace).
type SKUProfitAnalysis struct {
	SKU         string `json:"sku"`
	Marketplace string `json:"marketplace"` // vacío si el cálculo no separa por marketplace
	ProductName string `json:"product_name"`
	ParentASIN  string `json:"parent_asin"`
	Category    string `json:"category"`
	ProfitBreakdown
}

// ProductProfitAnalysis agrega los SKUs de un mismo producto.
type ProductProfitAnalysis struct {
	ProductName string `json:"product_name"`
	ParentASIN  string `json:"parent_asin"`
	Category    string `json:"category"`
	SKUCount    int    `json:"sku_count"`
	ProfitBreakdown
}

// ParentProfitAnalysis agrega los productos de un mismo listing padre.
type ParentProfitAnalysis struct {
	ParentASIN   string `json:"parent_asin"`
	Category     string `json:"category"`
	ProductCount int    `json:"product_count"`
	ProfitBreakdown
}

// TopProductDTO entrada de la shortlist de drill-down de una categoría.
type TopProductDTO struct {
	ProductName  string          `json:"product_name"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	NetProfit    decimal.Decimal `json:"net_profit"`
	HasCostData  bool            `json:"has_cost_data"`
}

// CategoryProfitAnalysis agrega los listings padre de una categoría e
// incluye el top-N de productos por revenue para drill-down.
type CategoryProfitAnalysis struct {
	Category    string          `json:"category"`
	ParentCount int             `json:"parent_count"`
	TopProducts []TopProductDTO `json:"top_products"`
	ProfitBreakdown
}

// ── Resumen de portafolio ─────────────────────────────────────────────────────

// SummaryStats reduce el nivel superior a totales del portafolio.
// Un ítem es "desconocido" si le falta dato de costo; con dato de costo,
// rentable si netProfit > 0 y no rentable en el resto.
type SummaryStats struct {
	ItemCount         int             `json:"item_count"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalOrders       int             `json:"total_orders"`
	TotalQuantity     int64           `json:"total_quantity"`
	TotalFees         decimal.Decimal `json:"total_fees"` // comisiones de venta + tarifas FBA
	TotalCost         decimal.Decimal `json:"total_cost"`
	NetProfit         decimal.Decimal `json:"net_profit"`
	ProfitMargin      decimal.Decimal `json:"profit_margin"` // recalculado de los totales
	ProfitableCount   int             `json:"profitable_count"`
	UnprofitableCount int             `json:"unprofitable_count"`
	UnknownCount      int             `json:"unknown_count"`
}

// ── Reporte completo ──────────────────────────────────────────────────────────

// ProfitReport es la salida end-to-end del motor: los cuatro niveles de
// análisis más el resumen, todos en Currency y ordenados por revenue
// descendente.
type ProfitReport struct {
	ID          uuid.UUID                `json:"id"`
	GeneratedAt time.Time                `json:"generated_at"`
	Currency    string                   `json:"currency"`
	SKUs        []SKUProfitAnalysis      `json:"skus"`
	Products    []ProductProfitAnalysis  `json:"products"`
	Parents     []ParentProfitAnalysis   `json:"parents"`
	Categories  []CategoryProfitAnalysis `json:"categories"`
	Summary     SummaryStats             `json:"summary"`
}
