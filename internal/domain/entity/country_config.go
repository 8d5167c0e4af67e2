package entity

import "github.com/shopspring/decimal"

// ShippingSource indica desde dónde despacha el vendedor sus órdenes FBM.
type ShippingSource string

const (
	// SourceOrigin despacha desde el país de origen: paga envío
	// internacional, arancel de aduana y tarifa DDP.
	SourceOrigin ShippingSource = "origin"
	// SourceLocal despacha desde bodega local en el país del marketplace:
	// sin aduana, con porcentaje de manejo de bodega.
	SourceLocal ShippingSource = "local"
	// SourceBlended promedia los dos desgloses completos (origen y local).
	// Solo la mitad originada en el exterior incurre arancel.
	SourceBlended ShippingSource = "blended"
)

// GSTChannel restringe a qué canal de fulfillment aplica una regla GST/IVA.
type GSTChannel string

const (
	GSTChannelFBA  GSTChannel = "FBA"
	GSTChannelFBM  GSTChannel = "FBM"
	GSTChannelBoth GSTChannel = "BOTH"
)

// GSTRule es un impuesto al consumo que el VENDEDOR debe remitir a la
// autoridad fiscal (no lo recauda el operador del marketplace).
type GSTRule struct {
	RatePct         decimal.Decimal // tasa en puntos porcentuales, ej: 10 = 10%
	IncludedInPrice bool            // true: extraer del precio con precio×rate/(100+rate)
	AppliesTo       GSTChannel
}

// CategoryDuty es un override de arancel para una categoría concreta.
// El matching es substring bidireccional case-insensitive.
type CategoryDuty struct {
	Category string
	DutyPct  decimal.Decimal
}

// HighValueTaxRule modela el impuesto inferido de órdenes FBM de alto
// valor en marketplaces no-origen: si la venta supera Threshold y la
// línea muestra impuesto recaudado casi nulo, el impuesto se extrae del
// precio (tax-inclusive) con precio×rate/(100+rate).
type HighValueTaxRule struct {
	Threshold decimal.Decimal // en la moneda local del marketplace
	RatePct   decimal.Decimal
}

// FBAConfig son los knobs de costo del canal origin-fulfilled.
type FBAConfig struct {
	ShippingPerDesi decimal.Decimal // tarifa de envío a bodega por unidad de desi
	WarehousePct    decimal.Decimal // % de manejo de bodega sobre revenue (solo algunos marketplaces lo modelan)
}

// FBMConfig son los knobs del canal merchant-fulfilled, divididos por
// fuente de despacho.
type FBMConfig struct {
	Source           ShippingSource
	OriginRoute      string // ruta de la tabla de envíos para despacho desde origen
	LocalRoute       string // ruta para despacho desde bodega local
	DefaultDutyPct   decimal.Decimal
	CategoryDuties   []CategoryDuty  // overrides de arancel por categoría; primera coincidencia gana
	DDPFeePerUnit    decimal.Decimal // tarifa fija delivery-duty-paid por unidad despachada desde origen
	LocalHandlingPct decimal.Decimal // % de manejo de bodega local sobre revenue
}

// CountryProfitConfig son los parámetros de rentabilidad de un marketplace.
// Los importes fijos (umbral, DDP) están en Currency, la moneda de
// liquidación local del marketplace.
type CountryProfitConfig struct {
	Marketplace     string
	Currency        string
	FBA             FBAConfig
	FBM             FBMConfig
	GST             *GSTRule          // nil = sin GST/IVA a cargo del vendedor
	HighValueFBMTax *HighValueTaxRule // nil = sin regla de alto valor
}

// CountryConfigTable mapea marketplace → configuración de país.
type CountryConfigTable map[string]CountryProfitConfig
