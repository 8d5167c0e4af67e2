package entity

import "github.com/shopspring/decimal"

// ProductCostOverride son los datos de costo cargados por el vendedor para
// un SKU. Todos los campos monetarios están en la moneda canónica de la
// tabla (CostOverrideTable.Currency) y deben convertirse a la moneda de
// liquidación antes de cualquier aritmética.
type ProductCostOverride struct {
	SKU                string
	UnitCost           decimal.NullDecimal // costo unitario; inválido = sin dato de costo
	Desi               decimal.NullDecimal // peso volumétrico; inválido = sin dato de tamaño
	CustomShippingCost decimal.NullDecimal // costo de envío fijo por unidad; puentea el lookup por tramos
	SourceOverride     *ShippingSource     // fuerza origen/local/blended para este SKU
}

// CostOverrideTable agrupa los overrides por SKU junto a su moneda canónica.
type CostOverrideTable struct {
	Currency string // moneda en la que están expresados todos los overrides
	Items    map[string]ProductCostOverride
}

// Lookup devuelve el override del SKU, si existe.
func (t CostOverrideTable) Lookup(sku string) (ProductCostOverride, bool) {
	o, ok := t.Items[sku]
	return o, ok
}
