package entity

import "github.com/shopspring/decimal"

// RateTier es un tramo de la tabla de envíos: hasta MaxDesi se cobra Rate.
type RateTier struct {
	MaxDesi decimal.Decimal // peso volumétrico máximo del tramo
	Rate    decimal.Decimal // tarifa en la moneda de la ruta
}

// ShippingRoute es la tarifa escalonada de una ruta de envío.
// Invariante: Tiers ordenado por MaxDesi estrictamente creciente.
type ShippingRoute struct {
	Currency string // moneda nativa de las tarifas de la ruta
	Tiers    []RateTier
}

// ShippingRateTable mapea identificador de ruta → tarifario escalonado.
// La política de lookup es "menor tramo cuyo MaxDesi ≥ peso pedido"; un
// peso mayor al último tramo falla explícitamente, nunca devuelve el
// tramo más grande.
type ShippingRateTable map[string]ShippingRoute
