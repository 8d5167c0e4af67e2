// Package shipping resuelve tarifas de envío escalonadas por peso
// volumétrico (desi) contra la tabla de rutas.
package shipping

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Rentabilidad-engine/internal/domain"
	"github.com/jhoicas/Rentabilidad-engine/internal/domain/entity"
)

// ResolvedRate es la tarifa resuelta en la moneda nativa de la ruta.
type ResolvedRate struct {
	Rate     decimal.Decimal
	Currency string
}

// ResolveRate busca la tarifa de la ruta para el peso pedido.
// Política: menor tramo cuyo MaxDesi ≥ desi. Ruta ausente →
// ErrRouteNotFound; ningún tramo suficiente → ErrTierNotFound (nunca se
// devuelve el tramo más grande como fallback).
func ResolveRate(table entity.ShippingRateTable, route string, desi decimal.Decimal) (ResolvedRate, error) {
	r, ok := table[route]
	if !ok {
		return ResolvedRate{}, fmt.Errorf("%w: %q", domain.ErrRouteNotFound, route)
	}
	// Tiers mantiene MaxDesi creciente, así que la primera coincidencia
	// es el tramo mínimo suficiente.
	for _, tier := range r.Tiers {
		if tier.MaxDesi.GreaterThanOrEqual(desi) {
			return ResolvedRate{Rate: tier.Rate, Currency: r.Currency}, nil
		}
	}
	return ResolvedRate{}, fmt.Errorf("%w: ruta %q, desi %s", domain.ErrTierNotFound, route, desi)
}
