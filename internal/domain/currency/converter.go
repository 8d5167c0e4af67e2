// Package currency convierte importes entre monedas vía una moneda base
// (servicio de dominio puro). La tabla de tasas siempre entra por
// parámetro: este paquete no consulta ni cachea tasas.
package currency

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Rentabilidad-engine/internal/domain"
)

// RateTable expresa tasas como "1 unidad de Base = Rates[C] unidades de C".
// La moneda base no necesita figurar en Rates; su tasa implícita es 1.
type RateTable struct {
	Base  string
	Rates map[string]decimal.Decimal
}

// Rate devuelve la tasa de la moneda respecto a la base.
func (t RateTable) Rate(code string) (decimal.Decimal, error) {
	if code == t.Base {
		return decimal.NewFromInt(1), nil
	}
	r, ok := t.Rates[code]
	if !ok || !r.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", domain.ErrRateUnavailable, code)
	}
	return r, nil
}

// Convert convierte amount de from a to, ruteando por la moneda base:
//
//	amountBase = amount / rate(from)
//	resultado  = amountBase × rate(to)
//
// Falla con ErrRateUnavailable si cualquiera de las dos monedas falta de
// la tabla; nunca asume 1:1.
func Convert(amount decimal.Decimal, from, to string, table RateTable) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	fromRate, err := table.Rate(from)
	if err != nil {
		return decimal.Zero, err
	}
	toRate, err := table.Rate(to)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Div(fromRate).Mul(toRate), nil
}
