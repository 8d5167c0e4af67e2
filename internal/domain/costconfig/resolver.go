// Package costconfig centraliza la resolución de la configuración de
// costos por país: arancel efectivo por categoría, aplicabilidad de
// GST/IVA por canal, impuesto inferido de FBM de alto valor y defaults
// de los porcentajes globales. Todos los fallbacks viven aquí, nunca
// dispersos en los puntos de uso.
package costconfig

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Rentabilidad-engine/internal/domain/entity"
)

var hundred = decimal.NewFromInt(100)

// DefaultRefundRecoveryRate es la fracción recuperable de un reembolso
// cuando la configuración global no define una.
var DefaultRefundRecoveryRate = decimal.NewFromFloat(0.30)

// nearZeroTax es el umbral bajo el cual el impuesto recaudado de una
// línea se considera "casi cero" para la regla de alto valor.
var nearZeroTax = decimal.NewFromFloat(0.01)

// ResolveDutyPercent devuelve el arancel efectivo para la categoría:
// primer override cuya categoría case con la pedida (substring
// bidireccional, case-insensitive), si no el default del marketplace.
// Sin categoría pedida no hay matching posible y gana el default.
func ResolveDutyPercent(cfg entity.CountryProfitConfig, category string) decimal.Decimal {
	want := strings.ToLower(strings.TrimSpace(category))
	if want == "" {
		return cfg.FBM.DefaultDutyPct
	}
	for _, od := range cfg.FBM.CategoryDuties {
		have := strings.ToLower(strings.TrimSpace(od.Category))
		if have == "" {
			continue
		}
		if strings.Contains(want, have) || strings.Contains(have, want) {
			return od.DutyPct
		}
	}
	return cfg.FBM.DefaultDutyPct
}

// GSTApplicability es el resultado de resolver la regla GST/IVA de un
// marketplace contra el canal de un grupo.
type GSTApplicability struct {
	Applies         bool
	RatePct         decimal.Decimal
	IncludedInPrice bool
}

// ResolveGST decide si la regla GST/IVA del marketplace aplica al canal.
// Un grupo Mixed vende por ambos canales, así que casa con cualquier
// regla (FBA, FBM o BOTH).
func ResolveGST(cfg entity.CountryProfitConfig, channel entity.Channel) GSTApplicability {
	rule := cfg.GST
	if rule == nil {
		return GSTApplicability{}
	}
	applies := false
	switch rule.AppliesTo {
	case entity.GSTChannelBoth:
		applies = true
	case entity.GSTChannelFBA:
		applies = channel == entity.ChannelFBA || channel == entity.ChannelMixed
	case entity.GSTChannelFBM:
		applies = channel == entity.ChannelFBM || channel == entity.ChannelMixed
	}
	if !applies {
		return GSTApplicability{}
	}
	return GSTApplicability{
		Applies:         true,
		RatePct:         rule.RatePct,
		IncludedInPrice: rule.IncludedInPrice,
	}
}

// GSTAmount calcula el impuesto sobre un revenue dado. Con precio
// tax-inclusive el impuesto se EXTRAE (revenue×rate/(100+rate)); si no,
// se añade sobre el neto (revenue×rate/100).
func GSTAmount(revenue decimal.Decimal, app GSTApplicability) decimal.Decimal {
	if !app.Applies || revenue.IsZero() {
		return decimal.Zero
	}
	if app.IncludedInPrice {
		return revenue.Mul(app.RatePct).Div(hundred.Add(app.RatePct))
	}
	return revenue.Mul(app.RatePct).Div(hundred)
}

// InferredHighValueTax aplica la segunda regla fiscal, independiente del
// GST: órdenes merchant-fulfilled de marketplaces no-origen cuya venta
// supera el umbral y que muestran impuesto recaudado casi nulo. En ese
// caso el precio se asume tax-inclusive y el impuesto se extrae con
// precio×rate/(100+rate). Devuelve cero si la regla no está configurada
// o la línea no la dispara.
func InferredHighValueTax(cfg entity.CountryProfitConfig, txn entity.Transaction) decimal.Decimal {
	rule := cfg.HighValueFBMTax
	if rule == nil {
		return decimal.Zero
	}
	if txn.Kind != entity.KindOrder || txn.Fulfillment() == entity.FulfillmentOrigin {
		return decimal.Zero
	}
	if !txn.ProductSales.GreaterThan(rule.Threshold) {
		return decimal.Zero
	}
	if txn.TaxCollected.Abs().GreaterThanOrEqual(nearZeroTax) {
		return decimal.Zero
	}
	return txn.ProductSales.Mul(rule.RatePct).Div(hundred.Add(rule.RatePct))
}

// ResolvedGlobals es la configuración global con todos los defaults ya
// aplicados; UsedDefaultRecovery indica que la tasa de recuperación no
// venía definida y se usó la de fábrica.
type ResolvedGlobals struct {
	AdvertisingPct      decimal.Decimal
	FBAOverheadPct      decimal.Decimal
	FBMOverheadPct      decimal.Decimal
	RefundRecoveryRate  decimal.Decimal
	UsedDefaultRecovery bool
}

// ResolveGlobals materializa GlobalCostPercentages con sus defaults.
func ResolveGlobals(g entity.GlobalCostPercentages) ResolvedGlobals {
	out := ResolvedGlobals{
		AdvertisingPct: g.AdvertisingPct,
		FBAOverheadPct: g.FBAOverheadPct,
		FBMOverheadPct: g.FBMOverheadPct,
	}
	if g.RefundRecoveryRate.Valid {
		out.RefundRecoveryRate = g.RefundRecoveryRate.Decimal
	} else {
		out.RefundRecoveryRate = DefaultRefundRecoveryRate
		out.UsedDefaultRecovery = true
	}
	return out
}
