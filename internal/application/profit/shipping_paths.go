package profit

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Rentabilidad-engine/internal/domain"
	"github.com/jhoicas/Rentabilidad-engine/internal/domain/costconfig"
	"github.com/jhoicas/Rentabilidad-engine/internal/domain/currency"
	"github.com/jhoicas/Rentabilidad-engine/internal/domain/entity"
	"github.com/jhoicas/Rentabilidad-engine/internal/domain/shipping"
)

// fbaPath calcula el camino de costo origin-fulfilled para una porción
// de cantidad/revenue del grupo. El envío FBA es config-driven (tarifa
// por desi), no usa la tabla de rutas; sin config de país o sin desi el
// costo queda en cero y el camino se marca incompleto.
func fbaPath(ctx costContext, qty, revenue decimal.Decimal) pathCosts {
	p := pathCosts{sizeOK: true}
	if ctx.hasCfg {
		p.warehouse = pct(revenue, ctx.cfg.FBA.WarehousePct)
	}
	if !ctx.hasCfg || !ctx.hasDesi {
		p.sizeOK = false
		return p
	}
	p.shipping = qty.Mul(ctx.desi).Mul(ctx.fbaPerDesi)
	return p
}

// fbmPath calcula el camino merchant-fulfilled según la fuente de
// despacho efectiva. Para blended computa DOS desgloses completos
// independientes (origen y local) y devuelve la media de cada línea:
// así solo la mitad originada en el exterior arrastra arancel y DDP.
func fbmPath(in Input, ctx costContext, qty, revenue decimal.Decimal) (pathCosts, error) {
	switch ctx.source {
	case entity.SourceBlended:
		origin, err := fbmSingle(in, ctx, entity.SourceOrigin, qty, revenue)
		if err != nil {
			return pathCosts{}, err
		}
		local, err := fbmSingle(in, ctx, entity.SourceLocal, qty, revenue)
		if err != nil {
			return pathCosts{}, err
		}
		return origin.half().add(local.half()), nil
	case entity.SourceLocal:
		return fbmSingle(in, ctx, entity.SourceLocal, qty, revenue)
	default:
		return fbmSingle(in, ctx, entity.SourceOrigin, qty, revenue)
	}
}

// fbmSingle es el desglose FBM de UNA fuente de despacho concreta.
//
//   - Envío: override fijo por SKU si existe; si no, lookup escalonado en
//     la ruta de la fuente. Tramo insuficiente → dato incompleto; ruta
//     nombrada pero ausente de la tabla → error fuerte.
//   - Arancel: solo despacho desde origen, sobre el valor de mercancía
//     (costo unitario × cantidad), con el override por categoría.
//   - DDP: tarifa fija por unidad, solo despacho desde origen.
//   - Bodega: % de manejo local sobre revenue, solo despacho local.
func fbmSingle(in Input, ctx costContext, source entity.ShippingSource, qty, revenue decimal.Decimal) (pathCosts, error) {
	p := pathCosts{sizeOK: true}

	if source == entity.SourceLocal && ctx.hasCfg {
		p.warehouse = pct(revenue, ctx.cfg.FBM.LocalHandlingPct)
	}

	switch {
	case ctx.hasCustom:
		// Override por SKU: ya resuelto, puentea el lookup por tramos.
		p.shipping = ctx.customShip.Mul(qty)
	default:
		route := ctx.cfg.FBM.OriginRoute
		if source == entity.SourceLocal {
			route = ctx.cfg.FBM.LocalRoute
		}
		if !ctx.hasCfg || route == "" || !ctx.hasDesi {
			p.sizeOK = false
			break
		}
		resolved, err := shipping.ResolveRate(in.ShippingTable, route, ctx.desi)
		switch {
		case errors.Is(err, domain.ErrTierNotFound):
			p.sizeOK = false
		case err != nil:
			return pathCosts{}, err
		default:
			rate, err := currency.Convert(resolved.Rate, resolved.Currency, in.SettlementCurrency, in.Rates)
			if err != nil {
				return pathCosts{}, err
			}
			p.shipping = rate.Mul(qty)
		}
	}

	if source == entity.SourceOrigin && ctx.hasCfg {
		if ctx.hasCost {
			value := ctx.unitCost.Mul(qty)
			p.duty = pct(value, costconfig.ResolveDutyPercent(ctx.cfg, ctx.category))
		}
		p.ddp = ctx.ddpPerUnit.Mul(qty)
	}
	return p, nil
}
