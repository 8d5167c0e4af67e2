package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/jhoicas/Rentabilidad-engine/internal/domain"
	"github.com/jhoicas/Rentabilidad-engine/internal/domain/currency"
	"github.com/jhoicas/Rentabilidad-engine/internal/domain/entity"
)

// EngineTables son las tablas de configuración del motor ya convertidas
// a sus tipos de dominio. El motor las recibe por parámetro: este loader
// es la única pieza que sabe de archivos.
type EngineTables struct {
	Rates     currency.RateTable
	Countries entity.CountryConfigTable
	Globals   entity.GlobalCostPercentages
	Shipping  entity.ShippingRateTable
	Costs     entity.CostOverrideTable
}

// ── Estructuras espejo del YAML (números como float, opcionales como puntero) ──

type profitFile struct {
	Rates struct {
		Base   string             `yaml:"base"`
		Values map[string]float64 `yaml:"values"`
	} `yaml:"rates"`

	Globals struct {
		AdvertisingPct     float64  `yaml:"advertising_pct"`
		FBAOverheadPct     float64  `yaml:"fba_overhead_pct"`
		FBMOverheadPct     float64  `yaml:"fbm_overhead_pct"`
		RefundRecoveryRate *float64 `yaml:"refund_recovery_rate"`
	} `yaml:"globals"`

	Shipping map[string]struct {
		Currency string `yaml:"currency"`
		Tiers    []struct {
			MaxDesi float64 `yaml:"max_desi"`
			Rate    float64 `yaml:"rate"`
		} `yaml:"tiers"`
	} `yaml:"shipping"`

	Countries []struct {
		Marketplace string `yaml:"marketplace"`
		Currency    string `yaml:"currency"`
		FBA         struct {
			ShippingPerDesi float64 `yaml:"shipping_per_desi"`
			WarehousePct    float64 `yaml:"warehouse_pct"`
		} `yaml:"fba"`
		FBM struct {
			Source           string  `yaml:"source"`
			OriginRoute      string  `yaml:"origin_route"`
			LocalRoute       string  `yaml:"local_route"`
			DefaultDutyPct   float64 `yaml:"default_duty_pct"`
			DDPFeePerUnit    float64 `yaml:"ddp_fee_per_unit"`
			LocalHandlingPct float64 `yaml:"local_handling_pct"`
			CategoryDuties   []struct {
				Category string  `yaml:"category"`
				DutyPct  float64 `yaml:"duty_pct"`
			} `yaml:"category_duties"`
		} `yaml:"fbm"`
		GST *struct {
			RatePct         float64 `yaml:"rate_pct"`
			IncludedInPrice bool    `yaml:"included_in_price"`
			AppliesTo       string  `yaml:"applies_to"`
		} `yaml:"gst"`
		HighValueFBMTax *struct {
			Threshold float64 `yaml:"threshold"`
			RatePct   float64 `yaml:"rate_pct"`
		} `yaml:"high_value_fbm_tax"`
	} `yaml:"countries"`

	Costs struct {
		Currency string `yaml:"currency"`
		Items    []struct {
			SKU                string   `yaml:"sku"`
			UnitCost           *float64 `yaml:"unit_cost"`
			Desi               *float64 `yaml:"desi"`
			CustomShippingCost *float64 `yaml:"custom_shipping_cost"`
			Source             string   `yaml:"source"`
		} `yaml:"items"`
	} `yaml:"costs"`
}

// LoadEngineTables lee el YAML de tablas del motor y lo convierte a los
// tipos de dominio. Valida que cada ruta de envío tenga tramos y los
// deja ordenados por desi creciente (invariante de la tabla).
//
// Decodifica directo con yaml.v3 y no con Viper: los códigos de moneda
// y los nombres de ruta son claves de mapa sensibles a mayúsculas
// ("EUR", "TR-US") y Viper pliega toda clave a minúsculas al leer.
func LoadEngineTables(path string) (*EngineTables, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("leyendo tablas del motor: %w", err)
	}

	var f profitFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decodificando tablas del motor: %w", err)
	}

	t := &EngineTables{
		Rates: currency.RateTable{
			Base:  f.Rates.Base,
			Rates: make(map[string]decimal.Decimal, len(f.Rates.Values)),
		},
		Countries: make(entity.CountryConfigTable, len(f.Countries)),
		Shipping:  make(entity.ShippingRateTable, len(f.Shipping)),
		Costs: entity.CostOverrideTable{
			Currency: f.Costs.Currency,
			Items:    make(map[string]entity.ProductCostOverride, len(f.Costs.Items)),
		},
	}

	for code, rate := range f.Rates.Values {
		t.Rates.Rates[code] = decimal.NewFromFloat(rate)
	}

	t.Globals = entity.GlobalCostPercentages{
		AdvertisingPct: decimal.NewFromFloat(f.Globals.AdvertisingPct),
		FBAOverheadPct: decimal.NewFromFloat(f.Globals.FBAOverheadPct),
		FBMOverheadPct: decimal.NewFromFloat(f.Globals.FBMOverheadPct),
	}
	if f.Globals.RefundRecoveryRate != nil {
		t.Globals.RefundRecoveryRate = decimal.NewNullDecimal(decimal.NewFromFloat(*f.Globals.RefundRecoveryRate))
	}

	for route, r := range f.Shipping {
		if len(r.Tiers) == 0 {
			return nil, fmt.Errorf("%w: ruta %q sin tramos", domain.ErrInvalidInput, route)
		}
		tiers := make([]entity.RateTier, 0, len(r.Tiers))
		for _, tier := range r.Tiers {
			tiers = append(tiers, entity.RateTier{
				MaxDesi: decimal.NewFromFloat(tier.MaxDesi),
				Rate:    decimal.NewFromFloat(tier.Rate),
			})
		}
		sort.Slice(tiers, func(i, j int) bool { return tiers[i].MaxDesi.LessThan(tiers[j].MaxDesi) })
		t.Shipping[route] = entity.ShippingRoute{Currency: r.Currency, Tiers: tiers}
	}

	for _, c := range f.Countries {
		cfg := entity.CountryProfitConfig{
			Marketplace: c.Marketplace,
			Currency:    c.Currency,
			FBA: entity.FBAConfig{
				ShippingPerDesi: decimal.NewFromFloat(c.FBA.ShippingPerDesi),
				WarehousePct:    decimal.NewFromFloat(c.FBA.WarehousePct),
			},
			FBM: entity.FBMConfig{
				Source:           entity.ShippingSource(c.FBM.Source),
				OriginRoute:      c.FBM.OriginRoute,
				LocalRoute:       c.FBM.LocalRoute,
				DefaultDutyPct:   decimal.NewFromFloat(c.FBM.DefaultDutyPct),
				DDPFeePerUnit:    decimal.NewFromFloat(c.FBM.DDPFeePerUnit),
				LocalHandlingPct: decimal.NewFromFloat(c.FBM.LocalHandlingPct),
			},
		}
		for _, od := range c.FBM.CategoryDuties {
			cfg.FBM.CategoryDuties = append(cfg.FBM.CategoryDuties, entity.CategoryDuty{
				Category: od.Category,
				DutyPct:  decimal.NewFromFloat(od.DutyPct),
			})
		}
		if c.GST != nil {
			cfg.GST = &entity.GSTRule{
				RatePct:         decimal.NewFromFloat(c.GST.RatePct),
				IncludedInPrice: c.GST.IncludedInPrice,
				AppliesTo:       entity.GSTChannel(c.GST.AppliesTo),
			}
		}
		if c.HighValueFBMTax != nil {
			cfg.HighValueFBMTax = &entity.HighValueTaxRule{
				Threshold: decimal.NewFromFloat(c.HighValueFBMTax.Threshold),
				RatePct:   decimal.NewFromFloat(c.HighValueFBMTax.RatePct),
			}
		}
		t.Countries[c.Marketplace] = cfg
	}

	for _, item := range f.Costs.Items {
		o := entity.ProductCostOverride{SKU: item.SKU}
		if item.UnitCost != nil {
			o.UnitCost = decimal.NewNullDecimal(decimal.NewFromFloat(*item.UnitCost))
		}
		if item.Desi != nil {
			o.Desi = decimal.NewNullDecimal(decimal.NewFromFloat(*item.Desi))
		}
		if item.CustomShippingCost != nil {
			o.CustomShippingCost = decimal.NewNullDecimal(decimal.NewFromFloat(*item.CustomShippingCost))
		}
		if item.Source != "" {
			src := entity.ShippingSource(item.Source)
			o.SourceOverride = &src
		}
		t.Costs.Items[item.SKU] = o
	}

	return t, nil
}
