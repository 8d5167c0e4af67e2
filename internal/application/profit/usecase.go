package profit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Rentabilidad-engine/internal/application/dto"
	"github.com/jhoicas/Rentabilidad-engine/pkg/logger"
)

// UseCase orquesta el reporte de rentabilidad end-to-end: cálculo por
// SKU, los tres rollups jerárquicos y el resumen de portafolio.
//
// El motor en sí no maneja cancelación ni timeouts (es computación pura
// síncrona); el ctx solo se consulta entre etapas para que un caller con
// volúmenes grandes pueda abortar entre niveles.
type UseCase struct {
	log *logger.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(log *logger.Logger) *UseCase {
	return &UseCase{log: log}
}

// Generate produce el ProfitReport completo para las entradas dadas.
func (uc *UseCase) Generate(ctx context.Context, in Input) (*dto.ProfitReport, error) {
	started := time.Now()

	skus, err := CalculateSKUProfitability(in)
	if err != nil {
		return nil, fmt.Errorf("rentabilidad por SKU: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	products := CalculateProductProfitability(skus)
	parents := CalculateParentProfitability(products)
	categories := CalculateCategoryProfitability(parents, products)
	summary := CalculateSummary(products)

	report := &dto.ProfitReport{
		ID:          uuid.New(),
		GeneratedAt: time.Now().UTC(),
		Currency:    in.SettlementCurrency,
		SKUs:        skus,
		Products:    products,
		Parents:     parents,
		Categories:  categories,
		Summary:     summary,
	}

	incomplete := 0
	for _, s := range skus {
		if !s.HasCostData || !s.HasSizeData {
			incomplete++
		}
	}
	uc.log.Info().
		Str("report_id", report.ID.String()).
		Str("currency", in.SettlementCurrency).
		Int("transactions", len(in.Transactions)).
		Int("skus", len(skus)).
		Int("products", len(products)).
		Int("parents", len(parents)).
		Int("categories", len(categories)).
		Int("skus_incompletos", incomplete).
		Dur("elapsed", time.Since(started)).
		Msg("reporte de rentabilidad generado")

	return report, nil
}
