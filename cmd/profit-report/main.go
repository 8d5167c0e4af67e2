// profit-report es la capa de carga de referencia del motor: lee las
// tablas de configuración y el ledger de liquidación ya parseado (JSON),
// ejecuta el cálculo de rentabilidad y emite el reporte completo en JSON
// por stdout.
package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/jhoicas/Rentabilidad-engine/internal/application/profit"
	"github.com/jhoicas/Rentabilidad-engine/internal/domain/entity"
	"github.com/jhoicas/Rentabilidad-engine/pkg/config"
	"github.com/jhoicas/Rentabilidad-engine/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("currency", cfg.Engine.SettlementCurrency).
		Msg("iniciando motor de rentabilidad")

	tables, err := config.LoadEngineTables(cfg.Engine.ProfitFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.Engine.ProfitFile).Msg("tablas del motor")
	}

	transactions, err := loadTransactions(cfg.Engine.TransactionsFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.Engine.TransactionsFile).Msg("ledger de transacciones")
	}

	uc := profit.NewUseCase(log.Component("profit"))
	report, err := uc.Generate(context.Background(), profit.Input{
		Transactions:       transactions,
		CostOverrides:      tables.Costs,
		ShippingTable:      tables.Shipping,
		CountryConfigs:     tables.Countries,
		Rates:              tables.Rates,
		Globals:            tables.Globals,
		SettlementCurrency: cfg.Engine.SettlementCurrency,
		MarketplaceFilter:  cfg.Engine.MarketplaceFilter,
		SplitByMarketplace: cfg.Engine.SplitByMarketplace,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("generando reporte")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Fatal().Err(err).Msg("serializando reporte")
	}
}

// loadTransactions lee el ledger ya parseado. Los campos decimales
// aceptan número o string JSON (shopspring/decimal deserializa ambos).
func loadTransactions(path string) ([]entity.Transaction, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var txns []entity.Transaction
	if err := json.Unmarshal(raw, &txns); err != nil {
		return nil, err
	}
	return txns, nil
}
