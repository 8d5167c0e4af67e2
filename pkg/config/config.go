package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper
// desde env y opcionalmente archivo).
type Config struct {
	App    AppConfig
	Engine EngineConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string // trace, debug, info, warn, error
}

// EngineConfig parámetros de ejecución del motor de rentabilidad.
type EngineConfig struct {
	ProfitFile         string // YAML con las tablas del motor (tasas, países, envíos, costos)
	TransactionsFile   string // JSON con las líneas del ledger de liquidación
	SettlementCurrency string // moneda única de salida del reporte
	MarketplaceFilter  string // vacío = todos los marketplaces
	SplitByMarketplace bool   // separar el mismo SKU por marketplace
}

// Load lee la configuración desde variables de entorno (y opcionalmente
// desde archivo). Las env vars tienen prioridad. Nombres esperados:
// APP_ENV, LOG_LEVEL, PROFIT_FILE, TRANSACTIONS_FILE, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "rentabilidad-engine"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		Engine: EngineConfig{
			ProfitFile:         getString(v, "PROFIT_FILE", "profit.yaml"),
			TransactionsFile:   getString(v, "TRANSACTIONS_FILE", "transactions.json"),
			SettlementCurrency: getString(v, "SETTLEMENT_CURRENCY", "USD"),
			MarketplaceFilter:  getString(v, "MARKETPLACE_FILTER", ""),
			SplitByMarketplace: getBool(v, "SPLIT_BY_MARKETPLACE", false),
		},
	}

	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}
