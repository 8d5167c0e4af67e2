package entity

import "github.com/shopspring/decimal"

// GlobalCostPercentages son los porcentajes de costo que aplican a todos
// los SKUs por igual (algunos condicionados al canal del grupo).
type GlobalCostPercentages struct {
	AdvertisingPct     decimal.Decimal     // % de revenue en publicidad; aplica a todo canal
	FBAOverheadPct     decimal.Decimal     // % de revenue; aplica solo a canal FBA o Mixed
	FBMOverheadPct     decimal.Decimal     // % de revenue; aplica solo a canal FBM o Mixed
	RefundRecoveryRate decimal.NullDecimal // fracción recuperable de un reembolso; default 0.30 si no se define
}
